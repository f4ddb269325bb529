package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshotter writes a consistent copy of the user database to a local file.
type Snapshotter interface {
	Snapshot(ctx context.Context, dest string) error
}

// SnapshotKey names the object a snapshot taken at t is stored under.
func SnapshotKey(t time.Time) string {
	return fmt.Sprintf("users-%s.db", t.UTC().Format("20060102T150405Z"))
}

// Backup snapshots the database into a temporary file, uploads it and returns
// the remote location. The temporary file is always removed.
func Backup(ctx context.Context, src Snapshotter, dst Service, opts UploadOptions, now time.Time) (string, error) {
	dir, err := os.MkdirTemp("", "account-snapshot-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	key := SnapshotKey(now)
	local := filepath.Join(dir, key)
	if err := src.Snapshot(ctx, local); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	location, err := dst.UploadFile(ctx, local, key, opts)
	if err != nil {
		return "", err
	}
	return location, nil
}
