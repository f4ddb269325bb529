package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"account-api/internal/domain"
	"account-api/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL CHECK (password_hash <> ''),
	name TEXT NOT NULL,
	token TEXT NULL UNIQUE,
	token_expired_at INTEGER NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	CHECK ((token IS NULL) = (token_expired_at IS NULL))
);
`

const selectUserColumns = `
SELECT username, password_hash, name, token, token_expired_at, created_at, updated_at
FROM users`

const upsertUser = `
INSERT INTO users (username, password_hash, name, token, token_expired_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
	password_hash = excluded.password_hash,
	name = excluded.name,
	token = excluded.token,
	token_expired_at = excluded.token_expired_at,
	updated_at = excluded.updated_at`

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type UserRepository struct {
	db   *sql.DB
	opts Options
}

func NewUserRepository(db *sql.DB, opts Options) *UserRepository {
	return &UserRepository{db: db, opts: opts}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user *domain.User
	err := withPolicy(ctx, r.opts, func(ctx context.Context) error {
		var err error
		user, err = scanUser(r.db.QueryRowContext(ctx, selectUserColumns+`
WHERE username = ?`, username))
		return err
	})
	return user, err
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := withPolicy(ctx, r.opts, func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username,
		).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) FindByToken(ctx context.Context, token string) (*domain.User, error) {
	var user *domain.User
	err := withPolicy(ctx, r.opts, func(ctx context.Context) error {
		var err error
		user, err = scanUser(r.db.QueryRowContext(ctx, selectUserColumns+`
WHERE token = ?`, token))
		return err
	})
	return user, err
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	return withPolicy(ctx, r.opts, func(ctx context.Context) error {
		return saveUser(ctx, r.db, user)
	})
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return withPolicy(ctx, r.opts, func(ctx context.Context) error {
		now := time.Now().UTC()
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		user.UpdatedAt = now

		_, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, password_hash, name, token, token_expired_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userArgs(user)...,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert user %q: %w", user.Username, repository.ErrUserExists)
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) Update(ctx context.Context, username string, fn func(*domain.User) error) (*domain.User, error) {
	var updated *domain.User
	err := withPolicy(ctx, r.opts, func(ctx context.Context) error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		user, err := scanUser(tx.QueryRowContext(ctx, selectUserColumns+`
WHERE username = ?`, username))
		if err != nil {
			return err
		}
		if err := fn(user); err != nil {
			return err
		}
		if user.Username != username {
			return fmt.Errorf("username is immutable")
		}
		if err := saveUser(ctx, tx, user); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit user: %w", err)
		}
		updated = user
		return nil
	})
	return updated, err
}

// Snapshot writes a transactionally consistent copy of the database to dest.
func (r *UserRepository) Snapshot(ctx context.Context, dest string) error {
	return withPolicy(ctx, Options{Retries: r.opts.Retries}, func(ctx context.Context) error {
		if _, err := r.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
			return fmt.Errorf("vacuum into %s: %w", dest, err)
		}
		return nil
	})
}

func saveUser(ctx context.Context, q queryer, user *domain.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := q.ExecContext(ctx, upsertUser, userArgs(user)...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("save user: duplicate token: %w", err)
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func userArgs(user *domain.User) []any {
	var token sql.NullString
	var expiredAt sql.NullInt64
	if user.HasSession() {
		token = sql.NullString{String: *user.Token, Valid: true}
		expiredAt = sql.NullInt64{Int64: *user.TokenExpiredAt, Valid: true}
	}
	return []any{
		user.Username,
		user.PasswordHash,
		user.Name,
		token,
		expiredAt,
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	}
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user      domain.User
		token     sql.NullString
		expiredAt sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&user.Username,
		&user.PasswordHash,
		&user.Name,
		&token,
		&expiredAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if token.Valid && expiredAt.Valid {
		user.Token = &token.String
		user.TokenExpiredAt = &expiredAt.Int64
	}
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return &user, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
