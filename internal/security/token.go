package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Session token configuration.
const (
	TokenBytes      = 32                  // 32 bytes = 64 hex chars
	DefaultTokenTTL = 30 * 24 * time.Hour // 30 days
)

// TokenIssuer generates opaque session tokens and their expiry deadlines.
type TokenIssuer interface {
	NewToken() (string, error)
	ExpiryFromNow() time.Time
}

// RandomTokenIssuer issues hex encoded tokens read from crypto/rand.
type RandomTokenIssuer struct {
	clock Clock
	ttl   time.Duration
}

// NewTokenIssuer creates an issuer whose tokens are valid for ttl.
// A non-positive ttl selects DefaultTokenTTL.
func NewTokenIssuer(clock Clock, ttl time.Duration) *RandomTokenIssuer {
	if clock == nil {
		clock = SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &RandomTokenIssuer{clock: clock, ttl: ttl}
}

func (i *RandomTokenIssuer) NewToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (i *RandomTokenIssuer) ExpiryFromNow() time.Time {
	return i.clock.Now().Add(i.ttl)
}

// TTL returns the configured validity window.
func (i *RandomTokenIssuer) TTL() time.Duration {
	return i.ttl
}

var _ TokenIssuer = (*RandomTokenIssuer)(nil)
