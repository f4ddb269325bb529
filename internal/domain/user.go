package domain

import "time"

// User represents a registered account and its current session, if any.
type User struct {
	Username     string
	PasswordHash string
	Name         string
	// Token and TokenExpiredAt are either both set or both nil.
	Token          *string
	TokenExpiredAt *int64 // epoch millis
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasSession reports whether a session token has been issued to the user.
func (u *User) HasSession() bool {
	return u.Token != nil && u.TokenExpiredAt != nil
}

// SetSession overwrites the current session. Any previous token stops resolving.
func (u *User) SetSession(token string, expiresAt time.Time) {
	millis := expiresAt.UnixMilli()
	u.Token = &token
	u.TokenExpiredAt = &millis
}

// SessionExpiredAt reports whether the session is no longer valid at now.
// A user without a session is always treated as expired.
func (u *User) SessionExpiredAt(now time.Time) bool {
	if !u.HasSession() {
		return true
	}
	return *u.TokenExpiredAt <= now.UnixMilli()
}
