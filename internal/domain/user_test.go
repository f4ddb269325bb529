package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var u User
	assert.False(t, u.HasSession())
	assert.True(t, u.SessionExpiredAt(now))

	u.SetSession("abc", now.Add(time.Minute))
	assert.True(t, u.HasSession())
	assert.Equal(t, "abc", *u.Token)
	assert.Equal(t, now.Add(time.Minute).UnixMilli(), *u.TokenExpiredAt)
	assert.False(t, u.SessionExpiredAt(now))
	assert.True(t, u.SessionExpiredAt(now.Add(time.Minute)), "expiry is inclusive")
	assert.True(t, u.SessionExpiredAt(now.Add(2*time.Minute)))

	u.SetSession("def", now.Add(time.Hour))
	assert.Equal(t, "def", *u.Token)
}
