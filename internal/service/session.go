package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"account-api/internal/domain"
	"account-api/internal/repository"
	"account-api/internal/security"
)

// SessionGuard resolves a presented bearer token to its user.
type SessionGuard interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type sessionGuard struct {
	users repository.UserRepository
	clock security.Clock
	log   logrus.FieldLogger
}

func NewSessionGuard(users repository.UserRepository, clock security.Clock, log logrus.FieldLogger) SessionGuard {
	if clock == nil {
		clock = security.SystemClock{}
	}
	return &sessionGuard{
		users: users,
		clock: clock,
		log:   log,
	}
}

// Authenticate rejects missing, unknown and expired tokens. Expired tokens are
// left in place; the next login overwrites them.
func (g *sessionGuard) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, unauthorized(ErrMissingToken)
	}

	user, err := g.users.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, unauthorized(ErrInvalidToken)
		}
		g.log.WithError(err).Error("resolve session token")
		return nil, internalError(fmt.Errorf("find by token: %w", err))
	}

	if user.SessionExpiredAt(g.clock.Now()) {
		return nil, unauthorized(ErrTokenExpired)
	}
	return user, nil
}
