package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"account-api/internal/domain"
	"account-api/internal/repository"
	"account-api/internal/security"
)

// Session is a freshly issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService exchanges credentials for a session token.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*Session, error)
}

// errPasswordChanged aborts a login whose verified hash was replaced meanwhile.
var errPasswordChanged = errors.New("password changed during login")

type authService struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	tokens security.TokenIssuer
	log    logrus.FieldLogger
	// dummyHash is verified against when the username is unknown so both
	// failure paths cost the same.
	dummyHash string
}

func NewAuthService(users repository.UserRepository, hasher security.PasswordHasher, tokens security.TokenIssuer, log logrus.FieldLogger) AuthService {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		log.WithError(err).Warn("compute dummy password hash")
	}
	return &authService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		log:       log,
		dummyHash: dummy,
	}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.Verify(req.Password, s.dummyHash)
			return nil, s.reject(req.Username)
		}
		return nil, s.fail(err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, s.reject(req.Username)
	}

	token, err := s.tokens.NewToken()
	if err != nil {
		return nil, s.fail(err)
	}
	expiresAt := s.tokens.ExpiryFromNow()
	verifiedHash := user.PasswordHash

	// The verified hash is re-checked inside the transaction so a password
	// changed after verification cannot be logged into with the old one.
	_, err = s.users.Update(ctx, req.Username, func(u *domain.User) error {
		if u.PasswordHash != verifiedHash {
			return errPasswordChanged
		}
		u.SetSession(token, expiresAt)
		return nil
	})
	if err != nil {
		if errors.Is(err, errPasswordChanged) || errors.Is(err, repository.ErrUserNotFound) {
			return nil, s.reject(req.Username)
		}
		return nil, s.fail(err)
	}

	s.log.WithField("username", req.Username).Info("user logged in")
	return &Session{Token: token, ExpiresAt: time.UnixMilli(expiresAt.UnixMilli())}, nil
}

func (s *authService) reject(username string) error {
	s.log.WithField("username", username).Info("login rejected")
	return unauthorized(ErrInvalidCredentials)
}

func (s *authService) fail(err error) error {
	s.log.WithError(err).Error("login")
	return internalError(fmt.Errorf("login: %w", err))
}
