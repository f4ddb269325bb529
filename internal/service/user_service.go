package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"account-api/internal/domain"
	"account-api/internal/repository"
	"account-api/internal/security"
)

// Profile is the public view of a user.
type Profile struct {
	Username string
	Name     string
}

// RegistrationService creates new accounts.
type RegistrationService interface {
	Register(ctx context.Context, req RegisterRequest) error
}

// ProfileService reads and updates the profile of an authenticated user.
type ProfileService interface {
	Get(user *domain.User) Profile
	Update(ctx context.Context, user *domain.User, req UpdateUserRequest) (Profile, error)
}

type registrationService struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	log    logrus.FieldLogger
}

func NewRegistrationService(users repository.UserRepository, hasher security.PasswordHasher, log logrus.FieldLogger) RegistrationService {
	return &registrationService{
		users:  users,
		hasher: hasher,
		log:    log,
	}
}

func (s *registrationService) Register(ctx context.Context, req RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateStruct(req); err != nil {
		return err
	}

	exists, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return s.fail(err)
	}
	if exists {
		return conflict(ErrUsernameTaken)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return s.fail(err)
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
	}
	// Create enforces uniqueness again for registrations racing past the check above.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return conflict(ErrUsernameTaken)
		}
		return s.fail(err)
	}

	s.log.WithField("username", user.Username).Info("user registered")
	return nil
}

func (s *registrationService) fail(err error) error {
	s.log.WithError(err).Error("register user")
	return internalError(err)
}

type profileService struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	log    logrus.FieldLogger
}

func NewProfileService(users repository.UserRepository, hasher security.PasswordHasher, log logrus.FieldLogger) ProfileService {
	return &profileService{
		users:  users,
		hasher: hasher,
		log:    log,
	}
}

func (s *profileService) Get(user *domain.User) Profile {
	return Profile{Username: user.Username, Name: user.Name}
}

func (s *profileService) Update(ctx context.Context, user *domain.User, req UpdateUserRequest) (Profile, error) {
	if err := validateUpdate(req); err != nil {
		return Profile{}, err
	}

	var newHash string
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return Profile{}, s.fail(err)
		}
		newHash = hash
	}

	updated, err := s.users.Update(ctx, user.Username, func(u *domain.User) error {
		if req.Name != nil {
			u.Name = *req.Name
		}
		if newHash != "" {
			u.PasswordHash = newHash
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Profile{}, unauthorized(ErrInvalidToken)
		}
		return Profile{}, s.fail(err)
	}

	s.log.WithField("username", updated.Username).Info("profile updated")
	return s.Get(updated), nil
}

func (s *profileService) fail(err error) error {
	s.log.WithError(err).Error("update profile")
	return internalError(fmt.Errorf("update profile: %w", err))
}
