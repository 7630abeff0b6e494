package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/repository"
)

type PasswordHasherInterface interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) (bool, error)
}

type TokenIssuerInterface interface {
	GenerateToken(userID uuid.UUID, username string) (string, error)
}

// LoginThrottleInterface bounds login attempts per username.
type LoginThrottleInterface interface {
	Allow(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token string
	User  *domain.User
}

type AccountService struct {
	users    repository.UserRepositoryInterface
	hasher   PasswordHasherInterface
	tokens   TokenIssuerInterface
	throttle LoginThrottleInterface
	logger   *slog.Logger
}

// AccountOption configures an AccountService.
type AccountOption func(*AccountService)

// WithLoginThrottle limits login attempts per username.
func WithLoginThrottle(throttle LoginThrottleInterface) AccountOption {
	return func(s *AccountService) {
		s.throttle = throttle
	}
}

func NewAccountService(
	users repository.UserRepositoryInterface,
	hasher PasswordHasherInterface,
	tokens TokenIssuerInterface,
	logger *slog.Logger,
	opts ...AccountOption,
) *AccountService {
	s := &AccountService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AccountService) Signup(ctx context.Context, username, password string) (*domain.User, error) {
	if err := domain.ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	user := &domain.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, err
		}
		return nil, domain.ErrInternal.WithError(err)
	}

	s.logger.Info("user created", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown users and
// wrong passwords return the same error. A throttle backend failure is logged
// and does not block the login.
func (s *AccountService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, domain.ErrCredentialsRequired
	}

	if s.throttle != nil {
		if err := s.throttle.Allow(ctx, username); err != nil {
			if errors.Is(err, domain.ErrTooManyLoginAttempts) {
				s.logger.Warn("login throttled", "username", username)
				return nil, err
			}
			s.logger.Error("login throttle unavailable", "error", err)
		}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		s.logger.Error("stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, domain.ErrInternal.WithError(err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username); err != nil {
			s.logger.Warn("failed to reset login attempts", "user_id", user.ID, "error", err)
		}
	}

	return &Session{Token: token, User: user}, nil
}
