package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/platform/internal/pkg/metrics"
	"github.com/taskhub/platform/internal/core/domain"
	"github.com/taskhub/platform/internal/core/ports"
)

// TokenEncoder issues credentials. Implemented by *token.Codec.
type TokenEncoder interface {
	Encode(subject string, now time.Time) (string, error)
}

// AuthService implements registration and login.
type AuthService struct {
	repo    ports.AuthRepository
	encoder TokenEncoder
	clock   func() time.Time
	cost    int
	log     zerolog.Logger

	// dummyHash is compared against when the username does not exist so
	// that a failed login costs the same bcrypt work either way. It is
	// hashed with cost.
	dummyHash []byte
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithClock overrides the time source used to stamp issued credentials.
func WithClock(clock func() time.Time) AuthOption {
	return func(s *AuthService) { s.clock = clock }
}

// WithHashCost overrides the bcrypt cost used at registration.
func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

func NewAuthService(repo ports.AuthRepository, encoder TokenEncoder, log zerolog.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		repo:    repo,
		encoder: encoder,
		clock:   time.Now,
		cost:    bcrypt.DefaultCost,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskhub-dummy-password"), s.cost)
	return s
}

// Register creates a new identity with the default role. Usernames are
// compared case-sensitively.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return nil, fmt.Errorf("register %q: %w", username, domain.ErrUserExists)
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    s.clock().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return nil, fmt.Errorf("register %q: %w", username, domain.ErrUserExists)
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.log.Info().Str("username", created.Username).Int64("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Login checks the password and issues a credential for username. Unknown
// users and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return "", fmt.Errorf("login: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.log.Debug().Str("username", username).Msg("login for unknown user")
		return "", domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.log.Debug().Str("username", username).Msg("login with wrong password")
		return "", domain.ErrInvalidCredentials
	}

	tkn, err := s.encoder.Encode(user.Username, s.clock())
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("login: issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return tkn, nil
}
