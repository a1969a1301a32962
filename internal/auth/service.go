package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/redmonkez12/accounts-api/internal/logging"
	"github.com/redmonkez12/accounts-api/internal/metrics"
	"github.com/redmonkez12/accounts-api/internal/user"
)

var (
	// ErrInvalidCredentials is returned for every failed credential check,
	// whatever the cause
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")

	// ErrUnauthenticated is returned for every failed token check
	ErrUnauthenticated = errors.New("invalid token")
)

// Service validates credentials, issues tokens and resolves them back to users
type Service struct {
	users  *user.Store
	tokens TokenRepository
	cache  TokenCache // optional
	logger *logging.Logger
}

// NewService wires the service. cache may be nil.
func NewService(users *user.Store, tokens TokenRepository, cache TokenCache, logger *logging.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		cache:  cache,
		logger: logger,
	}
}

// ValidateCredentials returns the user owning email if password matches.
// Empty input, unknown email, wrong password and inactive accounts all
// produce ErrInvalidCredentials.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			user.SimulatePasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !existingUser.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	if !existingUser.IsActive {
		return nil, ErrInvalidCredentials
	}

	return existingUser, nil
}

// IssueToken returns the user's token, creating it on first use.
// Repeated calls return the same key.
func (s *Service) IssueToken(ctx context.Context, u *user.User) (*Token, error) {
	candidate, err := generateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token, err := s.tokens.GetOrCreate(ctx, u.ID, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if token.Key == candidate {
		metrics.TokensIssuedTotal.WithLabelValues(metrics.FlowCreated).Inc()
	} else {
		metrics.TokensIssuedTotal.WithLabelValues(metrics.FlowReused).Inc()
	}

	return token, nil
}

// Login validates credentials and returns the caller's token
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	u, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues(metrics.ResultError).Inc()
		}
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	token, err := s.IssueToken(ctx, u)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		s.logger.Warn("failed to record last login", "user_id", u.ID, "error", err)
	}

	return token, nil
}

// Authenticate resolves a presented token key to an active user
func (s *Service) Authenticate(ctx context.Context, key string) (*user.User, error) {
	u, err := s.authenticate(ctx, key)
	switch {
	case err == nil:
		metrics.AuthenticationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	case errors.Is(err, ErrUnauthenticated):
		metrics.AuthenticationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
	default:
		metrics.AuthenticationsTotal.WithLabelValues(metrics.ResultError).Inc()
	}
	return u, err
}

func (s *Service) authenticate(ctx context.Context, key string) (*user.User, error) {
	if key == "" {
		return nil, ErrUnauthenticated
	}

	userID, err := s.resolveOwner(ctx, key)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to get token owner: %w", err)
	}

	if !u.IsActive {
		return nil, ErrUnauthenticated
	}

	return u, nil
}

// resolveOwner finds the user ID behind key, consulting the cache first.
// Cache failures are logged and fall back to the repository.
func (s *Service) resolveOwner(ctx context.Context, key string) (uuid.UUID, error) {
	if s.cache != nil {
		userID, found, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.TokenCacheLookupsTotal.WithLabelValues(metrics.ResultError).Inc()
			s.logger.Warn("token cache read failed", "error", err)
		case found:
			metrics.TokenCacheLookupsTotal.WithLabelValues(metrics.ResultHit).Inc()
			return userID, nil
		default:
			metrics.TokenCacheLookupsTotal.WithLabelValues(metrics.ResultMiss).Inc()
		}
	}

	token, err := s.tokens.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return uuid.Nil, ErrUnauthenticated
		}
		return uuid.Nil, fmt.Errorf("failed to get token: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, token.UserID); err != nil {
			s.logger.Warn("token cache write failed", "error", err)
		}
	}

	return token.UserID, nil
}
