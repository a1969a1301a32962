package auth

import (
	"context"

	"github.com/google/uuid"
)

// TokenRepository stores one token per user.
type TokenRepository interface {
	// GetOrCreate returns the user's existing token, or stores candidateKey as
	// the new one. The check and the insert happen atomically; concurrent
	// callers for the same user all receive the same token.
	GetOrCreate(ctx context.Context, userID uuid.UUID, candidateKey string) (*Token, error)
	GetByKey(ctx context.Context, key string) (*Token, error)
}

// TokenCache remembers which user a token key belongs to. A miss is reported
// as found == false with a nil error.
type TokenCache interface {
	Get(ctx context.Context, key string) (userID uuid.UUID, found bool, err error)
	Set(ctx context.Context, key string, userID uuid.UUID) error
}
