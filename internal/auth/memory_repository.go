package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps tokens in process memory
type MemoryRepository struct {
	mu     sync.Mutex
	byKey  map[string]*Token
	byUser map[uuid.UUID]*Token
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byKey:  make(map[string]*Token),
		byUser: make(map[uuid.UUID]*Token),
	}
}

func (r *MemoryRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, candidateKey string) (*Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.byUser[userID]; ok {
		c := *t
		return &c, nil
	}

	t := &Token{Key: candidateKey, UserID: userID, CreatedAt: time.Now().UTC()}
	r.byKey[t.Key] = t
	r.byUser[userID] = t

	c := *t
	return &c, nil
}

func (r *MemoryRepository) GetByKey(ctx context.Context, key string) (*Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byKey[key]
	if !ok {
		return nil, ErrTokenNotFound
	}
	c := *t
	return &c, nil
}
