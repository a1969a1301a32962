package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory.
// Used with STORAGE_BACKEND=memory and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID // keyed by lowercased email
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]*User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := r.byEmail[key]; exists {
		return ErrDuplicateEmail
	}

	r.byID[u.ID] = clone(u)
	r.byEmail[key] = u.ID
	return nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uuid.UUID, changes Changes) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := clone(existing)

	if changes.Email != nil {
		oldKey := strings.ToLower(existing.Email)
		newKey := strings.ToLower(*changes.Email)
		if newKey != oldKey {
			if _, taken := r.byEmail[newKey]; taken {
				return nil, ErrDuplicateEmail
			}
			delete(r.byEmail, oldKey)
			r.byEmail[newKey] = id
		}
		updated.Email = *changes.Email
	}
	if changes.PasswordHash != nil {
		updated.PasswordHash = *changes.PasswordHash
	}
	if changes.Name != nil {
		updated.Name = *changes.Name
	}
	if changes.IsActive != nil {
		updated.IsActive = *changes.IsActive
	}
	if changes.IsStaff != nil {
		updated.IsStaff = *changes.IsStaff
	}
	if changes.IsSuperuser != nil {
		updated.IsSuperuser = *changes.IsSuperuser
	}
	updated.UpdatedAt = changes.UpdatedAt

	r.byID[id] = updated
	return clone(updated), nil
}

func (r *MemoryRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, clone(u))
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID.String() < users[j].ID.String()
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}

func clone(u *User) *User {
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}
