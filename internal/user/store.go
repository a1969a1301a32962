package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store implements account creation and maintenance on top of a Repository.
// Plaintext passwords never leave this type; only hashes reach storage.
type Store struct {
	repo Repository
	now  func() time.Time
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// CreateOption overrides a default flag on a new account
type CreateOption func(*User)

// WithActive sets is_active (default true)
func WithActive(active bool) CreateOption {
	return func(u *User) { u.IsActive = active }
}

// WithStaff sets is_staff (default false)
func WithStaff(staff bool) CreateOption {
	return func(u *User) { u.IsStaff = staff }
}

// WithSuperuser sets is_superuser (default false)
func WithSuperuser(superuser bool) CreateOption {
	return func(u *User) { u.IsSuperuser = superuser }
}

// Create normalizes email, hashes password and persists a new user.
// An empty password yields an account that cannot log in.
func (s *Store) Create(ctx context.Context, email, password, name string, opts ...CreateOption) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		verr := NewValidationError()
		verr.Add("email", MsgRequired)
		return nil, verr
	}

	passwordHash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(u)
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// CreateSuperuser creates an account with staff and superuser rights
func (s *Store) CreateSuperuser(ctx context.Context, email, password, name string) (*User, error) {
	return s.Create(ctx, email, password, name, WithStaff(true), WithSuperuser(true))
}

// FindByEmail looks a user up by normalized email
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByEmail(ctx, email)
}

// FindByID looks a user up by ID
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all users, oldest first
func (s *Store) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// UpdateParams lists the fields to change; nil means keep
type UpdateParams struct {
	Email       *string
	Name        *string
	Password    *string
	IsActive    *bool
	IsStaff     *bool
	IsSuperuser *bool
}

// Update writes only the fields set in params to the user with the given id
// and returns the stored result. Fields left nil keep their current stored
// value, not the value of any earlier snapshot. A new password is hashed
// before it is stored.
func (s *Store) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*User, error) {
	changes := Changes{
		IsActive:    params.IsActive,
		IsStaff:     params.IsStaff,
		IsSuperuser: params.IsSuperuser,
		UpdatedAt:   s.now().UTC(),
	}

	if params.Email != nil {
		email := NormalizeEmail(*params.Email)
		if email == "" {
			verr := NewValidationError()
			verr.Add("email", MsgRequired)
			return nil, verr
		}
		changes.Email = &email
	}
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		changes.Name = &name
	}
	if params.Password != nil {
		passwordHash, err := s.hash(*params.Password)
		if err != nil {
			return nil, err
		}
		changes.PasswordHash = &passwordHash
	}

	return s.repo.Update(ctx, id, changes)
}

// TouchLastLogin records a successful credential check
func (s *Store) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateLastLogin(ctx, id, s.now().UTC())
}

func (s *Store) hash(password string) (string, error) {
	var (
		h   string
		err error
	)
	if password == "" {
		h, err = unusablePassword()
	} else {
		h, err = HashPassword(password)
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return h, nil
}
