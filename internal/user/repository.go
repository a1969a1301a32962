package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/accounts-api/internal/database"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures
const uniqueViolation = "23505"

// Repository persists users. Implementations must enforce case-insensitive
// email uniqueness and report it as ErrDuplicateEmail.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// Update writes the non-nil fields of changes plus updated_at and
	// returns the row as stored afterwards
	Update(ctx context.Context, id uuid.UUID, changes Changes) (*User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context) ([]*User, error)
}

// Changes lists the columns an update writes; nil fields are left untouched
type Changes struct {
	Email        *string
	PasswordHash *string
	Name         *string
	IsActive     *bool
	IsStaff      *bool
	IsSuperuser  *bool
	UpdatedAt    time.Time
}

// PostgresRepository handles user persistence through bun
type PostgresRepository struct {
	db *bun.DB
}

func NewPostgresRepository(db *bun.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user row
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	_, err := r.db.NewInsert().
		Model(mapModelToDBUser(u)).
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("lower(u.email) = lower(?)", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("u.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// Update sets only the changed columns so concurrent updates to other
// columns are not overwritten
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, changes Changes) (*User, error) {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("updated_at = ?", changes.UpdatedAt)

	if changes.Email != nil {
		q = q.Set("email = ?", *changes.Email)
	}
	if changes.PasswordHash != nil {
		q = q.Set("password_hash = ?", *changes.PasswordHash)
	}
	if changes.Name != nil {
		q = q.Set("name = ?", *changes.Name)
	}
	if changes.IsActive != nil {
		q = q.Set("is_active = ?", *changes.IsActive)
	}
	if changes.IsStaff != nil {
		q = q.Set("is_staff = ?", *changes.IsStaff)
	}
	if changes.IsSuperuser != nil {
		q = q.Set("is_superuser = ?", *changes.IsSuperuser)
	}

	result, err := q.Where("id = ?", id).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if err := checkAffected(result); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// UpdateLastLogin stamps the last successful credential check
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("last_login = ?", at).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return checkAffected(result)
}

// List returns all users, oldest first
func (r *PostgresRepository) List(ctx context.Context) ([]*User, error) {
	var rows []database.User
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("u.created_at ASC, u.id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(rows))
	for i := range rows {
		users = append(users, mapDBUserToModel(&rows[i]))
	}

	return users, nil
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		Name:         dbu.Name,
		IsActive:     dbu.IsActive,
		IsStaff:      dbu.IsStaff,
		IsSuperuser:  dbu.IsSuperuser,
		LastLogin:    dbu.LastLogin,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}

func mapModelToDBUser(u *User) *database.User {
	return &database.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		IsActive:     u.IsActive,
		IsStaff:      u.IsStaff,
		IsSuperuser:  u.IsSuperuser,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
