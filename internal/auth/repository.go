package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/accounts-api/internal/database"
)

// Repository handles token persistence in Postgres
type Repository struct {
	db  *bun.DB
	now func() time.Time
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// GetOrCreate relies on the unique user_id constraint: the insert is a no-op
// when the user already holds a token, and the select returns the winner.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID, candidateKey string) (*Token, error) {
	candidate := &database.Token{
		Key:       candidateKey,
		UserID:    userID,
		CreatedAt: r.now().UTC(),
	}

	_, err := r.db.NewInsert().
		Model(candidate).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	dbToken := new(database.Token)
	err = r.db.NewSelect().
		Model(dbToken).
		Where("t.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token for user %s vanished after insert: %w", userID, ErrTokenNotFound)
		}
		return nil, fmt.Errorf("failed to get token by user: %w", err)
	}

	return mapDBTokenToModel(dbToken), nil
}

// GetByKey retrieves a token by exact key
func (r *Repository) GetByKey(ctx context.Context, key string) (*Token, error) {
	dbToken := new(database.Token)
	err := r.db.NewSelect().
		Model(dbToken).
		Where("t.key = ?", key).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	return mapDBTokenToModel(dbToken), nil
}

// mapDBTokenToModel converts database model to domain model
func mapDBTokenToModel(dbt *database.Token) *Token {
	return &Token{
		Key:       dbt.Key,
		UserID:    dbt.UserID,
		CreatedAt: dbt.CreatedAt,
	}
}
