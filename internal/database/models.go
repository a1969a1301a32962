package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the row stored in the users table
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID  `bun:"id,pk,type:uuid"`
	Email        string     `bun:"email,notnull"`
	PasswordHash string     `bun:"password_hash,notnull"`
	Name         string     `bun:"name,notnull"`
	IsActive     bool       `bun:"is_active,notnull"`
	IsStaff      bool       `bun:"is_staff,notnull"`
	IsSuperuser  bool       `bun:"is_superuser,notnull"`
	LastLogin    *time.Time `bun:"last_login"`
	CreatedAt    time.Time  `bun:"created_at,notnull"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull"`
}

// Token is the row stored in the tokens table. user_id is unique.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:t"`

	Key       string    `bun:"key,pk"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
