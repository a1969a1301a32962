package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// keyBytes of randomness give a 40 character hex key
const keyBytes = 20

var ErrTokenNotFound = errors.New("token not found")

// Token is an opaque bearer secret bound to exactly one user.
// It has no expiry.
type Token struct {
	Key       string    `json:"token"`
	UserID    uuid.UUID `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// generateKey creates a cryptographically secure random token key
func generateKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
