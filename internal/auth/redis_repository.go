package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisTokenCache caches token key -> user ID lookups in Redis.
// Keys are stored hashed so a Redis dump does not leak usable tokens.
type RedisTokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenCache(client *redis.Client, ttl time.Duration) *RedisTokenCache {
	return &RedisTokenCache{client: client, ttl: ttl}
}

// getTokenKey generates the Redis key for a token
func getTokenKey(token string) string {
	return fmt.Sprintf("auth_token:%s", hashToken(token))
}

// Get returns the cached owner of token
func (c *RedisTokenCache) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	value, err := c.client.Get(ctx, getTokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to read token cache: %w", err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		// Drop the corrupt entry and treat it as a miss
		if err := c.client.Del(ctx, getTokenKey(token)).Err(); err != nil {
			return uuid.Nil, false, fmt.Errorf("failed to drop corrupt token cache entry: %w", err)
		}
		return uuid.Nil, false, nil
	}

	return userID, true, nil
}

// Set caches the owner of token for the configured TTL
func (c *RedisTokenCache) Set(ctx context.Context, token string, userID uuid.UUID) error {
	if err := c.client.Set(ctx, getTokenKey(token), userID.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// hashToken returns the hex SHA-256 of token
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
