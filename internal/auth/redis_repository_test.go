package auth

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisTokenCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTokenCache(client, ttl), mr
}

func TestRedisTokenCache_SetGet(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Hour)
	ctx := context.Background()
	userID := uuid.New()
	key := strings.Repeat("ab", keyBytes)

	_, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, key, userID))

	got, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, userID, got)

	// raw keys never reach Redis
	assert.False(t, mr.Exists("auth_token:"+key))
	assert.True(t, mr.Exists(getTokenKey(key)))
	assert.Equal(t, time.Hour, mr.TTL(getTokenKey(key)))
}

func TestRedisTokenCache_Expiry(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Minute)
	ctx := context.Background()
	key := strings.Repeat("cd", keyBytes)

	require.NoError(t, cache.Set(ctx, key, uuid.New()))
	mr.FastForward(2 * time.Minute)

	_, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisTokenCache_CorruptEntryIsMiss(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Hour)
	ctx := context.Background()
	key := strings.Repeat("ef", keyBytes)

	require.NoError(t, mr.Set(getTokenKey(key), "not-a-uuid"))

	_, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists(getTokenKey(key)))
}

// failDelHook makes DEL commands fail and lets everything else through
type failDelHook struct{}

func (failDelHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (failDelHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "del" {
			err := errors.New("del refused")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (failDelHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisTokenCache_CorruptEntryDeleteFails(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Hour)
	cache.client.AddHook(failDelHook{})
	key := strings.Repeat("ef", keyBytes)

	require.NoError(t, mr.Set(getTokenKey(key), "not-a-uuid"))

	_, found, err := cache.Get(context.Background(), key)
	assert.False(t, found)
	assert.ErrorContains(t, err, "del refused")
}

func TestRedisTokenCache_Unavailable(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Hour)
	mr.Close()

	_, _, err := cache.Get(context.Background(), "anything")
	assert.Error(t, err)
	assert.Error(t, cache.Set(context.Background(), "anything", uuid.New()))
}

func TestHashToken(t *testing.T) {
	assert.Len(t, hashToken("key"), 64)
	assert.Equal(t, hashToken("key"), hashToken("key"))
	assert.NotEqual(t, hashToken("key"), hashToken("key2"))
}
