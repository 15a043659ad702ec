package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewWithClient(client, "auth", slog.Default())
}

func TestStore_GetSet(t *testing.T) {
	_, s := newTestStore(t)
	ctx := context.Background()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "otp:login:user@example.com", "hash", time.Minute))

	val, found, err := s.Get(ctx, "otp:login:user@example.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hash", val)
}

func TestStore_KeysAreNamespaced(t *testing.T) {
	mr, s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "lockout:user@example.com", "5", time.Minute))
	assert.True(t, mr.Exists("auth:lockout:user@example.com"))
}

func TestStore_IncrCreatesAtOne(t *testing.T) {
	_, s := newTestStore(t)
	ctx := context.Background()

	count, err := s.Incr(ctx, "failed-attempts:user@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = s.Incr(ctx, "failed-attempts:user@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestStore_TTLAndExpire(t *testing.T) {
	mr, s := newTestStore(t)
	ctx := context.Background()

	// Missing key reports a negative TTL.
	ttl, err := s.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.True(t, ttl < 0)

	require.NoError(t, s.Set(ctx, "cooldown", "1", 60*time.Second))
	ttl, err = s.TTL(ctx, "cooldown")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, ttl)

	require.NoError(t, s.Expire(ctx, "cooldown", 10*time.Second))
	ttl, err = s.TTL(ctx, "cooldown")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, ttl)

	mr.FastForward(11 * time.Second)
	_, found, err := s.Get(ctx, "cooldown")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_DelAndExists(t *testing.T) {
	_, s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, s.Set(ctx, "b", "2", time.Minute))

	exists, err := s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Del(ctx, "a", "b", "never-existed"))

	exists, err = s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_UnavailableWrapsErrors(t *testing.T) {
	mr, s := newTestStore(t)
	ctx := context.Background()

	mr.Close()

	_, _, err := s.Get(ctx, "any")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = s.Incr(ctx, "any")
	assert.ErrorIs(t, err, ErrUnavailable)
}
