package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisCache(rdb, "gk"), mr
}

func TestRedisPutGetInvalidate(t *testing.T) {
	cache, _ := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "tok-1", "user-a", time.Hour))

	userID, err := cache.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-a", userID)

	_, err = cache.Get(ctx, "tok-unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, cache.Invalidate(ctx, "tok-1"))
	_, err = cache.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, cache.Invalidate(ctx, "tok-1"))
}

func TestRedisTTLExpiry(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "tok-ttl", "user-a", time.Minute))

	mr.FastForward(61 * time.Second)

	_, err := cache.Get(ctx, "tok-ttl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisInvalidateKeepsIndexCoherent(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "tok-1", "user-a", time.Hour))
	require.NoError(t, cache.Put(ctx, "tok-2", "user-a", time.Hour))

	require.NoError(t, cache.Invalidate(ctx, "tok-1"))

	members, err := mr.SMembers("gk:u:user-a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tok-2"}, members)
}

func TestRedisInvalidateAllForUser(t *testing.T) {
	cache, _ := newRedisCache(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, cache.Put(ctx, fmt.Sprintf("a-%d", i), "user-a", time.Hour))
	}
	require.NoError(t, cache.Put(ctx, "b-0", "user-b", time.Hour))

	require.NoError(t, cache.InvalidateAllForUser(ctx, "user-a", "a-2"))

	for i := 0; i < 4; i++ {
		_, err := cache.Get(ctx, fmt.Sprintf("a-%d", i))
		if i == 2 {
			require.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrNotFound)
		}
	}

	userID, err := cache.Get(ctx, "b-0")
	require.NoError(t, err)
	assert.Equal(t, "user-b", userID)

	// No sessions left for the user means no leftover calls fail either.
	require.NoError(t, cache.InvalidateAllForUser(ctx, "user-c"))
}

func TestRedisUnavailableIsWrapped(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "tok-1", "user-a", time.Hour))
	mr.Close()

	_, err := cache.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.ErrorIs(t, cache.Put(ctx, "tok-2", "user-a", time.Hour), ErrUnavailable)
	assert.ErrorIs(t, cache.Invalidate(ctx, "tok-1"), ErrUnavailable)
	assert.ErrorIs(t, cache.InvalidateAllForUser(ctx, "user-a"), ErrUnavailable)
	assert.ErrorIs(t, cache.Ping(ctx), ErrUnavailable)
}
