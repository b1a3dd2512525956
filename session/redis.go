package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// invalidateScript deletes a session key and removes the token from its
// owner's index set in one round-trip, so the index never references a
// token that a concurrent Get could still resolve.
const invalidateScript = `
local uid = redis.call("GET", KEYS[1])
if uid then
  redis.call("DEL", KEYS[1])
  redis.call("SREM", ARGV[1] .. uid, ARGV[2])
  return 1
end
return 0
`

var invalidateLua = redis.NewScript(invalidateScript)

// RedisCache is a Cache backed by a shared Redis instance, for deployments
// where several server processes must agree on live sessions. Expiry is
// delegated to Redis key TTLs. All backend failures are wrapped in
// ErrUnavailable so resolvers can fail closed.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisCache wraps client. prefix namespaces all keys and defaults to
// "guardkit".
func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "guardkit"
	}
	return &RedisCache{
		rdb:    client,
		prefix: prefix,
	}
}

func (c *RedisCache) sessionKey(token string) string {
	return c.prefix + ":s:" + token
}

func (c *RedisCache) userKeyPrefix() string {
	return c.prefix + ":u:"
}

func (c *RedisCache) userKey(userID string) string {
	return c.userKeyPrefix() + userID
}

// Put registers token -> userID with ttl and tracks the token in the
// owner's index set. The index set expires alongside the newest session so
// a user with no live sessions leaves nothing behind.
func (c *RedisCache) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.sessionKey(token), userID, ttl)
		pipe.SAdd(ctx, c.userKey(userID), token)
		pipe.Expire(ctx, c.userKey(userID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get resolves token. Sessions removed by TTL are indistinguishable from
// sessions that never existed, so expiry surfaces as ErrNotFound here.
func (c *RedisCache) Get(ctx context.Context, token string) (string, error) {
	userID, err := c.rdb.Get(ctx, c.sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return userID, nil
}

// Invalidate removes token and its index entry. Idempotent.
func (c *RedisCache) Invalidate(ctx context.Context, token string) error {
	err := invalidateLua.Run(ctx, c.rdb,
		[]string{c.sessionKey(token)},
		c.userKeyPrefix(), token,
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// InvalidateAllForUser removes every tracked session of userID except the
// keep tokens. A session Put between the SMEMBERS read and the delete
// phase survives; it will expire naturally or be caught by the next call.
func (c *RedisCache) InvalidateAllForUser(ctx context.Context, userID string, keep ...string) error {
	kept := make(map[string]struct{}, len(keep))
	for _, token := range keep {
		kept[token] = struct{}{}
	}

	tokens, err := c.rdb.SMembers(ctx, c.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var doomedKeys []string
	var doomedTokens []interface{}
	for _, token := range tokens {
		if _, spare := kept[token]; spare {
			continue
		}
		doomedKeys = append(doomedKeys, c.sessionKey(token))
		doomedTokens = append(doomedTokens, token)
	}
	if len(doomedKeys) == 0 {
		return nil
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, doomedKeys...)
		if len(doomedTokens) == len(tokens) {
			pipe.Del(ctx, c.userKey(userID))
		} else {
			pipe.SRem(ctx, c.userKey(userID), doomedTokens...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping verifies backend reachability, for readiness probes.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
