package premium

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/t333watch/t333watch/pkg/logger"
)

const keyPrefix = "premium:"

// setIfCurrent writes the loaded status only when no invalidation happened
// since the load started (the generation key is unchanged).
var setIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or ''
if gen == ARGV[3] then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
  return 1
end
return 0
`)

// RedisCache shares statuses between API replicas.
// Read failures fall back to the user store and write failures are logged,
// so a Redis outage degrades to uncached reads.
type RedisCache struct {
	client redis.UniversalClient
	users  UserReader
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisCache(client redis.UniversalClient, users UserReader, cfg Config, log *slog.Logger) *RedisCache {
	return &RedisCache{client: client, users: users, ttl: cfg.ttl(), log: log}
}

func statusKey(id uuid.UUID) string { return keyPrefix + id.String() }
func genKey(id uuid.UUID) string    { return keyPrefix + "gen:" + id.String() }

func (c *RedisCache) Get(ctx context.Context, userID uuid.UUID) (bool, error) {
	v, err := c.client.Get(ctx, statusKey(userID)).Result()
	switch {
	case err == nil:
		return v == "1", nil
	case !errors.Is(err, redis.Nil):
		c.warn(ctx, userID, "premium cache read failed", err)
		return c.load(ctx, userID)
	}

	gen, err := c.client.Get(ctx, genKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.warn(ctx, userID, "premium cache read failed", err)
		return c.load(ctx, userID)
	}

	u, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}

	val := "0"
	if u.PremiumFlag {
		val = "1"
	}
	keys := []string{statusKey(userID), genKey(userID)}
	if err := setIfCurrent.Run(ctx, c.client, keys, val, c.ttl.Milliseconds(), gen).Err(); err != nil {
		c.warn(ctx, userID, "premium cache write failed", err)
	}
	return u.PremiumFlag, nil
}

func (c *RedisCache) load(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.PremiumFlag, nil
}

func (c *RedisCache) warn(ctx context.Context, userID uuid.UUID, msg string, err error) {
	c.log.WarnContext(ctx, msg, logger.UserID(userID.String()), logger.Component("premium_cache"), logger.Error(err))
}

func (c *RedisCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, statusKey(userID))
		p.Incr(ctx, genKey(userID))
		p.PExpire(ctx, genKey(userID), 2*c.ttl)
		return nil
	})
	if err != nil {
		return errors.Join(ErrCacheUnavailable, err)
	}
	return nil
}
