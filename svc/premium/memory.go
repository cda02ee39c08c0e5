package premium

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/t333watch/t333watch/pkg/cache"
)

const loadTimeout = 10 * time.Second

// MemoryCache keeps statuses in a process-local LRU.
type MemoryCache struct {
	users   UserReader
	entries *cache.LRU[uuid.UUID, bool]
	group   singleflight.Group
	// gen changes on every Invalidate. Loads are shared only within one
	// generation and a load that raced with an invalidation does not write
	// its result back.
	gen atomic.Uint64
}

func NewMemoryCache(users UserReader, cfg Config, opts ...cache.Option[uuid.UUID, bool]) *MemoryCache {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 50_000
	}
	return &MemoryCache{
		users:   users,
		entries: cache.NewLRU(capacity, cfg.ttl(), opts...),
	}
}

func (c *MemoryCache) Get(ctx context.Context, userID uuid.UUID) (bool, error) {
	if v, ok := c.entries.Get(userID); ok {
		return v, nil
	}

	gen := c.gen.Load()
	// The shared load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(userID.String()+"/"+strconv.FormatUint(gen, 10), func() (any, error) {
		ctx, cancel := context.WithTimeout(loadCtx, loadTimeout)
		defer cancel()
		u, err := c.users.GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return u.PremiumFlag, nil
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		premium := res.Val.(bool)
		if c.gen.Load() == gen {
			c.entries.Set(userID, premium)
		}
		return premium, nil
	}
}

func (c *MemoryCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	c.gen.Add(1)
	c.entries.Delete(userID)
	return nil
}
