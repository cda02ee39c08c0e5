package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/t333watch/t333watch/pkg/cache"
)

// Ledger records which webhook events have been claimed for processing.
type Ledger interface {
	// Claim returns false when the event id was already claimed.
	Claim(ctx context.Context, eventID string) (bool, error)
	// Release forgets a claim so a redelivery is processed again.
	Release(ctx context.Context, eventID string) error
}

const (
	DefaultLedgerTTL      = 72 * time.Hour
	DefaultLedgerCapacity = 100_000
)

func (c LedgerConfig) withDefaults() LedgerConfig {
	if c.TTL <= 0 {
		c.TTL = DefaultLedgerTTL
	}
	if c.Capacity <= 0 {
		c.Capacity = DefaultLedgerCapacity
	}
	return c
}

// MemoryLedger keeps claims in process. Claims are lost on restart and not
// shared between replicas.
type MemoryLedger struct {
	mu   sync.Mutex
	seen *cache.LRU[string, time.Time]
	now  func() time.Time
}

func NewMemoryLedger(cfg LedgerConfig, opts ...cache.Option[string, time.Time]) *MemoryLedger {
	cfg = cfg.withDefaults()
	return &MemoryLedger{
		seen: cache.NewLRU(cfg.Capacity, cfg.TTL, opts...),
		now:  time.Now,
	}
}

func (l *MemoryLedger) Claim(_ context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen.Get(eventID); ok {
		return false, nil
	}
	l.seen.Set(eventID, l.now())
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, eventID string) error {
	l.seen.Delete(eventID)
	return nil
}

// RedisLedger shares claims between replicas with SET NX.
type RedisLedger struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLedger(client redis.UniversalClient, cfg LedgerConfig) *RedisLedger {
	return &RedisLedger{client: client, ttl: cfg.withDefaults().TTL}
}

func ledgerKey(eventID string) string { return "billing:event:" + eventID }

func (l *RedisLedger) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, ledgerKey(eventID), time.Now().Unix(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim event %s: %w", eventID, err)
	}
	return ok, nil
}

func (l *RedisLedger) Release(ctx context.Context, eventID string) error {
	if err := l.client.Del(ctx, ledgerKey(eventID)).Err(); err != nil {
		return fmt.Errorf("release event %s: %w", eventID, err)
	}
	return nil
}
