package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/t333watch/t333watch/pkg/cache"
)

type Config struct {
	// Every is the interval at which one token is added back.
	Every time.Duration
	Burst int
	// MaxKeys bounds memory; the least recently seen keys are forgotten.
	MaxKeys int
}

// Limiter keeps one token bucket per key.
type Limiter struct {
	cfg     Config
	mu      sync.Mutex
	buckets *cache.LRU[string, *rate.Limiter]
	now     func() time.Time
}

func New(cfg Config) *Limiter {
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10_000
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Limiter{
		cfg:     cfg,
		buckets: cache.NewLRU[string, *rate.Limiter](cfg.MaxKeys, 0),
		now:     time.Now,
	}
}

// Allow consumes a token for key. When the bucket is empty it returns false
// and how long the caller should wait.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	lim, ok := l.buckets.Get(key)
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.cfg.Every), l.cfg.Burst)
		l.buckets.Set(key, lim)
	}
	l.mu.Unlock()

	now := l.now()
	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, l.cfg.Every
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}
