package premium

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/t333watch/t333watch/svc/user"
)

// DefaultTTL bounds how long a cancelled subscriber can keep premium access
// when an invalidation is lost.
const DefaultTTL = 5 * time.Minute

// Cache is the Premium Status Cache. Get returns the cached flag or loads it
// from the user store; Invalidate drops the entry so the next Get reloads.
type Cache interface {
	Get(ctx context.Context, userID uuid.UUID) (bool, error)
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// UserReader is the part of user.Store the cache loads from.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
}

type Config struct {
	TTL      time.Duration `env:"PREMIUM_CACHE_TTL" envDefault:"5m"`
	Capacity int           `env:"PREMIUM_CACHE_CAPACITY" envDefault:"50000"`
}

func (c Config) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultTTL
	}
	return c.TTL
}
