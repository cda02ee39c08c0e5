package redis

import "time"

// Config is optional: an empty ConnectionURL means callers fall back to
// in-process implementations.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"` // redis://:password@localhost:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// Enabled reports whether a Redis URL was configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
