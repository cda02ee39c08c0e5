package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/t333watch/t333watch/pkg/config"
	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/pkg/requestid"
	"github.com/t333watch/t333watch/svc/premium"
)

type appConfig struct {
	Env string `env:"APP_ENV" envDefault:"development"`
	// TrustProxy honours forwarding headers when resolving client IPs.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`
	// TiersFile overrides the embedded feature tiers.
	TiersFile string `env:"PREMIUM_TIERS_FILE"`

	BillingRateEvery time.Duration `env:"BILLING_RATE_EVERY" envDefault:"10s"`
	BillingRateBurst int           `env:"BILLING_RATE_BURST" envDefault:"5"`
	LoginRateEvery   time.Duration `env:"LOGIN_RATE_EVERY" envDefault:"6s"`
	LoginRateBurst   int           `env:"LOGIN_RATE_BURST" envDefault:"10"`
}

// load parses one config struct and names it in the error.
func load[T any](name string) (T, error) {
	var v T
	if err := config.Load(&v); err != nil {
		return v, fmt.Errorf("load %s config: %w", name, err)
	}
	return v, nil
}

func newLogger(env string) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(env, "t333watch"),
		logger.WithOutput(os.Stdout),
		logger.WithContextExtractors(requestid.LogExtractor),
	)
}

func loadTiers(path string) (premium.Tiers, error) {
	if path == "" {
		return premium.DefaultTiers(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return premium.Tiers{}, fmt.Errorf("read tiers file: %w", err)
	}
	return premium.ParseTiers(data)
}
