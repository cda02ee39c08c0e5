package billing

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Provider   string `env:"BILLING_PROVIDER" envDefault:"stripe"`
	SuccessURL string `env:"BILLING_SUCCESS_URL" envDefault:"http://localhost:3000/premium/success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL  string `env:"BILLING_CANCEL_URL" envDefault:"http://localhost:3000/premium"`
	Ledger     LedgerConfig
}

type LedgerConfig struct {
	TTL      time.Duration `env:"BILLING_EVENT_TTL" envDefault:"72h"`
	Capacity int           `env:"BILLING_EVENT_CAPACITY" envDefault:"100000"`
}

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	PriceMonthly  string `env:"STRIPE_PRICE_MONTHLY"`
	PriceYearly   string `env:"STRIPE_PRICE_YEARLY"`
}

type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	PriceMonthly  string `env:"PADDLE_PRICE_MONTHLY"`
	PriceYearly   string `env:"PADDLE_PRICE_YEARLY"`
}

// Provider names accepted by BILLING_PROVIDER.
const (
	ProviderStripe = "stripe"
	ProviderPaddle = "paddle"
)

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg Config, stripeCfg StripeConfig, paddleCfg PaddleConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderStripe, "":
		return NewStripeProvider(stripeCfg)
	case ProviderPaddle:
		return NewPaddleProvider(paddleCfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
