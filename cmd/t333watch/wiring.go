package main

import (
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/t333watch/t333watch/pkg/cookie"
	"github.com/t333watch/t333watch/pkg/secrets"
	"github.com/t333watch/t333watch/svc/analytics"
	"github.com/t333watch/t333watch/svc/auth"
	"github.com/t333watch/t333watch/svc/billing"
	"github.com/t333watch/t333watch/svc/premium"
	"github.com/t333watch/t333watch/svc/user"
)

// newBilling builds the checkout service and webhook reconciler for the
// configured provider. rdb may be nil, in which case the event ledger is
// kept in process.
func newBilling(
	rdb goredis.UniversalClient,
	users user.Store,
	cache premium.Cache,
	tiers premium.Tiers,
	recorder analytics.Recorder,
	notifier billing.Notifier,
	log *slog.Logger,
) (*billing.Service, *billing.Reconciler, string, error) {
	cfg, err := load[billing.Config]("billing")
	if err != nil {
		return nil, nil, "", err
	}
	stripeCfg, err := load[billing.StripeConfig]("stripe")
	if err != nil {
		return nil, nil, "", err
	}
	paddleCfg, err := load[billing.PaddleConfig]("paddle")
	if err != nil {
		return nil, nil, "", err
	}
	provider, err := billing.NewProvider(cfg, stripeCfg, paddleCfg)
	if err != nil {
		return nil, nil, "", fmt.Errorf("billing provider: %w", err)
	}

	var ledger billing.Ledger
	if rdb != nil {
		ledger = billing.NewRedisLedger(rdb, cfg.Ledger)
	} else {
		ledger = billing.NewMemoryLedger(cfg.Ledger)
	}

	opts := []billing.Option{
		billing.WithAnalytics(recorder),
		billing.WithNotifier(notifier),
		billing.WithTiers(tiers),
		billing.WithLogger(log),
	}
	svc := billing.NewService(provider, users, cache, cfg, opts...)
	rec := billing.NewReconciler(provider, users, cache, ledger, opts...)
	return svc, rec, provider.Name(), nil
}

func newAuth(users user.Store, log *slog.Logger) (*auth.Service, error) {
	twitchCfg, err := load[auth.TwitchConfig]("twitch")
	if err != nil {
		return nil, err
	}
	sessionCfg, err := load[auth.SessionConfig]("session")
	if err != nil {
		return nil, err
	}
	cookieCfg, err := load[cookie.Config]("cookie")
	if err != nil {
		return nil, err
	}

	cookies, err := cookie.New(cookieCfg)
	if err != nil {
		return nil, fmt.Errorf("cookie manager: %w", err)
	}
	sealer, err := secrets.NewSealer(sessionCfg.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("token sealer: %w", err)
	}
	return auth.NewService(auth.NewTwitch(twitchCfg), users, cookies, sealer, sessionCfg, auth.WithLogger(log)), nil
}
