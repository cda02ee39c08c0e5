package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/t333watch/t333watch/db"
	"github.com/t333watch/t333watch/handler"
	"github.com/t333watch/t333watch/modules/account"
	billingmod "github.com/t333watch/t333watch/modules/billing"
	"github.com/t333watch/t333watch/modules/packs"
	"github.com/t333watch/t333watch/pkg/clientip"
	"github.com/t333watch/t333watch/pkg/email"
	"github.com/t333watch/t333watch/pkg/httpserver"
	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/pkg/pg"
	"github.com/t333watch/t333watch/pkg/ratelimit"
	"github.com/t333watch/t333watch/pkg/redis"
	"github.com/t333watch/t333watch/pkg/requestid"
	"github.com/t333watch/t333watch/svc/analytics"
	"github.com/t333watch/t333watch/svc/billing"
	"github.com/t333watch/t333watch/svc/pack"
	"github.com/t333watch/t333watch/svc/premium"
	"github.com/t333watch/t333watch/svc/user"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	app, err := load[appConfig]("app")
	if err != nil {
		return err
	}
	log := newLogger(app.Env)

	pgCfg, err := load[pg.Config]("postgres")
	if err != nil {
		return err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if pgCfg.AutoMigrate {
		if err := pg.Migrate(ctx, pool, db.Migrations(), pgCfg, log); err != nil {
			return err
		}
	}
	probes := []httpserver.Probe{{Name: "postgres", Check: pg.Healthcheck(pool)}}

	redisCfg, err := load[redis.Config]("redis")
	if err != nil {
		return err
	}
	var rdb goredis.UniversalClient
	if redisCfg.Enabled() {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		rdb = client
		probes = append(probes, httpserver.Probe{Name: "redis", Check: redis.Healthcheck(client)})
	} else {
		log.WarnContext(ctx, "REDIS_URL not set, using in-process premium cache and event ledger")
	}

	users := user.NewPGStore(pool)

	premiumCfg, err := load[premium.Config]("premium")
	if err != nil {
		return err
	}
	tiers, err := loadTiers(app.TiersFile)
	if err != nil {
		return err
	}
	var premiumCache premium.Cache
	if rdb != nil {
		premiumCache = premium.NewRedisCache(rdb, users, premiumCfg, log.With(logger.Component("premium")))
	} else {
		premiumCache = premium.NewMemoryCache(users, premiumCfg)
	}

	analyticsOpts, err := load[analytics.AsyncOptions]("analytics")
	if err != nil {
		return err
	}
	recorder := analytics.NewAsyncRecorder(analytics.NewPGWriter(pool), log, analyticsOpts)

	emailCfg, err := load[email.Config]("email")
	if err != nil {
		return err
	}
	sender, err := email.New(emailCfg, log.With(logger.Component("email")))
	if err != nil {
		return fmt.Errorf("email sender: %w", err)
	}
	notifier := billing.NewEmailNotifier(sender, log)

	billingAPI, reconciler, providerName, err := newBilling(rdb, users, premiumCache, tiers, recorder, notifier, log)
	if err != nil {
		return err
	}

	authSvc, err := newAuth(users, log)
	if err != nil {
		return err
	}

	packCfg, err := load[pack.Config]("pack")
	if err != nil {
		return err
	}
	packSvc := pack.NewService(pack.NewPGStore(pool), premiumCache, tiers, packCfg, pack.WithLogger(log))

	ips := clientip.Resolver{TrustProxy: app.TrustProxy}
	loginLimiter := ratelimit.New(ratelimit.Config{Every: app.LoginRateEvery, Burst: app.LoginRateBurst})
	billingLimiter := ratelimit.New(ratelimit.Config{Every: app.BillingRateEvery, Burst: app.BillingRateBurst})

	login := account.NewTwitchLogin(authSvc, log)
	billingRoutes := billingmod.New(billingAPI, reconciler, billingmod.Options{
		Provider:    providerName,
		RequireUser: authSvc.RequireUser,
		Limiter:     billingLimiter,
		Logger:      log,
	})
	packRoutes := packs.New(packSvc, packs.Options{
		RequireUser:  authSvc.RequireUser,
		OptionalUser: authSvc.OptionalUser,
		Logger:       log,
	})

	r := chi.NewRouter()
	r.Use(requestid.Middleware, ips.Middleware)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, probes...))
	r.Mount("/auth", account.Router(account.RouterOptions{
		Twitch: login,
		Logout: login.Logout(),
		Middleware: []func(http.Handler) http.Handler{
			ratelimit.Middleware(loginLimiter, func(r *http.Request) string {
				return clientip.FromContext(r.Context())
			}, func(w http.ResponseWriter, r *http.Request) {
				handler.WriteError(w, r, handler.ErrTooManyRequests.WithMessage("Too many login attempts, try again later"))
			}),
		},
	}))
	r.Route("/api", func(api chi.Router) {
		billingRoutes.Routes(api)
		api.With(authSvc.RequireUser).Method(http.MethodGet, "/me", account.Me())
		api.Mount("/packs", packRoutes.Handle())
	})

	httpCfg, err := load[httpserver.Config]("http")
	if err != nil {
		return err
	}
	srv := httpserver.New(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithShutdownHook("analytics", recorder.Close),
		httpserver.WithShutdownHook("email", notifier.Wait),
	)
	return srv.Run(ctx, r)
}
