package billing

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/svc/analytics"
	"github.com/t333watch/t333watch/svc/premium"
)

// Option configures a Service or a Reconciler.
type Option func(*options)

type options struct {
	analytics analytics.Recorder
	notifier  Notifier
	tiers     premium.Tiers
	log       *slog.Logger
}

func WithAnalytics(r analytics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.analytics = r
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithTiers replaces the feature tiers returned by Service.Verify.
func WithTiers(t premium.Tiers) Option {
	return func(o *options) { o.tiers = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func newOptions(component string, opts []Option) options {
	o := options{
		analytics: analytics.Nop{},
		notifier:  nopNotifier{},
		tiers:     premium.DefaultTiers(),
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.With(logger.Component(component))
	return o
}

// invalidate drops the cached premium status. A failure leaves the entry
// stale until its TTL runs out, so it is logged rather than returned.
func (o options) invalidate(ctx context.Context, c premium.Cache, userID uuid.UUID) {
	if err := c.Invalidate(ctx, userID); err != nil {
		o.log.ErrorContext(ctx, "premium cache invalidation failed", logger.UserID(userID), logger.Error(err))
	}
}
