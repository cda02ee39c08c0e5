package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/svc/analytics"
	"github.com/t333watch/t333watch/svc/premium"
	"github.com/t333watch/t333watch/svc/user"
)

// Result tells the caller what happened to an accepted delivery.
type Result string

const (
	ResultProcessed Result = "processed"
	ResultDuplicate Result = "duplicate"
	ResultIgnored   Result = "ignored"
)

// Reconciler applies verified webhook events to the user store.
type Reconciler struct {
	parser WebhookParser
	users  user.Store
	cache  premium.Cache
	ledger Ledger
	options
}

func NewReconciler(parser WebhookParser, users user.Store, cache premium.Cache, ledger Ledger, opts ...Option) *Reconciler {
	if parser == nil {
		panic("billing: webhook parser is required")
	}
	if users == nil {
		panic("billing: user store is required")
	}
	if cache == nil {
		panic("billing: premium cache is required")
	}
	if ledger == nil {
		panic("billing: event ledger is required")
	}
	return &Reconciler{
		parser:  parser,
		users:   users,
		cache:   cache,
		ledger:  ledger,
		options: newOptions("billing.reconciler", opts),
	}
}

func (r *Reconciler) SignatureHeader() string { return r.parser.SignatureHeader() }

// HandleWebhook verifies and applies one delivery. Nothing is mutated when
// the signature is invalid. Unknown event types are acknowledged.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) (Result, error) {
	ev, err := r.parser.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return "", err
	}

	log := r.log.With(logger.EventID(ev.ID), logger.EventType(ev.ProviderEvent))
	if !ev.Type.Known() {
		log.DebugContext(ctx, "webhook event ignored")
		return ResultIgnored, nil
	}

	claimed, err := r.ledger.Claim(ctx, ev.ID)
	switch {
	case err != nil:
		// Handlers converge on the same flag value, so a redelivery only
		// duplicates analytics.
		log.WarnContext(ctx, "event ledger unavailable, processing without deduplication", logger.Error(err))
	case !claimed:
		log.InfoContext(ctx, "duplicate webhook delivery acknowledged")
		return ResultDuplicate, nil
	}

	if err := r.dispatch(ctx, log, ev); err != nil {
		if rerr := r.ledger.Release(context.WithoutCancel(ctx), ev.ID); rerr != nil {
			log.WarnContext(ctx, "release event claim", logger.Error(rerr))
		}
		return "", err
	}
	log.InfoContext(ctx, "webhook event processed")
	return ResultProcessed, nil
}

func (r *Reconciler) dispatch(ctx context.Context, log *slog.Logger, ev *WebhookEvent) error {
	switch ev.Type {
	case EventCheckoutCompleted:
		return r.checkoutCompleted(ctx, log, ev)
	case EventSubscriptionDeleted:
		return r.subscriptionDeleted(ctx, log, ev)
	case EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		return r.invoicePayment(ctx, log, ev)
	}
	return nil
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, log *slog.Logger, ev *WebhookEvent) error {
	rawID, twitchID := ev.Metadata[MetaUserID], ev.Metadata[MetaTwitchID]
	if rawID == "" || twitchID == "" {
		return fmt.Errorf("%w: %s and %s are required", ErrMissingMetadata, MetaUserID, MetaTwitchID)
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("%w: %s %q is not a valid id", ErrInvalidMetadata, MetaUserID, rawID)
	}

	u, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errors.Join(ErrUserNotFound, err)
		}
		return fmt.Errorf("load user: %w", err)
	}
	if u.TwitchID != twitchID {
		return fmt.Errorf("%w: %s does not belong to user %s", ErrInvalidMetadata, MetaTwitchID, u.ID)
	}

	if ev.CustomerID != "" && ev.CustomerID != u.CustomerID {
		if u.HasCustomer() {
			log.WarnContext(ctx, "checkout customer differs from linked customer",
				logger.UserID(u.ID), logger.CustomerID(ev.CustomerID), slog.String("linked_customer_id", u.CustomerID))
		} else if err := r.users.SetCustomerID(ctx, u.ID, ev.CustomerID); err != nil {
			return fmt.Errorf("link billing customer: %w", err)
		}
	}

	if err := r.users.SetPremium(ctx, u.ID, true); err != nil {
		return fmt.Errorf("activate premium: %w", err)
	}
	r.invalidate(ctx, r.cache, u.ID)
	log.InfoContext(ctx, "premium activated", logger.UserID(u.ID))

	plan := ev.Metadata[MetaPlan]
	props := map[string]any{
		"plan":            plan,
		"amount_cents":    ev.AmountCents,
		"currency":        ev.Currency,
		"subscription_id": ev.SubscriptionID,
	}
	r.analytics.Record(ctx, analytics.New(analytics.CategorySubscription, analytics.SubscriptionCreated, u.ID, props).WithRef(ev.ID))
	r.analytics.Record(ctx, analytics.New(analytics.CategoryFunnel, analytics.FunnelPurchase, u.ID, props).WithRef(ev.ID))
	r.analytics.Record(ctx, analytics.New(analytics.CategoryRetention, analytics.RetentionInit, u.ID, map[string]any{
		"plan":       plan,
		"started_at": ev.OccurredAt,
	}).WithRef(ev.ID))
	r.notifier.PremiumActivated(ctx, u, plan)
	return nil
}

func (r *Reconciler) subscriptionDeleted(ctx context.Context, log *slog.Logger, ev *WebhookEvent) error {
	u, err := r.userByCustomer(ctx, ev.CustomerID)
	if err != nil {
		return err
	}

	if err := r.users.SetPremium(ctx, u.ID, false); err != nil {
		return fmt.Errorf("deactivate premium: %w", err)
	}
	r.invalidate(ctx, r.cache, u.ID)
	log.InfoContext(ctx, "premium deactivated", logger.UserID(u.ID), logger.CustomerID(ev.CustomerID))

	r.analytics.Record(ctx, analytics.New(analytics.CategorySubscription, analytics.SubscriptionCanceled, u.ID, map[string]any{
		"subscription_id": ev.SubscriptionID,
		"source":          "webhook",
	}).WithRef(ev.ID))
	return nil
}

// invoicePayment only records analytics; the flag follows subscription
// lifecycle events.
func (r *Reconciler) invoicePayment(ctx context.Context, log *slog.Logger, ev *WebhookEvent) error {
	u, err := r.userByCustomer(ctx, ev.CustomerID)
	if errors.Is(err, ErrCustomerNotFound) {
		log.InfoContext(ctx, "invoice for unknown customer", logger.CustomerID(ev.CustomerID))
		return nil
	}
	if err != nil {
		return err
	}

	name := analytics.PaymentSucceeded
	if ev.Type == EventInvoicePaymentFailed {
		name = analytics.PaymentFailed
	}
	r.analytics.Record(ctx, analytics.New(analytics.CategoryPayment, name, u.ID, map[string]any{
		"amount_cents":    ev.AmountCents,
		"currency":        ev.Currency,
		"attempt_count":   ev.AttemptCount,
		"subscription_id": ev.SubscriptionID,
	}).WithRef(ev.ID))
	return nil
}

func (r *Reconciler) userByCustomer(ctx context.Context, customerID string) (user.User, error) {
	if customerID == "" {
		return user.User{}, fmt.Errorf("%w: customer id is missing", ErrCustomerNotFound)
	}
	u, err := r.users.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, errors.Join(ErrCustomerNotFound, err)
		}
		return user.User{}, fmt.Errorf("load user by customer: %w", err)
	}
	return u, nil
}
