package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/svc/analytics"
	"github.com/t333watch/t333watch/svc/premium"
	"github.com/t333watch/t333watch/svc/user"
)

// Service implements the user initiated billing actions.
type Service struct {
	provider Provider
	users    user.Store
	cache    premium.Cache
	cfg      Config
	options
}

func NewService(provider Provider, users user.Store, cache premium.Cache, cfg Config, opts ...Option) *Service {
	if provider == nil {
		panic("billing: provider is required")
	}
	if users == nil {
		panic("billing: user store is required")
	}
	if cache == nil {
		panic("billing: premium cache is required")
	}
	return &Service{
		provider: provider,
		users:    users,
		cache:    cache,
		cfg:      cfg,
		options:  newOptions("billing", opts),
	}
}

// CreateCheckoutSession starts a hosted checkout for plan. A billing customer
// is created and linked to the user on first use.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, plan Plan) (*CheckoutSession, error) {
	priceID, err := s.provider.PriceID(plan)
	if err != nil {
		return nil, err
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	isPremium, err := s.cache.Get(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("check premium status: %w", err)
	}
	if isPremium {
		return nil, ErrAlreadyPremium
	}

	customerID, err := s.ensureCustomer(ctx, u)
	if err != nil {
		return nil, err
	}

	sess, err := s.provider.CreateCheckout(ctx, CheckoutRequest{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
		Metadata: map[string]string{
			MetaUserID:   u.ID.String(),
			MetaTwitchID: u.TwitchID,
			MetaPlan:     string(plan),
		},
	})
	if err != nil {
		return nil, err
	}

	s.analytics.Record(ctx, analytics.New(analytics.CategoryFunnel, analytics.FunnelCheckoutStart, u.ID, map[string]any{
		"plan":       string(plan),
		"price_id":   priceID,
		"session_id": sess.ID,
	}))
	return sess, nil
}

func (s *Service) ensureCustomer(ctx context.Context, u user.User) (string, error) {
	if u.HasCustomer() {
		return u.CustomerID, nil
	}
	customerID, err := s.provider.CreateCustomer(ctx, CustomerRequest{
		UserID:   u.ID,
		TwitchID: u.TwitchID,
		Email:    u.Email,
		Name:     u.DisplayName,
	})
	if err != nil {
		return "", err
	}
	if err := s.users.SetCustomerID(ctx, u.ID, customerID); err != nil {
		return "", fmt.Errorf("link billing customer: %w", err)
	}
	s.log.InfoContext(ctx, "billing customer created", logger.UserID(u.ID), logger.CustomerID(customerID))
	return customerID, nil
}

type CancelRequest struct {
	Feedback  string
	Reason    string
	Immediate bool
}

// Cancellation summarizes a successful cancel. AccessUntil is zero when
// access ended immediately or the provider reported no period end.
type Cancellation struct {
	Subscriptions []Subscription
	Immediate     bool
	AccessUntil   time.Time
	Message       string
}

// CancelSubscription cancels every active subscription of the user. With
// Immediate the premium flag is cleared right away; otherwise access lasts
// until the period ends and the provider's deletion event clears it.
func (s *Service) CancelSubscription(ctx context.Context, userID uuid.UUID, req CancelRequest) (*Cancellation, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.HasCustomer() {
		return nil, ErrNoActiveSubscription
	}

	active, err := s.provider.ActiveSubscriptions(ctx, u.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNoActiveSubscription
	}

	out := &Cancellation{Immediate: req.Immediate}
	for _, sub := range active {
		canceled, err := s.provider.CancelSubscription(ctx, sub.ID, req.Immediate)
		if err != nil {
			if len(out.Subscriptions) > 0 {
				s.log.ErrorContext(ctx, "subscription cancel partially applied",
					logger.UserID(u.ID), slog.String("subscription_id", sub.ID), logger.Error(err))
			}
			return nil, err
		}
		if canceled.CurrentPeriodEnd.After(out.AccessUntil) {
			out.AccessUntil = canceled.CurrentPeriodEnd
		}
		out.Subscriptions = append(out.Subscriptions, *canceled)
	}

	if req.Immediate {
		if err := s.users.SetPremium(ctx, u.ID, false); err != nil {
			return nil, fmt.Errorf("deactivate premium: %w", err)
		}
		s.invalidate(ctx, s.cache, u.ID)
		out.AccessUntil = time.Time{}
	}
	out.Message = cancellationMessage(req.Immediate, out.AccessUntil)

	s.log.InfoContext(ctx, "subscription canceled", logger.UserID(u.ID), slog.Bool("immediate", req.Immediate))
	s.analytics.Record(ctx, analytics.New(analytics.CategorySubscription, analytics.SubscriptionCanceled, u.ID, map[string]any{
		"source":    "user",
		"immediate": req.Immediate,
		"reason":    req.Reason,
		"feedback":  req.Feedback,
	}))
	s.analytics.Record(ctx, analytics.New(analytics.CategoryRetention, analytics.RetentionChurn, u.ID, map[string]any{
		"reason":       req.Reason,
		"access_until": out.AccessUntil,
	}))
	s.notifier.SubscriptionCanceled(ctx, u, out.Message)
	return out, nil
}

func cancellationMessage(immediate bool, until time.Time) string {
	switch {
	case immediate:
		return "Your subscription has been cancelled and your premium access has ended."
	case until.IsZero():
		return "Your subscription has been cancelled. You will keep premium access until the end of the current billing period."
	default:
		return fmt.Sprintf("Your subscription has been cancelled. You will keep premium access until %s.", until.Format("January 2, 2006"))
	}
}

type Verification struct {
	IsPremium bool
	User      user.User
	Features  premium.Features
}

// Verify reports the user's premium status through the cache. With refresh
// the flag is first reconciled against the provider.
func (s *Service) Verify(ctx context.Context, userID uuid.UUID, refresh bool) (*Verification, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if refresh {
		if u, err = s.Reconcile(ctx, u); err != nil {
			return nil, err
		}
	}

	isPremium, err := s.cache.Get(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("check premium status: %w", err)
	}
	return &Verification{
		IsPremium: isPremium,
		User:      u,
		Features:  s.tiers.For(isPremium),
	}, nil
}

// Reconcile sets the premium flag from the provider's active subscriptions
// and drops the cached status. Users without a billing customer are never
// premium.
func (s *Service) Reconcile(ctx context.Context, u user.User) (user.User, error) {
	want := false
	if u.HasCustomer() {
		active, err := s.provider.ActiveSubscriptions(ctx, u.CustomerID)
		if err != nil {
			return u, err
		}
		want = len(active) > 0
	}

	if want != u.PremiumFlag {
		if err := s.users.SetPremium(ctx, u.ID, want); err != nil {
			return u, fmt.Errorf("correct premium flag: %w", err)
		}
		s.log.WarnContext(ctx, "premium flag drift corrected",
			logger.UserID(u.ID), slog.Bool("was", u.PremiumFlag), slog.Bool("now", want))
		u.PremiumFlag = want
	}
	s.invalidate(ctx, s.cache, u.ID)
	return u, nil
}

func (s *Service) user(ctx context.Context, id uuid.UUID) (user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, errors.Join(ErrUserNotFound, err)
		}
		return user.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}
