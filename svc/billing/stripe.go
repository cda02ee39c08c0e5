package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProvider implements Provider for Stripe.
type StripeProvider struct {
	api    *client.API
	secret string
	prices Prices
}

type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backends *stripe.Backends
}

// WithStripeBackends points the client at custom backends, for tests.
func WithStripeBackends(b *stripe.Backends) StripeOption {
	return func(o *stripeOptions) { o.backends = b }
}

func NewStripeProvider(cfg StripeConfig, opts ...StripeOption) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	var o stripeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &StripeProvider{
		api:    client.New(cfg.SecretKey, o.backends),
		secret: cfg.WebhookSecret,
		prices: Prices{Monthly: cfg.PriceMonthly, Yearly: cfg.PriceYearly},
	}, nil
}

func (p *StripeProvider) Name() string { return ProviderStripe }

func (p *StripeProvider) SignatureHeader() string { return "Stripe-Signature" }

func (p *StripeProvider) PriceID(plan Plan) (string, error) { return p.prices.For(plan) }

func (p *StripeProvider) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	if req.Name != "" {
		params.Name = stripe.String(req.Name)
	}
	params.AddMetadata(MetaUserID, req.UserID.String())
	params.AddMetadata(MetaTwitchID, req.TwitchID)

	c, err := p.api.Customers.New(params)
	if err != nil {
		return "", stripeError("create customer", err)
	}
	return c.ID, nil
}

func (p *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		},
	}
	params.Context = ctx
	if id := req.Metadata[MetaUserID]; id != "" {
		params.ClientReferenceID = stripe.String(id)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, stripeError("create checkout session", err)
	}
	if s.URL == "" {
		return nil, ErrNoCheckoutURL
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) ActiveSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	params := &stripe.SubscriptionListParams{Customer: stripe.String(customerID)}
	params.Context = ctx

	var subs []Subscription
	it := p.api.Subscriptions.List(params)
	for it.Next() {
		s := it.Subscription()
		if grantsAccess(string(s.Status)) {
			subs = append(subs, stripeSubscription(s))
		}
	}
	if err := it.Err(); err != nil {
		return nil, stripeError("list subscriptions", err)
	}
	return subs, nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string, immediate bool) (*Subscription, error) {
	var (
		s   *stripe.Subscription
		err error
	)
	if immediate {
		params := &stripe.SubscriptionCancelParams{}
		params.Context = ctx
		s, err = p.api.Subscriptions.Cancel(subscriptionID, params)
	} else {
		params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
		params.Context = ctx
		s, err = p.api.Subscriptions.Update(subscriptionID, params)
	}
	if err != nil {
		return nil, stripeError("cancel subscription", err)
	}
	sub := stripeSubscription(s)
	return &sub, nil
}

func (p *StripeProvider) ParseWebhook(_ context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if ev.ID == "" {
		return nil, fmt.Errorf("%w: event id is missing", ErrMalformedEvent)
	}

	out := &WebhookEvent{
		ID:            ev.ID,
		ProviderEvent: string(ev.Type),
		Type:          EventType(ev.Type),
		OccurredAt:    time.Unix(ev.Created, 0).UTC(),
	}
	if ev.Data == nil {
		return out, nil
	}

	switch ev.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		out.Type = EventCheckoutCompleted
		out.Metadata = cs.Metadata
		out.AmountCents = cs.AmountTotal
		out.Currency = string(cs.Currency)
		if cs.Customer != nil {
			out.CustomerID = cs.Customer.ID
		}
		if cs.Subscription != nil {
			out.SubscriptionID = cs.Subscription.ID
		}

	case "customer.subscription.deleted":
		var s stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		out.Type = EventSubscriptionDeleted
		out.SubscriptionID = s.ID
		out.Metadata = s.Metadata
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}

	case "invoice.payment_succeeded", "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		out.Type = EventInvoicePaymentSucceeded
		out.AmountCents = inv.AmountPaid
		if ev.Type == "invoice.payment_failed" {
			out.Type = EventInvoicePaymentFailed
			out.AmountCents = inv.AmountDue
		}
		out.Currency = string(inv.Currency)
		out.AttemptCount = inv.AttemptCount
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	}
	return out, nil
}

func stripeSubscription(s *stripe.Subscription) Subscription {
	sub := Subscription{
		ID:                s.ID,
		Status:            string(s.Status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
	if s.CurrentPeriodEnd > 0 {
		sub.CurrentPeriodEnd = time.Unix(s.CurrentPeriodEnd, 0).UTC()
	}
	if s.Customer != nil {
		sub.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		sub.PriceID = s.Items.Data[0].Price.ID
	}
	return sub
}

func stripeError(op string, err error) error {
	pe := &ProviderError{Provider: ProviderStripe, Op: op, Err: err}
	var se *stripe.Error
	if errors.As(err, &se) {
		pe.StatusCode = se.HTTPStatusCode
		pe.Message = se.Msg
	}
	return pe
}

// grantsAccess reports whether a provider subscription status still entitles
// the customer to premium. Past-due subscriptions keep access while the
// provider retries the payment.
func grantsAccess(status string) bool {
	switch status {
	case "active", "trialing", "past_due":
		return true
	}
	return false
}
