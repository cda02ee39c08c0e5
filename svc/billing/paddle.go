package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleProvider implements Provider for Paddle Billing.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	prices   Prices
}

func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var (
		sdk *paddle.SDK
		err error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		sdk, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		sdk, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   sdk,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		prices:   Prices{Monthly: cfg.PriceMonthly, Yearly: cfg.PriceYearly},
	}, nil
}

func (p *PaddleProvider) Name() string { return ProviderPaddle }

func (p *PaddleProvider) SignatureHeader() string { return "Paddle-Signature" }

func (p *PaddleProvider) PriceID(plan Plan) (string, error) { return p.prices.For(plan) }

func (p *PaddleProvider) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	if req.Email == "" {
		return "", &ProviderError{
			Provider:   ProviderPaddle,
			Op:         "create customer",
			StatusCode: http.StatusBadRequest,
			Message:    "an email address is required to start a checkout",
		}
	}
	creq := &paddle.CreateCustomerRequest{
		Email: req.Email,
		CustomData: paddle.CustomData{
			MetaUserID:   req.UserID.String(),
			MetaTwitchID: req.TwitchID,
		},
	}
	if req.Name != "" {
		creq.Name = paddle.PtrTo(req.Name)
	}
	c, err := p.client.CustomersClient.CreateCustomer(ctx, creq)
	if err != nil {
		return "", paddleError("create customer", err)
	}
	return c.ID, nil
}

func (p *PaddleProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})
	custom := make(paddle.CustomData, len(req.Metadata))
	for k, v := range req.Metadata {
		custom[k] = v
	}
	treq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomerID: paddle.PtrTo(req.CustomerID),
		CustomData: custom,
	}
	if req.SuccessURL != "" {
		treq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	txn, err := p.client.TransactionsClient.CreateTransaction(ctx, treq)
	if err != nil {
		return nil, paddleError("create transaction", err)
	}
	if txn.Checkout == nil || txn.Checkout.URL == nil || *txn.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}
	return &CheckoutSession{ID: txn.ID, URL: *txn.Checkout.URL}, nil
}

func (p *PaddleProvider) ActiveSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	res, err := p.client.SubscriptionsClient.ListSubscriptions(ctx, &paddle.ListSubscriptionsRequest{
		CustomerID: []string{customerID},
		Status:     []string{"active", "trialing", "past_due"},
	})
	if err != nil {
		return nil, paddleError("list subscriptions", err)
	}

	var subs []Subscription
	err = res.Iter(ctx, func(s *paddle.Subscription) (bool, error) {
		if grantsAccess(string(s.Status)) {
			subs = append(subs, paddleSubscription(s))
		}
		return true, nil
	})
	if err != nil {
		return nil, paddleError("list subscriptions", err)
	}
	return subs, nil
}

func (p *PaddleProvider) CancelSubscription(ctx context.Context, subscriptionID string, immediate bool) (*Subscription, error) {
	effective := paddle.EffectiveFromNextBillingPeriod
	if immediate {
		effective = paddle.EffectiveFromImmediately
	}
	s, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: subscriptionID,
		EffectiveFrom:  paddle.PtrTo(effective),
	})
	if err != nil {
		return nil, paddleError("cancel subscription", err)
	}
	sub := paddleSubscription(s)
	return &sub, nil
}

// paddleNotification is the envelope of every Paddle webhook.
type paddleNotification struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type paddleEntity struct {
	ID             string            `json:"id"`
	CustomerID     string            `json:"customer_id"`
	SubscriptionID string            `json:"subscription_id"`
	Origin         string            `json:"origin"`
	CurrencyCode   string            `json:"currency_code"`
	CustomData     map[string]any    `json:"custom_data"`
	Payments       []json.RawMessage `json:"payments"`
	Details        *struct {
		Totals struct {
			GrandTotal string `json:"grand_total"`
		} `json:"totals"`
	} `json:"details"`
}

func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set(p.SignatureHeader(), signature)

	ok, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !ok {
		return nil, ErrInvalidSignature
	}

	var n paddleNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}
	if n.EventID == "" {
		return nil, fmt.Errorf("%w: event id is missing", ErrMalformedEvent)
	}

	out := &WebhookEvent{
		ID:            n.EventID,
		ProviderEvent: n.EventType,
		Type:          EventType(n.EventType),
		OccurredAt:    n.OccurredAt.UTC(),
	}

	var typ EventType
	switch n.EventType {
	case "transaction.completed":
		typ = EventInvoicePaymentSucceeded
	case "transaction.payment_failed":
		typ = EventInvoicePaymentFailed
	case "subscription.canceled":
		typ = EventSubscriptionDeleted
	default:
		return out, nil
	}

	var e paddleEntity
	if err := json.Unmarshal(n.Data, &e); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}
	out.Type = typ
	out.CustomerID = e.CustomerID
	out.SubscriptionID = e.SubscriptionID
	out.Currency = e.CurrencyCode
	out.Metadata = stringMetadata(e.CustomData)
	out.AttemptCount = int64(len(e.Payments))
	if typ == EventSubscriptionDeleted {
		out.SubscriptionID = e.ID
	}
	if e.Details != nil {
		out.AmountCents, _ = strconv.ParseInt(e.Details.Totals.GrandTotal, 10, 64)
	}
	// A completed checkout is the first transaction, created from our
	// checkout with user metadata; renewals originate from the subscription.
	if typ == EventInvoicePaymentSucceeded && e.Origin != "subscription_recurring" && out.Metadata[MetaUserID] != "" {
		out.Type = EventCheckoutCompleted
	}
	return out, nil
}

func paddleSubscription(s *paddle.Subscription) Subscription {
	sub := Subscription{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Status:     string(s.Status),
	}
	if s.CurrentBillingPeriod != nil {
		if t, err := time.Parse(time.RFC3339, s.CurrentBillingPeriod.EndsAt); err == nil {
			sub.CurrentPeriodEnd = t.UTC()
		}
	}
	if s.ScheduledChange != nil && string(s.ScheduledChange.Action) == "cancel" {
		sub.CancelAtPeriodEnd = true
	}
	if len(s.Items) > 0 {
		sub.PriceID = s.Items[0].Price.ID
	}
	return sub
}

func paddleError(op string, err error) error {
	return &ProviderError{Provider: ProviderPaddle, Op: op, Err: err}
}

func stringMetadata(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch v := v.(type) {
		case string:
			out[k] = v
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(v)
		}
	}
	return out
}
