package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WebhookParser verifies and normalizes inbound provider events.
type WebhookParser interface {
	// SignatureHeader names the request header carrying the signature.
	SignatureHeader() string
	// ParseWebhook fails with ErrInvalidSignature before looking at the
	// payload when the signature does not verify.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// Provider is the payment provider client.
type Provider interface {
	WebhookParser

	Name() string
	PriceID(plan Plan) (string, error)
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ActiveSubscriptions lists subscriptions that still grant premium access,
	// including ones already scheduled to end at period end.
	ActiveSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)
	// CancelSubscription ends the subscription now, or at the end of the
	// current period when immediate is false.
	CancelSubscription(ctx context.Context, subscriptionID string, immediate bool) (*Subscription, error)
}

type CustomerRequest struct {
	UserID   uuid.UUID
	TwitchID string
	Email    string
	Name     string
}

type CheckoutRequest struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type Subscription struct {
	ID                string
	CustomerID        string
	Status            string
	PriceID           string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
}

// EventType is the normalized billing event type.
type EventType string

const (
	EventCheckoutCompleted       EventType = "checkout_completed"
	EventSubscriptionDeleted     EventType = "subscription_deleted"
	EventInvoicePaymentSucceeded EventType = "invoice_payment_succeeded"
	EventInvoicePaymentFailed    EventType = "invoice_payment_failed"
)

// Known reports whether the reconciler acts on the type.
func (t EventType) Known() bool {
	switch t {
	case EventCheckoutCompleted, EventSubscriptionDeleted, EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		return true
	}
	return false
}

// Metadata keys attached to checkouts and read back from webhooks.
const (
	MetaUserID   = "user_id"
	MetaTwitchID = "twitch_id"
	MetaPlan     = "plan"
)

// WebhookEvent is a verified provider event. Unmapped provider events keep
// their provider name as Type.
type WebhookEvent struct {
	ID             string
	Type           EventType
	ProviderEvent  string
	CustomerID     string
	SubscriptionID string
	Metadata       map[string]string
	AmountCents    int64
	Currency       string
	AttemptCount   int64
	OccurredAt     time.Time
}
