package analytics

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategorySubscription Category = "subscription"
	CategoryFunnel       Category = "funnel"
	CategoryRetention    Category = "retention"
	CategoryPayment      Category = "payment"
)

// Event names.
const (
	SubscriptionCreated  = "subscription_created"
	SubscriptionCanceled = "subscription_canceled"
	FunnelCheckoutStart  = "checkout_started"
	FunnelPurchase       = "complete_purchase"
	RetentionInit        = "retention_init"
	RetentionChurn       = "retention_churn"
	PaymentSucceeded     = "payment_succeeded"
	PaymentFailed        = "payment_failed"
)

// Event is one analytics fact. Ref carries the billing event id when the fact
// came from a webhook, so duplicates can be collapsed when aggregating.
type Event struct {
	ID         uuid.UUID
	Name       string
	Category   Category
	UserID     uuid.UUID
	Ref        string
	Properties map[string]any
	OccurredAt time.Time
}

// New fills in the id and timestamp.
func New(category Category, name string, userID uuid.UUID, props map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Name:       name,
		Category:   category,
		UserID:     userID,
		Properties: props,
		OccurredAt: time.Now().UTC(),
	}
}

// WithRef returns a copy referencing a billing event.
func (e Event) WithRef(ref string) Event {
	e.Ref = ref
	return e
}
