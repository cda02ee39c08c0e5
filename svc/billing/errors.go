package billing

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrMalformedEvent   = errors.New("malformed webhook event")
	ErrMissingMetadata  = errors.New("webhook event is missing required metadata")
	ErrInvalidMetadata  = errors.New("webhook event metadata does not match a user")
	ErrCustomerNotFound = errors.New("no user is linked to the billing customer")
	ErrUserNotFound     = errors.New("user not found")

	ErrInvalidPlan          = errors.New("invalid subscription plan")
	ErrAlreadyPremium       = errors.New("user already has an active premium subscription")
	ErrNoActiveSubscription = errors.New("no active subscription")

	ErrProviderError              = errors.New("billing provider error")
	ErrUnknownProvider            = errors.New("unknown billing provider")
	ErrMissingAPIKey              = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret       = errors.New("billing provider webhook secret is required")
	ErrInvalidProviderEnvironment = errors.New("invalid billing provider environment")
	ErrNoCheckoutURL              = errors.New("no checkout URL returned from provider")
)

// ProviderError describes a failed call to the payment provider. StatusCode
// is the provider's HTTP status when it answered, zero when the call never
// got a response. Message is safe to show to the user.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Provider, e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Op, msg)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProviderError, e.Err}
}

// Rejected reports whether the provider refused the request itself, as
// opposed to being unreachable or failing internally.
func (e *ProviderError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
