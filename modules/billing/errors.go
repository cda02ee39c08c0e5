package billing

import (
	"errors"

	"github.com/t333watch/t333watch/handler"
	"github.com/t333watch/t333watch/svc/billing"
)

// httpError classifies service errors for the JSON error envelope.
func httpError(err error) error {
	var perr *billing.ProviderError
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		return errors.Join(handler.ErrBadRequest.WithMessage("Invalid webhook signature"), err)
	case errors.Is(err, billing.ErrMalformedEvent):
		return errors.Join(handler.ErrBadRequest.WithMessage("Malformed webhook event"), err)
	case errors.Is(err, billing.ErrMissingMetadata), errors.Is(err, billing.ErrInvalidMetadata):
		return errors.Join(handler.ErrBadRequest.WithMessage("Webhook event metadata is missing or invalid"), err)
	case errors.Is(err, billing.ErrInvalidPlan):
		return errors.Join(handler.ErrBadRequest.WithMessage("Plan must be monthly or yearly"), err)
	case errors.Is(err, billing.ErrCustomerNotFound):
		return errors.Join(handler.ErrNotFound.WithMessage("No user for this billing customer"), err)
	case errors.Is(err, billing.ErrUserNotFound):
		return errors.Join(handler.ErrNotFound.WithMessage("User not found"), err)
	case errors.Is(err, billing.ErrNoActiveSubscription):
		return errors.Join(handler.ErrNotFound.WithMessage("No active subscription found"), err)
	case errors.Is(err, billing.ErrAlreadyPremium):
		return errors.Join(handler.ErrConflict.WithMessage("You already have an active premium subscription"), err)
	case errors.As(err, &perr) && perr.Rejected():
		msg := perr.Message
		if msg == "" {
			msg = "The payment provider rejected the request"
		}
		return errors.Join(handler.ErrBadRequest.WithMessage(msg), err)
	case errors.Is(err, billing.ErrProviderError), errors.Is(err, billing.ErrNoCheckoutURL):
		return errors.Join(handler.ErrBadGateway, err)
	}
	return err
}
