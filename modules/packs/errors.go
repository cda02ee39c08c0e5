package packs

import (
	"errors"
	"net/http"

	"github.com/t333watch/t333watch/handler"
	"github.com/t333watch/t333watch/svc/pack"
)

var (
	errPremiumRequired = handler.NewHTTPError(http.StatusPaymentRequired, "premium_required")
	errLimitReached    = handler.NewHTTPError(http.StatusForbidden, "limit_reached")
)

func httpError(err error) error {
	switch {
	case errors.Is(err, pack.ErrNotFound):
		return errors.Join(handler.ErrNotFound.WithMessage("Pack not found"), err)
	case errors.Is(err, pack.ErrStreamNotFound):
		return errors.Join(handler.ErrNotFound.WithMessage("Stream not found"), err)
	case errors.Is(err, pack.ErrUnauthenticated):
		return errors.Join(handler.ErrUnauthorized.WithMessage("Authentication required"), err)
	case errors.Is(err, pack.ErrForbidden):
		return errors.Join(handler.ErrForbidden.WithMessage("You can only change your own packs"), err)
	case errors.Is(err, pack.ErrPremiumRequired):
		return errors.Join(errPremiumRequired.WithMessage("This feature requires premium"), err)
	case errors.Is(err, pack.ErrLimitReached):
		return errors.Join(errLimitReached.WithMessage("Your plan limit has been reached"), err)
	case errors.Is(err, pack.ErrInvalidOrder):
		return errors.Join(handler.ErrBadRequest.WithMessage("Order must list every stream of the pack exactly once"), err)
	}
	return err
}
