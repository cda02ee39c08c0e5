package pack

import "errors"

var (
	ErrNotFound        = errors.New("pack not found")
	ErrStreamNotFound  = errors.New("stream not found in pack")
	ErrForbidden       = errors.New("not allowed to modify this pack")
	ErrUnauthenticated = errors.New("sign in required")
	ErrLimitReached    = errors.New("plan limit reached")
	ErrPremiumRequired = errors.New("premium required")
	ErrInvalidOrder    = errors.New("stream order must list every stream of the pack exactly once")
	ErrSlugTaken       = errors.New("share slug already in use")
	ErrStoreFailure    = errors.New("pack store failure")
)
