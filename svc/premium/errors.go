package premium

import "errors"

var (
	ErrCacheUnavailable = errors.New("premium cache backend unavailable")
	ErrInvalidTiers     = errors.New("invalid feature tiers")
)
