package cookie

import "errors"

var (
	ErrNoSecret       = errors.New("cookie.no_secret")
	ErrSecretTooShort = errors.New("cookie.secret_too_short")
	ErrCookieNotFound = errors.New("cookie.not_found")
	ErrInvalidCookie  = errors.New("cookie.invalid")
	ErrEncodeFailed   = errors.New("cookie.encode_failed")
)
