package cookie

import (
	"net/http"
	"time"
)

type options struct {
	path     string
	domain   string
	maxAge   time.Duration
	secure   bool
	sameSite http.SameSite
}

type Option func(*options)

func WithMaxAge(d time.Duration) Option {
	return func(o *options) { o.maxAge = d }
}

func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

func WithSameSite(s http.SameSite) Option {
	return func(o *options) { o.sameSite = s }
}
