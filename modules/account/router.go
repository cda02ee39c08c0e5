package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount in the account module.
// Each login provider is optional and mounted only when set.
type RouterOptions struct {
	Twitch Mountable
	// Logout ends the session. It is mounted at POST /logout.
	Logout http.Handler
	// Middleware runs before every route, e.g. a per-IP rate limiter.
	Middleware []func(http.Handler) http.Handler
}

// Router creates the /auth router.
//
// Example:
//
//	login := account.NewTwitchLogin(authSvc, log)
//
//	r := chi.NewRouter()
//	r.Mount("/auth", account.Router(account.RouterOptions{
//	    Twitch: login,
//	    Logout: login.Logout(),
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(opts.Middleware...)

	if opts.Twitch != nil {
		r.Mount("/twitch", opts.Twitch.Handle())
	}
	if opts.Logout != nil {
		r.Method(http.MethodPost, "/logout", opts.Logout)
	}
	return r
}
