package binder

import "net/http"

// Query binds fields tagged `query:"name"`.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		return bindFields(v, "query", q.Get, ErrInvalidQuery)
	}
}
