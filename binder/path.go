package binder

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Path binds fields tagged `path:"name"` from chi URL parameters.
func Path() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindFields(v, "path", func(name string) string {
			return chi.URLParam(r, name)
		}, ErrInvalidPath)
	}
}
