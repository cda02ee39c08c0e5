// Package requestid tags every request with an id that is echoed in the
// response header and attached to log records.
package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const Header = "X-Request-ID"

// Incoming ids are accepted only when short and made of safe characters;
// anything else is replaced so it cannot pollute logs.
var acceptable = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

type ctxKey struct{}

func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !acceptable.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

// LogExtractor adds request_id to log records emitted with a request context.
func LogExtractor(ctx context.Context) (slog.Attr, bool) {
	if id := FromContext(ctx); id != "" {
		return slog.String("request_id", id), true
	}
	return slog.Attr{}, false
}
