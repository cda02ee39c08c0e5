package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

// KeyFunc returns the bucket key for a request. An empty key bypasses the
// limiter.
type KeyFunc func(r *http.Request) string

// RejectFunc writes the 429 response.
type RejectFunc func(w http.ResponseWriter, r *http.Request)

func Middleware(l *Limiter, key KeyFunc, reject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}
			if ok, wait := l.Allow(k); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
				reject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
