package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/t333watch/t333watch/pkg/logger"
)

// Probe checks a single dependency.
type Probe struct {
	Name  string
	Check func(context.Context) error
}

// LivenessHandler always answers 200 ALIVE.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// ReadinessHandler runs every probe under a short deadline and answers
// 200 READY or 503 NOT_READY.
func ReadinessHandler(log *slog.Logger, probes ...Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		for _, p := range probes {
			if err := p.Check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", slog.String("probe", p.Name), logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
