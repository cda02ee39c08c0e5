package httpserver

import (
	"context"
	"log/slog"
)

type Option func(*Server)

// WithLogger sets the server logger. Discarded output by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithShutdownHook registers a callback that runs after the listener stops
// accepting requests. Hooks share the shutdown deadline and run in
// registration order; use them to drain background workers.
func WithShutdownHook(name string, h func(context.Context) error) Option {
	if h == nil {
		panic("httpserver: nil shutdown hook " + name)
	}
	return func(s *Server) {
		s.hooks = append(s.hooks, hook{name: name, fn: h})
	}
}
