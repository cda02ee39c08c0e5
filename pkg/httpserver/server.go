package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/t333watch/t333watch/pkg/logger"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Server is an http.Server bound to process signals with ordered shutdown hooks.
type Server struct {
	cfg   Config
	log   *slog.Logger
	hooks []hook

	mu       sync.Mutex
	srv      *http.Server
	once     sync.Once
	listener net.Listener
}

func New(cfg Config, opts ...Option) *Server {
	s := &Server{cfg: cfg, log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the bound address once Run has started listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run serves handler until ctx is cancelled, SIGINT/SIGTERM arrives or the
// listener fails. A graceful shutdown is not reported as an error.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, err)
	}
	s.listener = ln
	s.srv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	srv := s.srv
	s.mu.Unlock()

	s.log.InfoContext(ctx, "http server listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "context cancelled, shutting down")
	case sig := <-stop:
		s.log.InfoContext(ctx, "signal received, shutting down", slog.String("signal", sig.String()))
	case runErr = <-errCh:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			return errors.Join(ErrStart, runErr)
		}
		return nil
	}

	if err := s.Shutdown(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	if runErr = <-errCh; runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, runErr)
	}
	return nil
}

// Shutdown stops accepting connections, waits for in-flight requests and then
// runs the shutdown hooks. Repeated calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		for _, h := range s.hooks {
			if err := h.fn(ctx); err != nil {
				s.log.ErrorContext(ctx, "shutdown hook failed", slog.String("hook", h.name), logger.Error(err))
				errs = append(errs, err)
			}
		}
		s.log.InfoContext(ctx, "http server stopped")
	})

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrShutdown}, errs...)...)
	}
	return nil
}
