package auth

import (
	"errors"
	"net/http"

	"github.com/t333watch/t333watch/handler"
	"github.com/t333watch/t333watch/pkg/logger"
)

// RequireUser rejects requests without a valid session with 401.
func (s *Service) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.Authenticate(r)
		if err != nil {
			s.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// OptionalUser adds the user to the context when a valid session exists and
// passes anonymous requests through.
func (s *Service) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.Authenticate(r)
		switch {
		case err == nil:
			r = r.WithContext(WithUser(r.Context(), u))
		case errors.Is(err, ErrSessionExpired):
			s.Logout(w)
		case !errors.Is(err, ErrUnauthenticated):
			s.log.WarnContext(r.Context(), "optional session lookup failed", logger.Error(err))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) reject(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSessionExpired):
		s.Logout(w)
		handler.WriteError(w, r, errors.Join(handler.ErrUnauthorized.WithMessage("Session expired"), err))
	case errors.Is(err, ErrUnauthenticated):
		handler.WriteError(w, r, errors.Join(handler.ErrUnauthorized.WithMessage("Authentication required"), err))
	default:
		s.log.ErrorContext(r.Context(), "session lookup failed", logger.Error(err))
		handler.WriteError(w, r, err)
	}
}
