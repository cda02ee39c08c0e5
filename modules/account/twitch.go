package account

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/t333watch/t333watch/handler"
	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/svc/auth"
	"github.com/t333watch/t333watch/svc/user"
)

// Sessions is the part of auth.Service the login routes need.
type Sessions interface {
	Begin(w http.ResponseWriter) (string, error)
	Complete(w http.ResponseWriter, r *http.Request) (user.User, error)
	AfterLoginURL() string
	Logout(w http.ResponseWriter)
}

// TwitchLogin serves the Twitch OAuth redirect and callback.
type TwitchLogin struct {
	sessions Sessions
	errs     handler.ErrorHandler
}

func NewTwitchLogin(sessions Sessions, log *slog.Logger) *TwitchLogin {
	if log == nil {
		log = logger.Discard()
	}
	return &TwitchLogin{
		sessions: sessions,
		errs:     handler.NewErrorHandler(log.With(logger.Component("account"))),
	}
}

func (s *TwitchLogin) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", handler.Wrap(s.begin, handler.WithErrorHandler(s.errs)))
	r.Get("/callback", handler.Wrap(s.callback, handler.WithErrorHandler(s.errs)))
	return r
}

func (s *TwitchLogin) begin(ctx handler.Context, _ struct{}) handler.Response {
	url, err := s.sessions.Begin(ctx.ResponseWriter())
	if err != nil {
		return handler.Fail(err)
	}
	return handler.Redirect(url)
}

func (s *TwitchLogin) callback(ctx handler.Context, _ struct{}) handler.Response {
	if _, err := s.sessions.Complete(ctx.ResponseWriter(), ctx.Request()); err != nil {
		return handler.Fail(loginError(err))
	}
	return handler.Redirect(s.sessions.AfterLoginURL())
}

func loginError(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidState):
		return errors.Join(handler.ErrBadRequest.WithMessage("Login expired or was started elsewhere, please try again"), err)
	case errors.Is(err, auth.ErrInvalidCode):
		return errors.Join(handler.ErrBadRequest.WithMessage("Invalid authorization code"), err)
	case errors.Is(err, auth.ErrAccessDenied):
		return errors.Join(handler.ErrForbidden.WithMessage("Twitch authorization was denied"), err)
	case errors.Is(err, auth.ErrProfileUnavailable):
		return errors.Join(handler.ErrBadGateway, err)
	}
	return err
}

// Logout clears the session cookie.
func (s *TwitchLogin) Logout() http.Handler {
	return handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		s.sessions.Logout(ctx.ResponseWriter())
		return handler.Empty()
	}, handler.WithErrorHandler(s.errs))
}

type meResponse struct {
	ID              uuid.UUID `json:"id"`
	TwitchID        string    `json:"twitch_id"`
	Login           string    `json:"login"`
	DisplayName     string    `json:"display_name"`
	Email           string    `json:"email,omitempty"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	PremiumFlag     bool      `json:"premium_flag"`
	CreatedAt       time.Time `json:"created_at"`
}

// Me returns the signed-in user. Mount it behind auth.Service.RequireUser.
func Me() http.Handler {
	return handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		u, ok := auth.UserFromContext(ctx)
		if !ok {
			return handler.Fail(handler.ErrUnauthorized.WithMessage("Authentication required"))
		}
		return handler.JSON(meResponse{
			ID:              u.ID,
			TwitchID:        u.TwitchID,
			Login:           u.Login,
			DisplayName:     u.DisplayName,
			Email:           u.Email,
			ProfileImageURL: u.ProfileImageURL,
			PremiumFlag:     u.PremiumFlag,
			CreatedAt:       u.CreatedAt,
		})
	})
}
