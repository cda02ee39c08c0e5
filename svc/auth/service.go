package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/t333watch/t333watch/pkg/cookie"
	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/pkg/secrets"
	"github.com/t333watch/t333watch/svc/user"
)

// Service runs the login flow and resolves sessions.
type Service struct {
	idp     IdentityProvider
	users   user.Store
	cookies *cookie.Manager
	sealer  *secrets.Sealer
	cfg     SessionConfig
	log     *slog.Logger
	now     func() time.Time
}

type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(idp IdentityProvider, users user.Store, cookies *cookie.Manager, sealer *secrets.Sealer, cfg SessionConfig, opts ...ServiceOption) *Service {
	if cfg.CookieName == "" {
		cfg.CookieName = "t333_session"
	}
	if cfg.StateCookieName == "" {
		cfg.StateCookieName = "t333_oauth_state"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	if cfg.AfterLoginURL == "" {
		cfg.AfterLoginURL = "/"
	}
	s := &Service{
		idp:     idp,
		users:   users,
		cookies: cookies,
		sealer:  sealer,
		cfg:     cfg,
		log:     logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("auth"))
	return s
}

// AfterLoginURL is where the callback sends the browser.
func (s *Service) AfterLoginURL() string { return s.cfg.AfterLoginURL }

type oauthState struct {
	State     string `json:"s"`
	ExpiresAt int64  `json:"e"`
}

type session struct {
	UserID    uuid.UUID `json:"u"`
	ExpiresAt int64     `json:"e"`
}

// Begin stores a fresh state in a cookie and returns the Twitch consent URL.
func (s *Service) Begin(w http.ResponseWriter) (string, error) {
	state := rand.Text()
	err := s.cookies.Set(w, s.cfg.StateCookieName, oauthState{
		State:     state,
		ExpiresAt: s.now().Add(s.cfg.StateTTL).Unix(),
	}, cookie.WithMaxAge(s.cfg.StateTTL))
	if err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return s.idp.AuthURL(state), nil
}

// Complete handles the OAuth callback. The state cookie is single use.
func (s *Service) Complete(w http.ResponseWriter, r *http.Request) (user.User, error) {
	ctx := r.Context()
	q := r.URL.Query()

	var st oauthState
	err := s.cookies.Get(r, s.cfg.StateCookieName, &st)
	s.cookies.Delete(w, s.cfg.StateCookieName)
	if err != nil || st.State == "" ||
		subtle.ConstantTimeCompare([]byte(st.State), []byte(q.Get("state"))) != 1 ||
		s.now().Unix() > st.ExpiresAt {
		return user.User{}, ErrInvalidState
	}
	if q.Get("error") != "" {
		return user.User{}, fmt.Errorf("%w: %s", ErrAccessDenied, q.Get("error_description"))
	}
	code := q.Get("code")
	if code == "" {
		return user.User{}, ErrInvalidCode
	}

	id, err := s.idp.Resolve(ctx, code)
	if err != nil {
		return user.User{}, err
	}
	u, err := s.users.Upsert(ctx, id.Profile)
	if err != nil {
		return user.User{}, fmt.Errorf("upsert user: %w", err)
	}
	s.storeTokens(ctx, u, id.Token)

	if err := s.startSession(w, u.ID); err != nil {
		return user.User{}, err
	}
	s.log.InfoContext(ctx, "user signed in", logger.UserID(u.ID))
	return u, nil
}

// storeTokens seals the Twitch tokens under the user's id. Login does not
// depend on them, so failures are logged.
func (s *Service) storeTokens(ctx context.Context, u user.User, tok *oauth2.Token) {
	if tok == nil {
		return
	}
	subject := u.ID.String()
	access, err := s.sealer.Seal(subject, tok.AccessToken)
	if err != nil {
		s.log.ErrorContext(ctx, "seal access token", logger.UserID(u.ID), logger.Error(err))
		return
	}
	var refresh string
	if tok.RefreshToken != "" {
		if refresh, err = s.sealer.Seal(subject, tok.RefreshToken); err != nil {
			s.log.ErrorContext(ctx, "seal refresh token", logger.UserID(u.ID), logger.Error(err))
			return
		}
	}
	if err := s.users.SetTokens(ctx, u.ID, access, refresh); err != nil {
		s.log.WarnContext(ctx, "store twitch tokens", logger.UserID(u.ID), logger.Error(err))
	}
}

// TwitchTokens opens the sealed tokens stored for u.
func (s *Service) TwitchTokens(u user.User) (access, refresh string, err error) {
	subject := u.ID.String()
	if u.AccessTokenSealed != "" {
		if access, err = s.sealer.Open(subject, u.AccessTokenSealed); err != nil {
			return "", "", err
		}
	}
	if u.RefreshTokenSealed != "" {
		if refresh, err = s.sealer.Open(subject, u.RefreshTokenSealed); err != nil {
			return "", "", err
		}
	}
	return access, refresh, nil
}

func (s *Service) startSession(w http.ResponseWriter, userID uuid.UUID) error {
	err := s.cookies.Set(w, s.cfg.CookieName, session{
		UserID:    userID,
		ExpiresAt: s.now().Add(s.cfg.TTL).Unix(),
	}, cookie.WithMaxAge(s.cfg.TTL))
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

func (s *Service) Logout(w http.ResponseWriter) {
	s.cookies.Delete(w, s.cfg.CookieName)
}

// Authenticate resolves the session cookie to a user.
func (s *Service) Authenticate(r *http.Request) (user.User, error) {
	var sess session
	if err := s.cookies.Get(r, s.cfg.CookieName, &sess); err != nil {
		return user.User{}, errors.Join(ErrUnauthenticated, err)
	}
	if sess.UserID == uuid.Nil {
		return user.User{}, ErrUnauthenticated
	}
	if s.now().Unix() > sess.ExpiresAt {
		return user.User{}, ErrSessionExpired
	}

	u, err := s.users.GetByID(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, errors.Join(ErrUnauthenticated, err)
		}
		return user.User{}, fmt.Errorf("load session user: %w", err)
	}
	return u, nil
}
