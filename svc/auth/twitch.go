package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/twitch"

	"github.com/t333watch/t333watch/svc/user"
)

// Identity is a resolved Twitch login.
type Identity struct {
	Profile user.Profile
	Token   *oauth2.Token
}

// IdentityProvider turns an authorization code into an Identity.
type IdentityProvider interface {
	AuthURL(state string) string
	Resolve(ctx context.Context, code string) (Identity, error)
}

// Twitch implements IdentityProvider with the Twitch OAuth code flow and the
// Helix users endpoint.
type Twitch struct {
	conf     *oauth2.Config
	helixURL string
	client   *http.Client
}

type TwitchOption func(*Twitch)

// WithEndpoint overrides the Twitch OAuth endpoint, for tests.
func WithEndpoint(e oauth2.Endpoint) TwitchOption {
	return func(t *Twitch) { t.conf.Endpoint = e }
}

func WithHTTPClient(c *http.Client) TwitchOption {
	return func(t *Twitch) {
		if c != nil {
			t.client = c
		}
	}
}

func NewTwitch(cfg TwitchConfig, opts ...TwitchOption) *Twitch {
	t := &Twitch{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     twitch.Endpoint,
		},
		helixURL: strings.TrimRight(cfg.HelixURL, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Twitch) AuthURL(state string) string {
	return t.conf.AuthCodeURL(state)
}

func (t *Twitch) Resolve(ctx context.Context, code string) (Identity, error) {
	tok, err := t.conf.Exchange(context.WithValue(ctx, oauth2.HTTPClient, t.client), code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return Identity{}, errors.Join(ErrInvalidCode, err)
		}
		return Identity{}, errors.Join(ErrProfileUnavailable, err)
	}

	p, err := t.fetchUser(ctx, tok.AccessToken)
	if err != nil {
		return Identity{}, errors.Join(ErrProfileUnavailable, err)
	}
	return Identity{Profile: p, Token: tok}, nil
}

type helixUsers struct {
	Data []struct {
		ID              string `json:"id"`
		Login           string `json:"login"`
		DisplayName     string `json:"display_name"`
		Email           string `json:"email"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

func (t *Twitch) fetchUser(ctx context.Context, accessToken string) (user.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.helixURL+"/users", nil)
	if err != nil {
		return user.Profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", t.conf.ClientID)

	resp, err := t.client.Do(req)
	if err != nil {
		return user.Profile{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return user.Profile{}, fmt.Errorf("helix users returned status %d", resp.StatusCode)
	}

	var body helixUsers
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return user.Profile{}, fmt.Errorf("decode helix users: %w", err)
	}
	if len(body.Data) == 0 {
		return user.Profile{}, errors.New("helix users returned no user")
	}
	u := body.Data[0]
	return user.Profile{
		TwitchID:        u.ID,
		Login:           u.Login,
		DisplayName:     u.DisplayName,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}, nil
}
