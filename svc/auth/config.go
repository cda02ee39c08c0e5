package auth

import "time"

type TwitchConfig struct {
	ClientID     string        `env:"TWITCH_CLIENT_ID,required"`
	ClientSecret string        `env:"TWITCH_CLIENT_SECRET,required"`
	RedirectURL  string        `env:"TWITCH_REDIRECT_URL,required"`
	Scopes       []string      `env:"TWITCH_SCOPES" envSeparator:"," envDefault:"user:read:email"`
	HelixURL     string        `env:"TWITCH_HELIX_URL" envDefault:"https://api.twitch.tv/helix"`
	Timeout      time.Duration `env:"TWITCH_HTTP_TIMEOUT" envDefault:"10s"`
}

type SessionConfig struct {
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"t333_session"`
	StateCookieName string        `env:"SESSION_STATE_COOKIE_NAME" envDefault:"t333_oauth_state"`
	TTL             time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	StateTTL        time.Duration `env:"SESSION_STATE_TTL" envDefault:"10m"`
	// TokenKey is the hex encoded key sealing Twitch tokens at rest.
	TokenKey      string `env:"SESSION_TOKEN_KEY,required"`
	AfterLoginURL string `env:"SESSION_AFTER_LOGIN_URL" envDefault:"/"`
}
