package cookie

import (
	"net/http"
	"strings"
	"time"
)

type Config struct {
	// Secrets is a comma separated list. The first one encodes, all of them
	// decode, so a new secret can be prepended without logging users out.
	Secrets  string        `env:"COOKIE_SECRETS,required"`
	Path     string        `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string        `env:"COOKIE_DOMAIN"`
	MaxAge   time.Duration `env:"COOKIE_MAX_AGE" envDefault:"720h"`
	Secure   bool          `env:"COOKIE_SECURE" envDefault:"true"`
	SameSite http.SameSite `env:"COOKIE_SAME_SITE" envDefault:"2"` // 2 = SameSiteLaxMode
}

func (c Config) secrets() []string {
	parts := strings.Split(c.Secrets, ",")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
