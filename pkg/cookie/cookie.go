package cookie

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

const minSecretLength = 32

// Manager writes authenticated and encrypted cookies. Values are JSON encoded
// so callers can store small structs directly.
type Manager struct {
	codecs   []securecookie.Codec
	defaults options
}

func New(cfg Config) (*Manager, error) {
	secrets := cfg.secrets()
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	pairs := make([][]byte, 0, len(secrets)*2)
	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
		hashKey, blockKey, err := deriveKeys(s)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, hashKey, blockKey)
	}

	m := &Manager{
		codecs: securecookie.CodecsFromPairs(pairs...),
		defaults: options{
			path:     cfg.Path,
			domain:   cfg.Domain,
			maxAge:   cfg.MaxAge,
			secure:   cfg.Secure,
			sameSite: cfg.SameSite,
		},
	}
	if m.defaults.path == "" {
		m.defaults.path = "/"
	}
	if m.defaults.sameSite == 0 {
		m.defaults.sameSite = http.SameSiteLaxMode
	}

	for _, c := range m.codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.SetSerializer(securecookie.JSONEncoder{})
			sc.MaxAge(0) // expiry is enforced by the caller's payload and the browser
		}
	}
	return m, nil
}

// Set encodes value and writes it as an HttpOnly cookie.
func (m *Manager) Set(w http.ResponseWriter, name string, value any, opts ...Option) error {
	o := m.defaults
	for _, opt := range opts {
		opt(&o)
	}

	encoded, err := securecookie.EncodeMulti(name, value, m.codecs...)
	if err != nil {
		return errors.Join(ErrEncodeFailed, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     o.path,
		Domain:   o.domain,
		MaxAge:   int(o.maxAge / time.Second),
		Secure:   o.secure,
		HttpOnly: true,
		SameSite: o.sameSite,
	})
	return nil
}

// Get decodes the named cookie into dst.
func (m *Manager) Get(r *http.Request, name string, dst any) error {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return ErrCookieNotFound
		}
		return err
	}
	if err := securecookie.DecodeMulti(name, c.Value, dst, m.codecs...); err != nil {
		return errors.Join(ErrInvalidCookie, err)
	}
	return nil
}

func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.defaults.path,
		Domain:   m.defaults.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.defaults.secure,
		HttpOnly: true,
		SameSite: m.defaults.sameSite,
	})
}

// deriveKeys expands one secret into an HMAC key and an AES-256 key.
func deriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("t333watch-cookie"))
	hashKey = make([]byte, 64)
	blockKey = make([]byte, 32)
	if _, err = io.ReadFull(r, hashKey); err != nil {
		return nil, nil, err
	}
	if _, err = io.ReadFull(r, blockKey); err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}
