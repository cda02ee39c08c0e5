package slug

import (
	"crypto/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Option func(*config)

type config struct {
	maxLength    int
	suffixLength int
}

// MaxLength caps the slug length in bytes, suffix included.
func MaxLength(n int) Option {
	return func(c *config) { c.maxLength = n }
}

// WithSuffix appends a random lowercase alphanumeric suffix of n chars.
func WithSuffix(n int) Option {
	return func(c *config) { c.suffixLength = n }
}

// Fold strips diacritics by decomposing to NFD and dropping combining marks,
// then recomposes to NFC. "Café Ñoño" becomes "Cafe Nono".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Make returns a lowercase ASCII slug using "-" as the separator. Characters
// that cannot be folded to ASCII letters or digits act as separators.
func Make(s string, opts ...Option) string {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	var b strings.Builder
	b.Grow(len(s))
	sep := true
	for _, r := range strings.ToLower(Fold(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			sep = false
			continue
		}
		if !sep {
			b.WriteByte('-')
			sep = true
		}
	}
	out := strings.Trim(b.String(), "-")

	limit := cfg.maxLength
	if cfg.suffixLength > 0 && limit > 0 {
		limit -= cfg.suffixLength + 1
	}
	if limit > 0 && len(out) > limit {
		out = strings.TrimRight(out[:limit], "-")
	}

	if cfg.suffixLength > 0 {
		suffix := randomSuffix(cfg.suffixLength)
		if out == "" {
			return suffix
		}
		out += "-" + suffix
	}
	return out
}

func randomSuffix(n int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
