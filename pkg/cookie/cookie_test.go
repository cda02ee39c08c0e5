package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t333watch/t333watch/pkg/cookie"
)

const (
	secretA = "0123456789abcdef0123456789abcdef-a"
	secretB = "0123456789abcdef0123456789abcdef-b"
)

type session struct {
	UserID string `json:"uid"`
	Exp    int64  `json:"exp"`
}

func roundTrip(t *testing.T, writer, reader *cookie.Manager, v session) (session, error) {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, writer.Set(rec, "sid", v))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	var got session
	err := reader.Get(req, "sid", &got)
	return got, err
}

func TestManager(t *testing.T) {
	t.Parallel()

	m, err := cookie.New(cookie.Config{Secrets: secretA, MaxAge: time.Hour, Secure: true})
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		in := session{UserID: "u1", Exp: 42}
		got, err := roundTrip(t, m, m, in)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})

	t.Run("cookie attributes", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, m.Set(rec, "sid", session{UserID: "u1"}))
		c := rec.Result().Cookies()[0]
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, 3600, c.MaxAge)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.NotContains(t, c.Value, "u1")
	})

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()
		var got session
		err := m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "sid", &got)
		require.ErrorIs(t, err, cookie.ErrCookieNotFound)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "garbage"})
		var got session
		require.ErrorIs(t, m.Get(req, "sid", &got), cookie.ErrInvalidCookie)
	})

	t.Run("delete expires cookie", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		m.Delete(rec, "sid")
		assert.True(t, strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0"))
	})
}

func TestSecretRotation(t *testing.T) {
	t.Parallel()

	old, err := cookie.New(cookie.Config{Secrets: secretA})
	require.NoError(t, err)
	rotated, err := cookie.New(cookie.Config{Secrets: secretB + "," + secretA})
	require.NoError(t, err)
	other, err := cookie.New(cookie.Config{Secrets: secretB})
	require.NoError(t, err)

	got, err := roundTrip(t, old, rotated, session{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = roundTrip(t, old, other, session{UserID: "u1"})
	require.ErrorIs(t, err, cookie.ErrInvalidCookie)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := cookie.New(cookie.Config{})
	require.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New(cookie.Config{Secrets: "short"})
	require.ErrorIs(t, err, cookie.ErrSecretTooShort)
}
