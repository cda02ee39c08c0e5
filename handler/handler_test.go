package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t333watch/t333watch/binder"
	"github.com/t333watch/t333watch/handler"
	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/pkg/validator"
)

type errorEnvelope struct {
	Error struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

type echoRequest struct {
	Name string `json:"name"`
}

func TestWrap(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(ctx handler.Context, req echoRequest) handler.Response {
		if req.Name == "" {
			v := handler.NewValidationError()
			v.Add("name", "required")
			return handler.Fail(v)
		}
		return handler.JSON(map[string]string{"hello": req.Name})
	},
		handler.WithBinders(binder.JSON()),
		handler.WithErrorHandler(handler.NewErrorHandler(logger.Discard())),
	)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"kappa"}`))
		r.Header.Set("Content-Type", "application/json")
		h(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"hello":"kappa"}`, rec.Body.String())
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/", http.NoBody))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeError(t, rec)
		assert.Equal(t, "validation_error", env.Error.Code)
		assert.Equal(t, []string{"required"}, env.Error.Details["name"])
	})

	t.Run("bad json", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		r.Header.Set("Content-Type", "application/json")
		h(rec, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeError(t, rec)
		assert.Equal(t, "bad_request", env.Error.Code)
		assert.Contains(t, env.Error.Message, "invalid JSON")
	})

	t.Run("body too large", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("k", 2<<20)+`"}`))
		r.Header.Set("Content-Type", "application/json")
		h(rec, r)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "payload_too_large", decodeError(t, rec).Error.Code)
	})
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "http error with cause",
			err:     errors.Join(handler.ErrNotFound.WithMessage("user not found"), errors.New("sql: no rows")),
			status:  http.StatusNotFound,
			code:    "not_found",
			message: "user not found",
		},
		{
			name:    "http error default message",
			err:     handler.ErrConflict,
			status:  http.StatusConflict,
			code:    "conflict",
			message: "Conflict",
		},
		{
			name:    "server error hides cause",
			err:     errors.Join(handler.ErrBadGateway, errors.New("stripe: api key leaked")),
			status:  http.StatusBadGateway,
			code:    "bad_gateway",
			message: "An error occurred processing your request",
		},
		{
			name:    "unknown error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    "internal_server_error",
			message: "An error occurred processing your request",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			handler.Wrap(func(handler.Context, struct{}) handler.Response {
				return handler.Fail(tc.err)
			}, handler.WithErrorHandler(handler.NewErrorHandler(logger.Discard())))(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tc.status, rec.Code)
			env := decodeError(t, rec)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Equal(t, tc.message, env.Error.Message)
		})
	}
}

func TestRuleValidationErrors(t *testing.T) {
	t.Parallel()

	err := validator.Apply(
		validator.RequiredString("title", ""),
		validator.MaxLenSlice("tags", []string{"a", "b"}, 1),
	)
	rec := httptest.NewRecorder()
	handler.Wrap(func(handler.Context, struct{}) handler.Response {
		return handler.Fail(fmt.Errorf("create pack: %w", err))
	}, handler.WithErrorHandler(handler.NewErrorHandler(logger.Discard())))(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeError(t, rec)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Equal(t, []string{"is required"}, env.Error.Details["title"])
	assert.Equal(t, []string{"must have at most 1 items"}, env.Error.Details["tags"])
}

func TestNilResponse(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRawResponses(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, handler.Bytes("image/png", []byte{1, 2, 3}, "public, max-age=60").Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "3", rec.Header().Get("Content-Length"))
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	require.NoError(t, handler.Empty().Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, handler.Redirect("https://id.twitch.tv/oauth2/authorize").Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://id.twitch.tv/oauth2/authorize", rec.Header().Get("Location"))
}
