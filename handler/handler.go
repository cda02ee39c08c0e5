package handler

import (
	"errors"
	"net/http"

	"github.com/t333watch/t333watch/binder"
)

// HandlerFunc is a typed handler: the request value is bound before the call
// and the returned Response is rendered afterwards.
type HandlerFunc[R any] func(ctx Context, req R) Response

type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

type Bind func(r *http.Request, v any) error

type ErrorHandler func(ctx Context, err error)

type Option func(*wrapConfig)

type wrapConfig struct {
	binders      []Bind
	errorHandler ErrorHandler
}

// WithBinders runs binders in order. A binder returning
// binder.ErrBinderNotApplicable is skipped.
func WithBinders(binders ...Bind) Option {
	return func(c *wrapConfig) {
		c.binders = append(c.binders, binders...)
	}
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(c *wrapConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

func defaultErrorHandler(ctx Context, err error) {
	info := classifyError(err)
	_ = JSONError(info).Render(ctx.ResponseWriter(), ctx.Request())
}

// Wrap adapts a typed handler to http.HandlerFunc.
func Wrap[R any](h HandlerFunc[R], opts ...Option) http.HandlerFunc {
	cfg := &wrapConfig{errorHandler: defaultErrorHandler}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r)

		var req R
		for _, bind := range cfg.binders {
			if err := bind(r, &req); err != nil {
				if errors.Is(err, binder.ErrBinderNotApplicable) {
					continue
				}
				cfg.errorHandler(ctx, bindError(err))
				return
			}
		}

		resp := h(ctx, req)
		if resp == nil {
			cfg.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := resp.Render(w, r); err != nil {
			cfg.errorHandler(ctx, err)
		}
	}
}

func bindError(err error) HTTPError {
	if errors.Is(err, binder.ErrBodyTooLarge) {
		return ErrPayloadTooLarge
	}
	return ErrBadRequest.WithMessage(err.Error())
}

// Fail returns a Response that routes err through the error handler. Use it
// from handlers for any failure so classification and logging stay in one place.
func Fail(err error) Response {
	return failure{err: err}
}

type failure struct {
	err error
}

func (f failure) Render(http.ResponseWriter, *http.Request) error {
	return f.err
}
