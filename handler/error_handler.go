package handler

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"

	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/pkg/validator"
)

const genericErrorMessage = "An error occurred processing your request"

type ErrorInfo struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string][]string
	LogLevel   slog.Level
}

func classifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrInternalServerError.Key,
		Message:    genericErrorMessage,
		LogLevel:   slog.LevelError,
	}

	var validationErr ValidationError
	if errors.As(err, &validationErr) {
		info.StatusCode = http.StatusBadRequest
		info.Code = "validation_error"
		info.Message = "Validation failed"
		info.Details = maps.Clone(map[string][]string(validationErr))
		info.LogLevel = slog.LevelWarn
		return info
	}

	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		info.StatusCode = http.StatusBadRequest
		info.Code = "validation_error"
		info.Message = "Validation failed"
		info.Details = make(map[string][]string, len(verrs))
		for _, field := range verrs.Fields() {
			info.Details[field] = verrs.Get(field)
		}
		info.LogLevel = slog.LevelWarn
		return info
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
		info.Code = httpErr.Key
		if httpErr.Code < http.StatusInternalServerError {
			info.LogLevel = slog.LevelWarn
			info.Message = httpErr.Message
			if info.Message == "" {
				info.Message = http.StatusText(httpErr.Code)
			}
		}
	}
	return info
}

// NewErrorHandler logs the cause and renders the JSON error envelope. Server
// errors never leak their cause to the client.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx Context, err error) {
		info := classifyError(err)
		r := ctx.Request()
		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)
		if rerr := JSONError(info).Render(ctx.ResponseWriter(), r); rerr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(rerr))
		}
	}
}

// WriteError renders err outside of a typed handler, e.g. from middleware.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	_ = JSONError(classifyError(err)).Render(w, r)
}
