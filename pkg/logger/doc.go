// Package logger builds slog loggers for the service and provides attribute
// helpers so that the same keys (user_id, event_id, component, ...) are used
// everywhere.
//
// Loggers created by New wrap their handler in a decorator that pulls
// request-scoped values (such as the request id) out of the context on every
// record, so call sites only need the *Context logging methods.
package logger
