// Package handler adapts typed request handlers to net/http.
//
// A handler receives a bound request struct and returns a Response. Failures
// are returned as Fail(err); the configured ErrorHandler classifies them with
// errors.As into HTTPError or ValidationError, logs the cause and renders
//
//	{"error": {"code": "...", "message": "..."}}
//
// Anything unclassified is a 500 with a generic message.
package handler
