package handler

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ValidationError collects per-field messages. It renders as 400 with the
// fields under error.details.
type ValidationError url.Values

func NewValidationError() ValidationError {
	return make(ValidationError)
}

func (e ValidationError) Add(field, message string) {
	url.Values(e).Add(field, message)
}

func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

func (e ValidationError) IsEmpty() bool {
	return len(e) == 0
}

// Err returns nil when no field failed.
func (e ValidationError) Err() error {
	if e.IsEmpty() {
		return nil
	}
	return e
}

func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if msgs := e[f]; len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", f, msgs[0]))
		}
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
