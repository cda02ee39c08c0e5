package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RequiredString fails on empty or whitespace-only values.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) <= max
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)},
	}
}
