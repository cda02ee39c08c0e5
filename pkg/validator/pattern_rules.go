package validator

import (
	"regexp"
	"strings"
)

// MatchesRegex fails on blank values and on values re does not match.
// description completes the message "must be ...".
func MatchesRegex(field, value string, re *regexp.Regexp, description string) Rule {
	return Rule{
		Check: func() bool {
			if strings.TrimSpace(value) == "" {
				return false
			}
			return re.MatchString(value)
		},
		Error: ValidationError{Field: field, Message: "must be " + description},
	}
}
