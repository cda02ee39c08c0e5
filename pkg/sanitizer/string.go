package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func Trim(s string) string {
	return strings.TrimSpace(s)
}

func ToLower(s string) string {
	return strings.ToLower(s)
}

// RemoveExtraWhitespace collapses whitespace runs into one space and trims.
func RemoveExtraWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// RemoveControlChars drops control characters except newlines and tabs.
func RemoveControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}
