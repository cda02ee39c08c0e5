package validator

import (
	"fmt"
	"slices"
	"strings"
)

func InList[T comparable](field string, value T, allowed []T) Rule {
	names := make([]string, len(allowed))
	for i, v := range allowed {
		names[i] = fmt.Sprint(v)
	}
	return Rule{
		Check: func() bool {
			return slices.Contains(allowed, value)
		},
		Error: ValidationError{Field: field, Message: "must be one of: " + strings.Join(names, ", ")},
	}
}
