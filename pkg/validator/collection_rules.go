package validator

import "fmt"

func MaxLenSlice[T any](field string, value []T, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must have at most %d items", max)},
	}
}

// Each builds one rule per element.
func Each[T any](values []T, rule func(T) Rule) []Rule {
	rules := make([]Rule, 0, len(values))
	for _, v := range values {
		rules = append(rules, rule(v))
	}
	return rules
}
