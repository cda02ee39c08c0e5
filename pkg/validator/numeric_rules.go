package validator

import "fmt"

func MinNum[T Numeric](field string, value, min T) Rule {
	return Rule{
		Check: func() bool {
			return value >= min
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at least %v", min)},
	}
}

func MaxNum[T Numeric](field string, value, max T) Rule {
	return Rule{
		Check: func() bool {
			return value <= max
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %v", max)},
	}
}
