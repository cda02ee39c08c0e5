// Package validator builds declarative field rules.
//
// Each helper returns a Rule pairing a Check with the ValidationError to
// report when the check fails. Apply evaluates rules in order and collects
// every failure into ValidationErrors, which implements error:
//
//	err := validator.Apply(
//	    validator.RequiredString("title", in.Title),
//	    validator.MaxLenString("title", in.Title, 100),
//	    validator.InList("visibility", in.Visibility, []Visibility{Public, Private}),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	    // verrs.Get("title")
//	}
//
// Lengths count runes, not bytes.
package validator
