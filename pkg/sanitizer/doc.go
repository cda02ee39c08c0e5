// Package sanitizer cleans user input before validation.
//
// Helpers are plain func(T) T transforms that combine with Apply and Compose:
//
//	clean := sanitizer.Compose(sanitizer.Trim, sanitizer.ToLower)
//	login := clean("  Shroud ")
package sanitizer
