// Package binder populates request structs for handler.Wrap from JSON
// bodies, query strings and chi path parameters.
package binder
