// Package clientip resolves the caller's IP address for rate limiting and
// analytics properties.
package clientip
