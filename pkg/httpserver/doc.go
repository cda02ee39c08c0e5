// Package httpserver runs the API behind a graceful, signal-aware
// http.Server. Shutdown hooks let background workers such as the analytics
// queue drain before the process exits.
package httpserver
