// Package cache provides a generic in-process LRU with per-entry expiry.
// It backs the premium status cache and the webhook event ledger when Redis
// is not configured.
package cache
