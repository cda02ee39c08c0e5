// Package redis wraps go-redis connection bootstrap for the premium status
// cache and the webhook event ledger. Redis is optional in development; when
// REDIS_URL is empty both fall back to in-memory implementations.
package redis
