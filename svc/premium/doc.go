// Package premium answers "is this user premium?" quickly.
//
// Cache has two backends: MemoryCache for a single replica and RedisCache
// when several replicas must observe the same invalidation. Both load misses
// from the user store and expire entries after a short TTL, so a missed
// invalidation only causes bounded staleness.
//
// Tiers describes what each status unlocks and is read from an embedded YAML
// document.
package premium
