// Package ratelimit throttles expensive per-user operations such as checkout
// creation and forced premium refreshes. Buckets are golang.org/x/time/rate
// limiters held in a bounded LRU.
package ratelimit
