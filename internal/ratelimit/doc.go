// Package ratelimit provides the request limiters used by the rate limit
// handler: an in-process token bucket per key built on golang.org/x/time/rate
// and a fixed-window limiter shared through Redis for multi-instance
// deployments.
package ratelimit
