package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Response headers describing a limiter decision.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderRetryAfter = "Retry-After"
)

// Limiter admits or rejects requests sharing a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// LimiterFunc adapts a function to Limiter.
type LimiterFunc func(ctx context.Context, key string) (*Result, error)

// Allow implements Limiter.
func (f LimiterFunc) Allow(ctx context.Context, key string) (*Result, error) {
	return f(ctx, key)
}

// Unlimited admits every request.
var Unlimited Limiter = LimiterFunc(func(context.Context, string) (*Result, error) {
	return &Result{Allowed: true}, nil
})

// Result is the outcome of one Allow call.
type Result struct {
	Allowed bool

	// Limit is the budget of the key and Remaining what is left of it.
	Limit     int
	Remaining int

	// RetryAfter is set on rejection.
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, at least one.
func (r *Result) RetryAfterSeconds() int {
	secs := int(math.Ceil(r.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// WriteHeaders sets the limit headers on h. Retry-After is only set on
// rejection.
func (r *Result) WriteHeaders(h http.Header) {
	h.Set(HeaderLimit, strconv.Itoa(r.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(r.Remaining))
	if !r.Allowed {
		h.Set(HeaderRetryAfter, strconv.Itoa(r.RetryAfterSeconds()))
	}
}
