package util

import (
	"context"
	"time"
)

// Context keys.
type ctxKey string

const (
	ctxKeyStartTime ctxKey = "start_time"
	ctxKeyEndpoint  ctxKey = "endpoint"
)

// ContextWithStartTime adds a start time to the context.
func ContextWithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyStartTime, t)
}

// StartTimeFromContext extracts the start time from context.
func StartTimeFromContext(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ctxKeyStartTime).(time.Time); ok {
		return v
	}
	return time.Time{}
}

// ElapsedTime returns the time elapsed since the start time stored in
// the context, or zero if none was stored.
func ElapsedTime(ctx context.Context) time.Duration {
	start := StartTimeFromContext(ctx)
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}

// ContextWithEndpoint adds the matched endpoint route to the context.
func ContextWithEndpoint(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, ctxKeyEndpoint, route)
}

// EndpointFromContext extracts the matched endpoint route from context.
func EndpointFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyEndpoint).(string); ok {
		return v
	}
	return ""
}
