// Package middleware provides built-in intermediate handlers and hooks for
// the dispatch pipeline.
//
// Handlers in this package are registered ahead of an endpoint's terminal
// handler:
//
//	reg.Get("/api/{id}",
//	    middleware.RequestID(),
//	    middleware.RateLimit(limiter, middleware.ClientIPKey(nil)),
//	    handler.Terminal(getItem),
//	)
//
// AccessLog is a post-event hook rather than a handler so that it also sees
// requests rejected before routing.
package middleware
