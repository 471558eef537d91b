// Package util provides shared error types and context helpers for the
// dispatch layer.
//
// # Error Types
//
// Structured error types for consistent error handling:
//
//   - InvalidPatternError: malformed route pattern at registration time
//   - CorsViolation: request rejected by the CORS policy (403)
//   - RouteNotFoundError: no endpoint for the path and method (404)
//   - HandlerError: failure inside a pipeline stage (500)
//   - ConfigError: configuration loading and validation errors
//   - Common sentinel errors: ErrNotFound, ErrInvalidPattern, etc.
//
// # Context Helpers
//
// Context utilities for request-scoped data:
//
//	ctx = util.ContextWithEndpoint(ctx, "/users/:id")
//	route := util.EndpointFromContext(ctx)
package util
