// Package util provides utility functions and types for the dispatch layer.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrNotFound.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., InvalidPatternError, HandlerError). Each
//     type implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
package util

import (
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidPattern = errors.New("invalid route pattern")
	ErrInvalidChain   = errors.New("invalid handler chain")
	ErrRegistryFrozen = errors.New("registry is frozen")
	ErrCorsViolation  = errors.New("cors violation")
	ErrConfigInvalid  = errors.New("invalid configuration")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrCircuitOpen    = errors.New("circuit breaker open")
)

// InvalidPatternError represents a route pattern that cannot be compiled.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid route pattern %q: %s", e.Pattern, e.Reason)
}

// Is checks if the error matches the target.
func (e *InvalidPatternError) Is(target error) bool {
	if target == ErrInvalidPattern {
		return true
	}
	_, ok := target.(*InvalidPatternError)
	return ok
}

// NewInvalidPatternError creates a new InvalidPatternError.
func NewInvalidPatternError(pattern, reason string) *InvalidPatternError {
	return &InvalidPatternError{Pattern: pattern, Reason: reason}
}

// CorsViolation represents a request rejected by the CORS policy.
type CorsViolation struct {
	Origin string
	Method string
	Reason string
}

// Error implements the error interface.
func (e *CorsViolation) Error() string {
	return fmt.Sprintf("cors violation: %s (origin %q, method %s)", e.Reason, e.Origin, e.Method)
}

// Is checks if the error matches the target.
func (e *CorsViolation) Is(target error) bool {
	if target == ErrCorsViolation {
		return true
	}
	_, ok := target.(*CorsViolation)
	return ok
}

// NewCorsViolation creates a new CorsViolation.
func NewCorsViolation(origin, method, reason string) *CorsViolation {
	return &CorsViolation{Origin: origin, Method: method, Reason: reason}
}

// RouteNotFoundError represents a route not found error.
type RouteNotFoundError struct {
	Path   string
	Method string
}

// Error implements the error interface.
func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("Endpoint '%s' for method %s not found.", e.Path, e.Method)
}

// Is checks if the error matches the target.
func (e *RouteNotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*RouteNotFoundError)
	return ok
}

// NewRouteNotFoundError creates a new RouteNotFoundError.
func NewRouteNotFoundError(method, path string) *RouteNotFoundError {
	return &RouteNotFoundError{Path: path, Method: method}
}

// HandlerError wraps a failure raised inside a pipeline stage, either a
// returned error or a recovered panic.
type HandlerError struct {
	Stage string
	Cause error
	Stack []byte
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s failed", e.Stage)
	}
	return e.Cause.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *HandlerError) Is(target error) bool {
	_, ok := target.(*HandlerError)
	return ok || errors.Is(e.Cause, target)
}

// NewHandlerError creates a new HandlerError.
func NewHandlerError(stage string, cause error) *HandlerError {
	return &HandlerError{Stage: stage, Cause: cause}
}

// NewPanicError converts a recovered panic value into a HandlerError.
func NewPanicError(stage string, recovered interface{}, stack []byte) *HandlerError {
	var cause error
	switch v := recovered.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}
	return &HandlerError{Stage: stage, Cause: cause, Stack: stack}
}

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
