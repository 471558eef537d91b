package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidPatternError(t *testing.T) {
	t.Parallel()

	err := NewInvalidPatternError("/users/{id", "unbalanced braces")

	assert.Equal(t, `invalid route pattern "/users/{id": unbalanced braces`, err.Error())
	assert.True(t, errors.Is(err, ErrInvalidPattern))
	assert.True(t, errors.Is(err, &InvalidPatternError{}))
	assert.False(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("register: %w", err)
	var target *InvalidPatternError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "/users/{id", target.Pattern)
}

func TestCorsViolation(t *testing.T) {
	t.Parallel()

	err := NewCorsViolation("http://b.com", "GET", "Origin not allowed")

	assert.Contains(t, err.Error(), "Origin not allowed")
	assert.True(t, errors.Is(err, ErrCorsViolation))
}

func TestRouteNotFoundError(t *testing.T) {
	t.Parallel()

	err := NewRouteNotFoundError("GET", "/missing/")

	assert.Equal(t, "Endpoint '/missing/' for method GET not found.", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, &RouteNotFoundError{}))
}

func TestHandlerError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewHandlerError("handler_chain", cause)

	assert.Equal(t, "boom", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, errors.Unwrap(err))

	empty := &HandlerError{Stage: "pre_event"}
	assert.Equal(t, "pre_event failed", empty.Error())
}

func TestNewPanicError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		recovered interface{}
		expected  string
	}{
		{name: "string panic", recovered: "kaboom", expected: "kaboom"},
		{name: "error panic", recovered: errors.New("bad"), expected: "bad"},
		{name: "int panic", recovered: 42, expected: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := NewPanicError("handler_chain", tt.recovered, []byte("stack"))
			assert.Equal(t, tt.expected, err.Error())
			assert.Equal(t, "handler_chain", err.Stage)
			assert.Equal(t, []byte("stack"), err.Stack)
		})
	}
}

func TestConfigError(t *testing.T) {
	t.Parallel()

	err := NewConfigError("paramsMode", "unknown mode")
	assert.Equal(t, "config error at paramsMode: unknown mode", err.Error())
	assert.True(t, errors.Is(err, ErrConfigInvalid))

	noField := NewConfigError("", "empty")
	assert.Equal(t, "config error: empty", noField.Error())

	cause := errors.New("yaml broke")
	withCause := NewConfigErrorWithCause("", "parse", cause)
	assert.True(t, errors.Is(withCause, cause))
	assert.Equal(t, cause, withCause.Unwrap())
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, WrapError(nil, "ctx"))

	cause := errors.New("inner")
	err := WrapError(cause, "outer")
	assert.Equal(t, "outer: inner", err.Error())
	assert.True(t, errors.Is(err, cause))
}
