package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/webfunc/internal/handler"
	"github.com/vyrodovalexey/webfunc/internal/observability"
	"github.com/vyrodovalexey/webfunc/internal/util"
)

// cbTracer is the OTEL tracer used for circuit breaker operations.
var cbTracer = otel.Tracer("webfunc/circuitbreaker")

// CircuitBreakerStateFunc is called when the circuit breaker changes state.
// Parameters: name (circuit breaker name), state (0=closed, 1=half-open, 2=open).
type CircuitBreakerStateFunc func(name string, state int)

// serverStatusError marks a chain that completed with a 5xx response.
type serverStatusError struct {
	status int
}

func (e *serverStatusError) Error() string {
	return fmt.Sprintf("server error: status %d", e.status)
}

// CircuitBreaker wraps gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	cb            *gobreaker.CircuitBreaker
	logger        observability.Logger
	stateCallback CircuitBreakerStateFunc
}

// CircuitBreakerOption is a functional option for configuring the circuit breaker.
type CircuitBreakerOption func(*CircuitBreaker)

// WithCircuitBreakerLogger sets the logger for the circuit breaker.
func WithCircuitBreakerLogger(logger observability.Logger) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.logger = logger
	}
}

// WithCircuitBreakerStateCallback sets a callback for circuit breaker state changes.
func WithCircuitBreakerStateCallback(fn CircuitBreakerStateFunc) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.stateCallback = fn
	}
}

// NewCircuitBreaker creates a circuit breaker that opens once at least
// threshold requests were seen in an interval and half of them failed.
// It stays open for timeout before probing again.
func NewCircuitBreaker(
	name string,
	threshold int,
	timeout time.Duration,
	opts ...CircuitBreakerOption,
) *CircuitBreaker {
	cb := &CircuitBreaker{
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(cb)
	}

	thresholdU32 := safeIntToUint32(threshold)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: thresholdU32,
		Interval:    timeout,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= thresholdU32 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			cb.logger.Info("circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)

			_, span := cbTracer.Start(context.Background(),
				"circuitbreaker.state_change",
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			span.AddEvent("state_change", trace.WithAttributes(
				attribute.String("circuitbreaker.name", name),
				attribute.String("circuitbreaker.from", from.String()),
				attribute.String("circuitbreaker.to", to.String()),
			))
			span.End()

			if cb.stateCallback != nil {
				cb.stateCallback(name, int(to))
			}
		},
	}

	cb.cb = gobreaker.NewCircuitBreaker(settings)
	return cb
}

// safeIntToUint32 safely converts int to uint32.
func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.cb.State()
}

// Handler returns an intermediate handler running the rest of the chain
// inside the breaker. Handler errors and 5xx responses count as failures.
// While the circuit is open requests get 503.
func (cb *CircuitBreaker) Handler() handler.Handler {
	return handler.Intermediate(func(req *handler.Request, res handler.ResponseWriter, next handler.Next) error {
		_, err := cb.cb.Execute(func() (interface{}, error) {
			if err := next(); err != nil {
				return nil, err
			}
			if res.HeadersSent() && res.StatusCode() >= http.StatusInternalServerError {
				return nil, &serverStatusError{status: res.StatusCode()}
			}
			return nil, nil
		})
		if err == nil {
			return nil
		}

		var statusErr *serverStatusError
		switch {
		case errors.As(err, &statusErr):
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			cb.logger.Warn("circuit breaker rejected request",
				observability.String("path", req.Path),
				observability.String("state", cb.State().String()),
				observability.Error(util.ErrCircuitOpen),
			)
			if res.HeadersSent() {
				return nil
			}
			return res.Status(http.StatusServiceUnavailable).Send(ErrServiceUnavailable)
		default:
			return err
		}
	})
}

// CircuitBreakerHandler is shorthand for NewCircuitBreaker(...).Handler().
func CircuitBreakerHandler(
	name string,
	threshold int,
	timeout time.Duration,
	opts ...CircuitBreakerOption,
) handler.Handler {
	return NewCircuitBreaker(name, threshold, timeout, opts...).Handler()
}
