package adapter

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/vyrodovalexey/webfunc/internal/handler"
	"github.com/vyrodovalexey/webfunc/internal/observability"
)

// Dispatcher runs one request. *dispatch.Pipeline implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *handler.Request, res handler.ResponseWriter)
}

// Switch is a Dispatcher whose target can be replaced atomically. Requests
// already inside the old target finish there.
type Switch struct {
	current atomic.Pointer[dispatcherBox]
}

type dispatcherBox struct {
	d Dispatcher
}

// NewSwitch creates a Switch dispatching to d.
func NewSwitch(d Dispatcher) *Switch {
	s := &Switch{}
	s.current.Store(&dispatcherBox{d: d})
	return s
}

// Swap replaces the target and returns the previous one.
func (s *Switch) Swap(d Dispatcher) Dispatcher {
	return s.current.Swap(&dispatcherBox{d: d}).d
}

// Current returns the active target.
func (s *Switch) Current() Dispatcher {
	return s.current.Load().d
}

// Dispatch implements Dispatcher.
func (s *Switch) Dispatch(ctx context.Context, req *handler.Request, res handler.ResponseWriter) {
	s.Current().Dispatch(ctx, req, res)
}

// Option configures the HTTP adapters.
type Option func(*options)

type options struct {
	maxBodyBytes int64
	logger       observability.Logger
}

// WithMaxBodyBytes limits request bodies; larger bodies get 413.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		o.maxBodyBytes = n
	}
}

// WithLogger sets the logger used for adapter level failures.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: observability.NopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// HTTPHandler returns an http.Handler dispatching every request to d.
func HTTPHandler(d Dispatcher, opts ...Option) http.Handler {
	o := newOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serve(d, o, w, r)
	})
}

func serve(d Dispatcher, o options, w http.ResponseWriter, r *http.Request) {
	req, err := handler.FromHTTP(r, o.maxBodyBytes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, handler.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		o.logger.Warn("rejecting request before dispatch",
			observability.String("path", r.URL.Path),
			observability.Error(err),
		)
		http.Error(w, http.StatusText(status), status)
		return
	}

	res := handler.NewResponse(w)
	d.Dispatch(r.Context(), req, res)

	// A chain that never responded gets an empty 200.
	if !res.HeadersSent() {
		_ = res.End()
	}
}
