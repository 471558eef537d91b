package registry

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vyrodovalexey/webfunc/internal/handler"
	"github.com/vyrodovalexey/webfunc/internal/route"
	"github.com/vyrodovalexey/webfunc/internal/util"
)

// MethodAny registers an endpoint for every method.
const MethodAny = ""

// Endpoint is a registered set of patterns sharing one handler chain.
type Endpoint struct {
	// Method is the upper-cased method restriction, or MethodAny.
	Method   string
	Patterns []*route.Pattern
	Handlers []handler.Handler
}

// Routes returns the normalized templates of the endpoint.
func (e *Endpoint) Routes() []string {
	out := make([]string, len(e.Patterns))
	for i, p := range e.Patterns {
		out[i] = p.Route()
	}
	return out
}

// String returns a short description used in logs.
func (e *Endpoint) String() string {
	method := e.Method
	if method == MethodAny {
		method = "ANY"
	}
	return method + " " + strings.Join(e.Routes(), ",")
}

// Resolution is the endpoint selected for a request together with the
// match that selected it.
type Resolution struct {
	Endpoint *Endpoint
	Match    *route.MatchResult
}

type snapshot struct {
	endpoints []*Endpoint
}

// Registry holds endpoints in registration order.
type Registry struct {
	mu     sync.Mutex
	snap   atomic.Pointer[snapshot]
	frozen atomic.Bool
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	r.snap.Store(&snapshot{})
	return r
}

// Register compiles paths into one endpoint restricted to method (MethodAny
// for all methods). Every handler but the last must be intermediate.
func (r *Registry) Register(paths []string, method string, handlers ...handler.Handler) error {
	if len(paths) == 0 {
		return util.NewInvalidPatternError("", "at least one path is required")
	}
	if err := validateChain(handlers); err != nil {
		return err
	}

	patterns := make([]*route.Pattern, 0, len(paths))
	for _, p := range paths {
		compiled, err := route.Compile(p)
		if err != nil {
			return err
		}
		patterns = append(patterns, compiled)
	}

	ep := &Endpoint{
		Method:   normalizeMethod(method),
		Patterns: patterns,
		Handlers: append([]handler.Handler(nil), handlers...),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return util.ErrRegistryFrozen
	}

	current := r.snap.Load()
	next := &snapshot{endpoints: make([]*Endpoint, len(current.endpoints), len(current.endpoints)+1)}
	copy(next.endpoints, current.endpoints)
	next.endpoints = append(next.endpoints, ep)
	r.snap.Store(next)

	return nil
}

// Get registers a GET endpoint.
func (r *Registry) Get(path string, handlers ...handler.Handler) error {
	return r.Register([]string{path}, http.MethodGet, handlers...)
}

// Post registers a POST endpoint.
func (r *Registry) Post(path string, handlers ...handler.Handler) error {
	return r.Register([]string{path}, http.MethodPost, handlers...)
}

// Put registers a PUT endpoint.
func (r *Registry) Put(path string, handlers ...handler.Handler) error {
	return r.Register([]string{path}, http.MethodPut, handlers...)
}

// Patch registers a PATCH endpoint.
func (r *Registry) Patch(path string, handlers ...handler.Handler) error {
	return r.Register([]string{path}, http.MethodPatch, handlers...)
}

// Delete registers a DELETE endpoint.
func (r *Registry) Delete(path string, handlers ...handler.Handler) error {
	return r.Register([]string{path}, http.MethodDelete, handlers...)
}

// Any registers an endpoint matching every method.
func (r *Registry) Any(path string, handlers ...handler.Handler) error {
	return r.Register([]string{path}, MethodAny, handlers...)
}

// Resolve selects the endpoint whose pattern produces the longest matched
// literal for path among those accepting method. Ties go to the earliest
// registration.
func (r *Registry) Resolve(path, method string) (*Resolution, bool) {
	method = strings.ToUpper(method)
	snap := r.snap.Load()

	var best *Resolution
	for _, ep := range snap.endpoints {
		if ep.Method != MethodAny && ep.Method != method {
			continue
		}
		m, ok := route.Best(path, ep.Patterns)
		if !ok {
			continue
		}
		if best == nil || route.Longer(m, best.Match) {
			best = &Resolution{Endpoint: ep, Match: m}
		}
	}

	return best, best != nil
}

// Endpoints returns the registered endpoints in registration order.
func (r *Registry) Endpoints() []*Endpoint {
	snap := r.snap.Load()
	out := make([]*Endpoint, len(snap.endpoints))
	copy(out, snap.endpoints)
	return out
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	return len(r.snap.Load().endpoints)
}

// Reset removes every endpoint.
func (r *Registry) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return util.ErrRegistryFrozen
	}
	r.snap.Store(&snapshot{})
	return nil
}

// Freeze rejects any further mutation.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

func normalizeMethod(method string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "*" || method == "ANY" {
		return MethodAny
	}
	return method
}

func validateChain(handlers []handler.Handler) error {
	if len(handlers) == 0 {
		return fmt.Errorf("%w: at least one handler is required", util.ErrInvalidChain)
	}
	for i, h := range handlers {
		if h == nil {
			return fmt.Errorf("%w: handler %d is nil", util.ErrInvalidChain, i)
		}
		if i < len(handlers)-1 && h.Kind() != handler.KindIntermediate {
			return fmt.Errorf("%w: handler %d is %s but is followed by another handler",
				util.ErrInvalidChain, i, h.Kind())
		}
	}
	return nil
}
