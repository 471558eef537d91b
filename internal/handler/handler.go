package handler

// Kind tells whether a handler ends the chain or passes control on.
type Kind int

// Handler kinds.
const (
	KindTerminal Kind = iota
	KindIntermediate
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	case KindIntermediate:
		return "intermediate"
	default:
		return "unknown"
	}
}

// Next continues the chain with the following handler.
type Next func() error

// Handler processes a request. Terminal handlers receive a nil next.
type Handler interface {
	Handle(req *Request, res ResponseWriter, next Next) error
	Kind() Kind
}

// TerminalFunc adapts a function to a terminal Handler.
type TerminalFunc func(req *Request, res ResponseWriter) error

// Handle calls f.
func (f TerminalFunc) Handle(req *Request, res ResponseWriter, _ Next) error {
	return f(req, res)
}

// Kind returns KindTerminal.
func (TerminalFunc) Kind() Kind { return KindTerminal }

// IntermediateFunc adapts a function to an intermediate Handler.
type IntermediateFunc func(req *Request, res ResponseWriter, next Next) error

// Handle calls f.
func (f IntermediateFunc) Handle(req *Request, res ResponseWriter, next Next) error {
	return f(req, res, next)
}

// Kind returns KindIntermediate.
func (IntermediateFunc) Kind() Kind { return KindIntermediate }

// Terminal wraps fn as a terminal handler.
func Terminal(fn func(req *Request, res ResponseWriter) error) Handler {
	return TerminalFunc(fn)
}

// Intermediate wraps fn as an intermediate handler.
func Intermediate(fn func(req *Request, res ResponseWriter, next Next) error) Handler {
	return IntermediateFunc(fn)
}

// Chain composes handlers into a single intermediate handler. When the
// inner chain runs to completion the outer continuation is invoked.
func Chain(handlers ...Handler) Handler {
	hs := append([]Handler(nil), handlers...)
	return IntermediateFunc(func(req *Request, res ResponseWriter, next Next) error {
		return Run(req, res, hs, next)
	})
}

// Run executes handlers in order. A terminal handler ends the chain, an
// intermediate handler that never calls next ends it as well, and the
// chain stops as soon as a response has been sent. When every handler
// passes control on, final is invoked (it may be nil).
func Run(req *Request, res ResponseWriter, handlers []Handler, final Next) error {
	var step func(i int) error
	step = func(i int) error {
		if res.HeadersSent() {
			return nil
		}
		if i >= len(handlers) {
			if final != nil {
				return final()
			}
			return nil
		}

		h := handlers[i]
		if h == nil {
			return step(i + 1)
		}
		if h.Kind() == KindTerminal {
			return h.Handle(req, res, nil)
		}

		called := false
		return h.Handle(req, res, func() error {
			if called {
				return nil
			}
			called = true
			return step(i + 1)
		})
	}
	return step(0)
}
