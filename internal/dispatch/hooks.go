package dispatch

import (
	"github.com/vyrodovalexey/webfunc/internal/handler"
)

// PreEventHook runs before CORS validation for every request.
type PreEventHook func(req *handler.Request, res handler.ResponseWriter) error

// PostEvent describes a finished request.
type PostEvent struct {
	Request  *handler.Request
	Response handler.ResponseWriter
	// Endpoint is the matched route template, empty when routing failed.
	Endpoint  string
	ElapsedMs float64
	// Err is the first error raised by a stage, if any.
	Err error
	// ErrStage is the stage that raised Err.
	ErrStage Stage
}

// PostEventHook runs after every request, including failed ones.
type PostEventHook func(ev *PostEvent) error
