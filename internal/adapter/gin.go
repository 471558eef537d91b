package adapter

import (
	"sync"

	"github.com/gin-gonic/gin"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// GinHandler returns a gin handler dispatching the request to d. It aborts
// the gin chain once the pipeline has answered.
func GinHandler(d Dispatcher, opts ...Option) gin.HandlerFunc {
	o := newOptions(opts)
	return func(c *gin.Context) {
		serve(d, o, c.Writer, c.Request)
		// gin writes headers lazily; an empty response must be flushed here
		// or NoRoute appends its own 404 body.
		if !c.Writer.Written() {
			c.Writer.WriteHeaderNow()
		}
		c.Abort()
	}
}

// NewGinEngine returns a gin engine sending every path and method to d.
func NewGinEngine(d Dispatcher, opts ...Option) *gin.Engine {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()
	engine.HandleMethodNotAllowed = false
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.NoRoute(GinHandler(d, opts...))
	return engine
}
