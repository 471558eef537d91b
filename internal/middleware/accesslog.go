package middleware

import (
	"github.com/vyrodovalexey/webfunc/internal/dispatch"
	"github.com/vyrodovalexey/webfunc/internal/observability"
)

// sizer is implemented by responses that count body bytes.
type sizer interface {
	Size() int
}

// AccessLog returns a post-event hook that logs one line per request.
func AccessLog(logger observability.Logger) dispatch.PostEventHook {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return func(ev *dispatch.PostEvent) error {
		req := ev.Request

		fields := []observability.Field{
			observability.String("method", req.Method),
			observability.String("path", req.Path),
			observability.Int("status", ev.Response.StatusCode()),
			observability.Float64("elapsed_ms", ev.ElapsedMs),
			observability.String("transaction_id", req.TransactionID),
			observability.String("remote_addr", req.RemoteAddr),
		}
		if ev.Endpoint != "" {
			fields = append(fields, observability.String("endpoint", ev.Endpoint))
		}
		if s, ok := ev.Response.(sizer); ok {
			fields = append(fields, observability.Int("bytes", s.Size()))
		}

		if ev.Err != nil {
			fields = append(fields,
				observability.String("stage", ev.ErrStage.String()),
				observability.Error(ev.Err),
			)
			logger.Warn("request completed with error", fields...)
			return nil
		}

		logger.Info("request completed", fields...)
		return nil
	}
}
