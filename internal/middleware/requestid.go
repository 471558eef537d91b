package middleware

import (
	"github.com/vyrodovalexey/webfunc/internal/handler"
	"github.com/vyrodovalexey/webfunc/internal/observability"
)

// RequestID returns an intermediate handler that echoes the request id in
// the X-Request-ID response header. An inbound X-Request-ID is honored;
// otherwise the transaction id assigned by the pipeline is used.
func RequestID() handler.Handler {
	return handler.Intermediate(func(req *handler.Request, res handler.ResponseWriter, next handler.Next) error {
		requestID := req.Header.Get(HeaderXRequestID)
		if requestID == "" {
			requestID = req.TransactionID
		} else {
			req.SetContext(observability.ContextWithTransactionID(req.Context(), requestID))
		}

		res.Header().Set(HeaderXRequestID, requestID)
		return next()
	})
}
