package middleware

// HTTP header constants.
const (
	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderXForwardedFor is the X-Forwarded-For header name.
	HeaderXForwardedFor = "X-Forwarded-For"
)

// Response bodies.
const (
	// ErrTooManyRequests is the body sent when a request is rate limited.
	ErrTooManyRequests = "Too Many Requests"

	// ErrServiceUnavailable is the body sent when a circuit is open.
	ErrServiceUnavailable = "Service Unavailable"
)

// unknownRoute is the fallback label value used when the route is not
// available in the request context.
const unknownRoute = "unknown"
