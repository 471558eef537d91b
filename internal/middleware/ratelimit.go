package middleware

import (
	"net/http"

	"github.com/vyrodovalexey/webfunc/internal/handler"
	"github.com/vyrodovalexey/webfunc/internal/observability"
	"github.com/vyrodovalexey/webfunc/internal/ratelimit"
	"github.com/vyrodovalexey/webfunc/internal/util"
)

// KeyFunc derives the rate limit key of a request.
type KeyFunc func(req *handler.Request) string

// ClientIPKey keys requests by client IP. A nil extractor trusts no proxies.
func ClientIPKey(extractor *ClientIPExtractor) KeyFunc {
	if extractor == nil {
		extractor = NewClientIPExtractor(nil)
	}
	return extractor.Extract
}

// GlobalKey puts every request in a single bucket.
func GlobalKey(*handler.Request) string {
	return "global"
}

// RateLimitOption configures the rate limit handler.
type RateLimitOption func(*rateLimitHandler)

// WithRateLimitLogger sets the logger.
func WithRateLimitLogger(logger observability.Logger) RateLimitOption {
	return func(h *rateLimitHandler) {
		h.logger = logger
	}
}

// WithRateLimitMetrics records rejections on metrics.
func WithRateLimitMetrics(metrics *observability.Metrics) RateLimitOption {
	return func(h *rateLimitHandler) {
		h.metrics = metrics
	}
}

type rateLimitHandler struct {
	limiter ratelimit.Limiter
	keyFunc KeyFunc
	logger  observability.Logger
	metrics *observability.Metrics
}

// RateLimit returns an intermediate handler that rejects requests denied by
// limiter with 429. Limiter failures let the request through. A nil limiter
// admits everything.
func RateLimit(limiter ratelimit.Limiter, keyFunc KeyFunc, opts ...RateLimitOption) handler.Handler {
	h := &rateLimitHandler{
		limiter: limiter,
		keyFunc: keyFunc,
		logger:  observability.NopLogger(),
	}
	if h.limiter == nil {
		h.limiter = ratelimit.Unlimited
	}
	if h.keyFunc == nil {
		h.keyFunc = ClientIPKey(nil)
	}
	for _, opt := range opts {
		opt(h)
	}
	return handler.Intermediate(h.handle)
}

func (h *rateLimitHandler) handle(req *handler.Request, res handler.ResponseWriter, next handler.Next) error {
	key := h.keyFunc(req)

	result, err := h.limiter.Allow(req.Context(), key)
	if err != nil {
		h.logger.Warn("rate limiter failed, allowing request",
			observability.String("key", key),
			observability.Error(err),
		)
		return next()
	}

	result.WriteHeaders(res.Header())
	if result.Allowed {
		return next()
	}

	endpoint := util.EndpointFromContext(req.Context())
	if endpoint == "" {
		endpoint = unknownRoute
	}
	h.metrics.RecordRateLimited(endpoint)

	h.logger.Warn("rate limit exceeded",
		observability.String("key", key),
		observability.String("path", req.Path),
		observability.Error(util.ErrRateLimited),
	)

	return res.Status(http.StatusTooManyRequests).Send(ErrTooManyRequests)
}
