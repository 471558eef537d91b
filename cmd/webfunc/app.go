package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/webfunc/internal/adapter"
	"github.com/vyrodovalexey/webfunc/internal/config"
	"github.com/vyrodovalexey/webfunc/internal/dispatch"
	"github.com/vyrodovalexey/webfunc/internal/handler"
	"github.com/vyrodovalexey/webfunc/internal/health"
	"github.com/vyrodovalexey/webfunc/internal/middleware"
	"github.com/vyrodovalexey/webfunc/internal/observability"
	"github.com/vyrodovalexey/webfunc/internal/ratelimit"
	"github.com/vyrodovalexey/webfunc/internal/registry"
	"github.com/vyrodovalexey/webfunc/internal/util"
)

// otlpCheckTimeout bounds the trace collector health check.
const otlpCheckTimeout = 2 * time.Second

// application holds all application components.
type application struct {
	logger        observability.Logger
	metrics       *observability.Metrics
	tracer        *observability.Tracer
	healthChecker *health.Checker
	redisClient   *redis.Client
	server        *adapter.Server
	metricsServer *http.Server

	mu       sync.Mutex
	config   *config.Config
	pipeline *dispatch.Pipeline
}

// newApplication initializes all application components.
func newApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	metrics := observability.NewMetrics("webfunc")
	metrics.SetBuildInfo(version, gitCommit, buildTime)

	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, util.WrapError(err, "failed to initialize tracing")
	}

	app := &application{
		logger:        logger,
		metrics:       metrics,
		tracer:        tracer,
		healthChecker: health.NewChecker(version),
		config:        cfg,
	}

	if addr := cfg.RateLimit.Redis.Address; cfg.RateLimit.Enabled && addr != "" {
		client, err := ratelimit.NewRedisClient(context.Background(), addr)
		if err != nil {
			return nil, util.WrapError(err, "failed to connect rate limit store")
		}
		app.redisClient = client
		app.healthChecker.RegisterCheck("redis", health.RedisCheck(client))
	}

	if tc := cfg.Tracing; tc.Enabled && tc.OTLPEndpoint != "" {
		app.healthChecker.RegisterCheck("otlp", health.TCPCheck(tc.OTLPEndpoint, otlpCheckTimeout))
	}

	pipeline, err := app.buildPipeline(cfg)
	if err != nil {
		return nil, err
	}
	app.pipeline = pipeline

	if cfg.HostingType().Listens() {
		app.server, err = adapter.NewServer(adapter.ServerConfigFrom(cfg), pipeline, logger)
		if err != nil {
			return nil, err
		}
	}

	return app, nil
}

// buildPipeline builds a frozen registry and its pipeline from cfg.
func (a *application) buildPipeline(cfg *config.Config) (*dispatch.Pipeline, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}

	reg, err := a.buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	return dispatch.New(reg,
		dispatch.Config{
			Headers:        cfg.Headers,
			ParamsMode:     mode,
			ParamsPropName: cfg.Params.PropName,
		},
		dispatch.WithLogger(a.logger),
		dispatch.WithMetrics(a.metrics),
		dispatch.WithTracer(a.tracer),
		dispatch.WithPostEvent(middleware.AccessLog(a.logger)),
	)
}

// buildRegistry registers the built-in endpoints.
func (a *application) buildRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg := registry.New()

	if err := reg.Get("/health", middleware.RequestID(), a.healthChecker.Handler()); err != nil {
		return nil, err
	}

	chain := append(a.protection(cfg), handler.Terminal(echo))
	if err := reg.Any("/echo/{path}", chain...); err != nil {
		return nil, err
	}

	reg.Freeze()
	for _, ep := range reg.Endpoints() {
		a.logger.Debug("endpoint registered", observability.String("endpoint", ep.String()))
	}
	return reg, nil
}

// protection returns the intermediate handlers guarding application
// endpoints.
func (a *application) protection(cfg *config.Config) []handler.Handler {
	chain := []handler.Handler{middleware.RequestID()}

	if rl := cfg.RateLimit; rl.Enabled {
		key := middleware.GlobalKey
		if rl.PerClient {
			key = middleware.ClientIPKey(middleware.NewClientIPExtractor(rl.TrustedProxies))
		}
		chain = append(chain, middleware.RateLimit(a.limiter(cfg), key,
			middleware.WithRateLimitLogger(a.logger),
			middleware.WithRateLimitMetrics(a.metrics),
		))
	}

	if cb := cfg.CircuitBreaker; cb.Enabled {
		chain = append(chain, middleware.CircuitBreakerHandler("echo", cb.Threshold, cb.Timeout.Duration(),
			middleware.WithCircuitBreakerLogger(a.logger),
			middleware.WithCircuitBreakerStateCallback(a.metrics.SetCircuitBreakerState),
		))
	}

	return chain
}

// limiter returns the Redis limiter when a store is configured, falling
// back to in-process buckets while Redis is unreachable.
func (a *application) limiter(cfg *config.Config) ratelimit.Limiter {
	rl := cfg.RateLimit
	local := ratelimit.NewLocalLimiter(rl.RequestsPerSecond, rl.Burst)
	if a.redisClient == nil {
		return local
	}

	window := rl.Redis.Window.Duration()
	requests := int(float64(rl.RequestsPerSecond) * window.Seconds())
	if requests < 1 {
		requests = 1
	}

	opts := []ratelimit.RedisOption{
		ratelimit.WithFallback(local),
		ratelimit.WithRedisLogger(a.logger),
	}
	if rl.Redis.KeyPrefix != "" {
		opts = append(opts, ratelimit.WithKeyPrefix(rl.Redis.KeyPrefix))
	}
	return ratelimit.NewRedisLimiter(a.redisClient, requests, window, opts...)
}

// echoResponse is the body returned by the echo endpoint.
type echoResponse struct {
	Method        string         `json:"method"`
	Path          string         `json:"path"`
	Route         string         `json:"route"`
	TransactionID string         `json:"transactionId"`
	Params        map[string]any `json:"params"`
}

// echo reflects the request back as JSON.
func echo(req *handler.Request, res handler.ResponseWriter) error {
	resp := echoResponse{
		Method:        req.Method,
		Path:          req.Path,
		TransactionID: req.TransactionID,
		Params:        req.Params(),
	}
	if req.Match != nil {
		resp.Route = req.Match.Route
	}
	return res.Send(resp)
}

// currentPipeline returns the pipeline serving requests.
func (a *application) currentPipeline() *dispatch.Pipeline {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pipeline
}

// currentConfig returns the configuration in effect.
func (a *application) currentConfig() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config
}
