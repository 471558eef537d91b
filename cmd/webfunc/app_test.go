package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/webfunc/internal/config"
	"github.com/vyrodovalexey/webfunc/internal/observability"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *application {
	t.Helper()

	cfg := config.Default()
	cfg.Metrics.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, config.ValidateConfig(cfg))

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { app.shutdown(nil) })
	return app
}

func do(app *application, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, http.NoBody))
	return rec
}

func TestApplication_Health(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)

	rec := do(app, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])

	rec = do(app, http.MethodPost, "/health")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_Echo(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, func(cfg *config.Config) {
		cfg.Headers = map[string]string{"X-Powered-By": "webfunc"}
	})

	rec := do(app, http.MethodPut, "/echo/things?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "webfunc", rec.Header().Get("X-Powered-By"))

	var body echoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.MethodPut, body.Method)
	assert.Equal(t, "/echo/{path}/", body.Route)
	assert.Equal(t, "things", body.Params["path"])
	assert.Equal(t, "5", body.Params["limit"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body.TransactionID)
}

func TestApplication_RateLimit(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RequestsPerSecond = 1
		cfg.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/echo/a").Code)

	rec := do(app, http.MethodGet, "/echo/a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/health").Code)
}

func TestApplication_RedisRateLimit(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	app := newTestApp(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RequestsPerSecond = 2
		cfg.RateLimit.Redis.Address = mr.Addr()
		cfg.RateLimit.Redis.Window = config.Duration(time.Hour)
	})
	require.NotNil(t, app.redisClient)

	assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/echo/a").Code)
	assert.NotEmpty(t, mr.Keys())
}

func TestApplication_ReloadConfig(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	before := app.currentPipeline()

	next := config.Default()
	next.Metrics.Enabled = false
	next.ParamsMode = "none"
	require.NoError(t, app.reloadConfig(next))
	assert.NotSame(t, before, app.currentPipeline())
	assert.Same(t, next, app.currentConfig())

	rec := do(app, http.MethodGet, "/echo/x?q=1")
	var body echoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Params)

	bad := config.Default()
	bad.ParamsMode = "bogus"
	assert.Error(t, app.reloadConfig(bad))
	assert.Same(t, next, app.currentConfig())
}

func TestApplication_CircuitBreaker(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, func(cfg *config.Config) {
		cfg.CircuitBreaker.Enabled = true
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/echo/ok").Code)
	}
}

func TestApplication_ReloadRestartOnlyKeepsPipeline(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	before := app.currentPipeline()
	prev := app.currentConfig()

	next := *prev
	next.Server.Port = prev.Server.Port + 1
	require.NoError(t, app.reloadConfig(&next))

	assert.Same(t, before, app.currentPipeline())
	assert.Same(t, prev, app.currentConfig())
}

func TestNewApplication_TracingRegistersCollectorCheck(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = true
	cfg.Tracing.OTLPEndpoint = "127.0.0.1:1"

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = app.tracer.Shutdown(ctx)
	})

	assert.Contains(t, app.healthChecker.Names(), "otlp")
	assert.Equal(t, http.StatusServiceUnavailable, do(app, http.MethodGet, "/health").Code)
}

func TestNewApplication_NonListeningHosting(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Env.Environments["default"] = config.Environment{HostingType: config.HostingAWS}

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)
	assert.Nil(t, app.server)
	assert.NotNil(t, app.currentPipeline())

	resp, err := app.lambdaHandler()(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/echo/lambda",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, `"path":"/echo/lambda"`)
	assert.NotEmpty(t, resp.Headers["X-Request-Id"])

	resp, err = app.lambdaHandler()(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/missing",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
