package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/webfunc/internal/observability"
)

// DefaultKeyPrefix namespaces limiter keys in Redis.
const DefaultKeyPrefix = "webfunc:ratelimit:"

// fixedWindowScript counts requests in the current window.
// Returns: allowed (0 or 1), remaining count, reset time in ms.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local window_start = math.floor(now / window_ms) * window_ms
	local window_key = key .. ':' .. window_start

	local count = tonumber(redis.call('GET', window_key) or '0')

	local allowed = 0
	if count + 1 <= limit then
		count = redis.call('INCRBY', window_key, 1)
		if count == 1 then
			redis.call('PEXPIRE', window_key, window_ms)
		end
		allowed = 1
	end

	return {allowed, limit - count, window_start + window_ms - now}
`)

// RedisLimiter is a fixed-window limiter whose counters live in Redis, so
// every instance sharing the server enforces one budget.
type RedisLimiter struct {
	client   redis.Scripter
	requests int
	window   time.Duration
	prefix   string
	fallback Limiter
	logger   observability.Logger
	now      func() time.Time
}

// RedisOption configures a RedisLimiter.
type RedisOption func(*RedisLimiter)

// WithFallback answers checks locally while Redis is failing.
func WithFallback(l Limiter) RedisOption {
	return func(r *RedisLimiter) {
		r.fallback = l
	}
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisLimiter) {
		r.prefix = prefix
	}
}

// WithRedisLogger sets the logger.
func WithRedisLogger(logger observability.Logger) RedisOption {
	return func(r *RedisLimiter) {
		r.logger = logger
	}
}

// NewRedisLimiter creates a limiter allowing requests per window.
func NewRedisLimiter(client redis.Scripter, requests int, window time.Duration, opts ...RedisOption) *RedisLimiter {
	if window <= 0 {
		window = time.Second
	}
	r := &RedisLimiter{
		client:   client,
		requests: requests,
		window:   window,
		prefix:   DefaultKeyPrefix,
		logger:   observability.NopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Allow implements Limiter.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	metrics := getRedisLimiterMetrics()
	start := time.Now()

	res, err := r.allowRedis(ctx, key)
	metrics.duration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.operations.WithLabelValues("error").Inc()
		if r.fallback == nil {
			return nil, err
		}
		r.logger.Warn("redis rate limit failed, using fallback",
			observability.String("key", key),
			observability.Error(err),
		)
		metrics.fallbacks.Inc()
		return r.fallback.Allow(ctx, key)
	}

	metrics.operations.WithLabelValues("success").Inc()
	return res, nil
}

func (r *RedisLimiter) allowRedis(ctx context.Context, key string) (*Result, error) {
	raw, err := fixedWindowScript.Run(ctx, r.client,
		[]string{r.prefix + key},
		r.requests,
		r.window.Milliseconds(),
		r.now().UnixMilli(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("fixed window script error: %w", err)
	}
	return r.parseScriptResult(raw)
}

// parseScriptResult parses [allowed, remaining, reset_ms].
func (r *RedisLimiter) parseScriptResult(raw interface{}) (*Result, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) < 3 {
		return nil, fmt.Errorf("unexpected script result format: %v", raw)
	}

	res := &Result{Limit: r.requests}
	if v, ok := values[0].(int64); ok && v == 1 {
		res.Allowed = true
	}
	if v, ok := values[1].(int64); ok && v > 0 {
		res.Remaining = int(v)
	}
	if v, ok := values[2].(int64); ok && !res.Allowed {
		res.RetryAfter = time.Duration(v) * time.Millisecond
	}
	return res, nil
}
