package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/webfunc/internal/handler"
	"github.com/vyrodovalexey/webfunc/internal/observability"
	"github.com/vyrodovalexey/webfunc/internal/ratelimit"
	"github.com/vyrodovalexey/webfunc/internal/util"
)

type stubLimiter struct {
	result *ratelimit.Result
	err    error
	keys   []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (*ratelimit.Result, error) {
	s.keys = append(s.keys, key)
	return s.result, s.err
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		limiter        *stubLimiter
		wantStatus     int
		wantBody       string
		wantRetryAfter string
		wantRemaining  string
	}{
		{
			name:          "allowed",
			limiter:       &stubLimiter{result: &ratelimit.Result{Allowed: true, Limit: 10, Remaining: 9}},
			wantStatus:    http.StatusOK,
			wantBody:      "ok",
			wantRemaining: "9",
		},
		{
			name: "denied",
			limiter: &stubLimiter{result: &ratelimit.Result{
				Limit: 10, RetryAfter: 1500 * time.Millisecond,
			}},
			wantStatus:     http.StatusTooManyRequests,
			wantBody:       ErrTooManyRequests,
			wantRetryAfter: "2",
			wantRemaining:  "0",
		},
		{
			name:           "denied with sub-second wait",
			limiter:        &stubLimiter{result: &ratelimit.Result{Limit: 1, RetryAfter: time.Millisecond}},
			wantStatus:     http.StatusTooManyRequests,
			wantBody:       ErrTooManyRequests,
			wantRetryAfter: "1",
			wantRemaining:  "0",
		},
		{
			name:       "limiter error fails open",
			limiter:    &stubLimiter{err: errors.New("redis down")},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := newTestRequest("GET", "/items/")
			rec, err := run(t, req, RateLimit(tt.limiter, nil), okHandler())
			require.NoError(t, err)

			requireBody(t, rec, tt.wantStatus, tt.wantBody)
			assert.Equal(t, tt.wantRetryAfter, rec.Header().Get(ratelimit.HeaderRetryAfter))
			assert.Equal(t, tt.wantRemaining, rec.Header().Get(ratelimit.HeaderRemaining))
			assert.Equal(t, []string{"192.0.2.10"}, tt.limiter.keys)
		})
	}
}

func TestRateLimit_KeyFunc(t *testing.T) {
	t.Parallel()

	limiter := &stubLimiter{result: &ratelimit.Result{Allowed: true}}
	_, err := run(t, newTestRequest("GET", "/"), RateLimit(limiter, GlobalKey), okHandler())
	require.NoError(t, err)
	assert.Equal(t, []string{"global"}, limiter.keys)
}

func TestRateLimit_LocalLimiter(t *testing.T) {
	t.Parallel()

	h := RateLimit(ratelimit.NewLocalLimiter(1, 2), ClientIPKey(nil))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec, err := run(t, newTestRequest("GET", "/"), h, okHandler())
		require.NoError(t, err)
		statuses = append(statuses, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimit_RecordsRejection(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := observability.NewLoggerWithWriter("debug", &buf)
	require.NoError(t, err)
	metrics := observability.NewMetrics("test")

	limiter := &stubLimiter{result: &ratelimit.Result{Limit: 1}}
	req := newTestRequest("GET", "/items/42/")
	req.SetContext(util.ContextWithEndpoint(req.Context(), "/items/{id}/"))

	h := RateLimit(limiter, nil, WithRateLimitLogger(logger), WithRateLimitMetrics(metrics))
	rec, err := run(t, req, h, okHandler())
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	count, err := testutil.GatherAndCount(metrics.Registry(), "test_rate_limited_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, buf.String(), "rate limit exceeded")
}

func TestRateLimit_NilLimiterAdmits(t *testing.T) {
	t.Parallel()

	rec, err := run(t, newTestRequest("GET", "/"), RateLimit(nil, GlobalKey), okHandler())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

var _ handler.Handler = RateLimit(ratelimit.Unlimited, GlobalKey)
