package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/vyrodovalexey/webfunc/internal/handler"
)

// DefaultCheckTimeout bounds each check run.
const DefaultCheckTimeout = 5 * time.Second

// Status represents the health status.
type Status string

const (
	// StatusOK indicates every check passed.
	StatusOK Status = "ok"
	// StatusUnhealthy indicates at least one check failed.
	StatusUnhealthy Status = "unhealthy"
)

// Response represents the health check response.
type Response struct {
	Status    Status            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// CheckFunc is a function that performs a health check.
type CheckFunc func(ctx context.Context) error

// Checker provides health checking functionality.
type Checker struct {
	version   string
	startTime time.Time
	timeout   time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker creates a new health checker.
func NewChecker(version string) *Checker {
	return &Checker{
		version:   version,
		startTime: time.Now(),
		timeout:   DefaultCheckTimeout,
		checks:    make(map[string]CheckFunc),
	}
}

// SetTimeout overrides DefaultCheckTimeout.
func (c *Checker) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// RegisterCheck registers a health check function.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a health check function.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Names returns the registered check names in sorted order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Health runs every check concurrently and reports the aggregate status.
// Only failing checks are listed.
func (c *Checker) Health(ctx context.Context) Response {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures = make(map[string]string)
	)
	metrics := getHealthMetrics()
	for name, fn := range checks {
		wg.Add(1)
		go func(name string, fn CheckFunc) {
			defer wg.Done()
			start := time.Now()
			err := fn(ctx)
			metrics.record(name, err == nil, time.Since(start))
			if err != nil {
				mu.Lock()
				failures[name] = err.Error()
				mu.Unlock()
			}
		}(name, fn)
	}
	wg.Wait()

	resp := Response{
		Status:    StatusOK,
		Version:   c.version,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
	if len(failures) > 0 {
		resp.Status = StatusUnhealthy
		resp.Checks = failures
	}
	return resp
}

// Handler returns a terminal handler serving the health response.
func (c *Checker) Handler() handler.Handler {
	return handler.Terminal(func(req *handler.Request, res handler.ResponseWriter) error {
		resp := c.Health(req.Context())

		status := http.StatusOK
		if resp.Status != StatusOK {
			status = http.StatusServiceUnavailable
		}
		res.Header().Set("Cache-Control", "no-store")
		return res.Status(status).Send(resp)
	})
}
