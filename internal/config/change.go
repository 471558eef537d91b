package config

import (
	"reflect"
)

// Restart-only settings reported by Compare.
const (
	SettingServer      = "server"
	SettingEnvironment = "env"
	SettingLogging     = "logging"
	SettingMetrics     = "metrics"
	SettingTracing     = "tracing"
	SettingRedis       = "rateLimit.redis.address"
)

// Change classifies the difference between two configurations.
type Change struct {
	// Pipeline is set when dispatch settings differ. A pipeline built from
	// the new configuration can be swapped in while serving.
	Pipeline bool

	// Restart names the settings that only take effect on restart.
	Restart []string
}

// Empty reports whether the two configurations are equivalent.
func (c Change) Empty() bool {
	return !c.Pipeline && len(c.Restart) == 0
}

// Compare reports how next differs from prev.
func Compare(prev, next *Config) Change {
	var c Change

	c.Pipeline = !reflect.DeepEqual(pipelineSettings(prev), pipelineSettings(next))

	if prev.Server != next.Server || prev.ListenPort() != next.ListenPort() {
		c.Restart = append(c.Restart, SettingServer)
	}
	if prev.HostingType() != next.HostingType() {
		c.Restart = append(c.Restart, SettingEnvironment)
	}
	if prev.Logging != next.Logging {
		c.Restart = append(c.Restart, SettingLogging)
	}
	if prev.Metrics != next.Metrics {
		c.Restart = append(c.Restart, SettingMetrics)
	}
	if prev.Tracing != next.Tracing {
		c.Restart = append(c.Restart, SettingTracing)
	}
	if prev.RateLimit.Redis.Address != next.RateLimit.Redis.Address {
		c.Restart = append(c.Restart, SettingRedis)
	}

	return c
}

// pipelineView holds the settings a dispatch pipeline is built from.
type pipelineView struct {
	Headers        map[string]string
	ParamsMode     string
	Params         ParamsConfig
	RateLimit      RateLimitConfig
	CircuitBreaker CircuitBreakerConfig
}

func pipelineSettings(cfg *Config) pipelineView {
	v := pipelineView{
		Headers:        cfg.Headers,
		ParamsMode:     cfg.ParamsMode,
		Params:         cfg.Params,
		RateLimit:      cfg.RateLimit,
		CircuitBreaker: cfg.CircuitBreaker,
	}
	if len(v.Headers) == 0 {
		v.Headers = nil
	}
	// The store address is restart-only.
	v.RateLimit.Redis.Address = ""
	if len(v.RateLimit.TrustedProxies) == 0 {
		v.RateLimit.TrustedProxies = nil
	}
	return v
}
