package config

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/vyrodovalexey/webfunc/internal/params"
)

// HostingType names the environment a deployment runs in.
type HostingType string

// Hosting types.
const (
	HostingLocalhost HostingType = "localhost"
	HostingNow       HostingType = "now"
	HostingExpress   HostingType = "express"
	HostingGCP       HostingType = "gcp"
	HostingAWS       HostingType = "aws"
)

// Listens reports whether the hosting type runs its own HTTP listener.
// aws invokes the handler through the Lambda runtime instead.
func (h HostingType) Listens() bool {
	switch h {
	case HostingLocalhost, HostingNow, HostingExpress, HostingGCP:
		return true
	default:
		return false
	}
}

// DefaultEnvironment is the environment name used when none is configured.
const DefaultEnvironment = "default"

// Config is the root configuration document.
type Config struct {
	// Headers are the response headers applied to every request. The
	// Access-Control-* entries form the CORS policy.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// ParamsMode selects which parameter sources are merged: all, body,
	// route or none.
	ParamsMode string `yaml:"paramsMode" json:"paramsMode"`

	Params         ParamsConfig         `yaml:"params" json:"params"`
	Env            EnvConfig            `yaml:"env" json:"env"`
	Server         ServerConfig         `yaml:"server" json:"server"`
	Logging        LoggingConfig        `yaml:"logging" json:"logging"`
	Metrics        MetricsConfig        `yaml:"metrics" json:"metrics"`
	Tracing        TracingConfig        `yaml:"tracing" json:"tracing"`
	RateLimit      RateLimitConfig      `yaml:"rateLimit" json:"rateLimit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker" json:"circuitBreaker"`
}

// ParamsConfig configures where merged parameters are exposed.
type ParamsConfig struct {
	PropName string `yaml:"propName" json:"propName"`
}

// EnvConfig selects the active environment. Every key other than active
// names an environment.
type EnvConfig struct {
	Active       string                 `yaml:"active" json:"active"`
	Environments map[string]Environment `yaml:",inline" json:"-" validate:"dive"`
}

// Environment holds per-environment settings.
type Environment struct {
	HostingType HostingType `yaml:"hostingType" json:"hostingType" validate:"required,oneof=localhost now express gcp aws"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string   `yaml:"address" json:"address"`
	Port            int      `yaml:"port" json:"port" validate:"min=0,max=65535"`
	ReadTimeout     Duration `yaml:"readTimeout" json:"readTimeout" validate:"min=0"`
	WriteTimeout    Duration `yaml:"writeTimeout" json:"writeTimeout" validate:"min=0"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout" json:"shutdownTimeout" validate:"min=0"`
	MaxBodyBytes    int64    `yaml:"maxBodyBytes" json:"maxBodyBytes" validate:"min=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=json console"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port" validate:"min=0,max=65535"`
	Path    string `yaml:"path" json:"path" validate:"required,startswith=/"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint" json:"otlpEndpoint"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate" validate:"min=0,max=1"`
	ServiceName  string  `yaml:"serviceName" json:"serviceName"`
}

// RateLimitConfig configures the built-in rate limit handler.
type RateLimitConfig struct {
	Enabled           bool        `yaml:"enabled" json:"enabled"`
	RequestsPerSecond int         `yaml:"requestsPerSecond" json:"requestsPerSecond" validate:"min=0"`
	Burst             int         `yaml:"burst" json:"burst" validate:"min=0"`
	PerClient         bool        `yaml:"perClient" json:"perClient"`
	TrustedProxies    []string    `yaml:"trustedProxies,omitempty" json:"trustedProxies,omitempty" validate:"dive,cidr|ip"`
	Redis             RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig configures the shared Redis limiter store. An empty address
// keeps limits in process memory.
type RedisConfig struct {
	Address   string   `yaml:"address" json:"address" validate:"omitempty,hostname_port"`
	KeyPrefix string   `yaml:"keyPrefix" json:"keyPrefix"`
	Window    Duration `yaml:"window" json:"window" validate:"min=0"`
}

// CircuitBreakerConfig configures the built-in circuit breaker handler.
type CircuitBreakerConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Threshold int      `yaml:"threshold" json:"threshold" validate:"min=0"`
	Timeout   Duration `yaml:"timeout" json:"timeout" validate:"min=0"`
}

// Default returns the configuration used for absent keys.
func Default() *Config {
	return &Config{
		Headers:    map[string]string{},
		ParamsMode: string(params.ModeAll),
		Params:     ParamsConfig{PropName: "params"},
		Env: EnvConfig{
			Active: DefaultEnvironment,
			Environments: map[string]Environment{
				DefaultEnvironment: {HostingType: HostingLocalhost},
			},
		},
		Server: ServerConfig{
			Port:            4000,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
			MaxBodyBytes:    10 << 20,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true, Port: 9090, Path: "/metrics"},
		Tracing: TracingConfig{SamplingRate: 1.0, ServiceName: "webfunc"},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             20,
			PerClient:         true,
			Redis:             RedisConfig{Window: Duration(time.Second)},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Threshold: 5,
			Timeout:   Duration(30 * time.Second),
		},
	}
}

// ActiveEnvironment returns the settings of the active environment.
func (c *Config) ActiveEnvironment() (Environment, bool) {
	env, ok := c.Env.Environments[c.Env.Active]
	return env, ok
}

// HostingType returns the hosting type of the active environment,
// defaulting to localhost.
func (c *Config) HostingType() HostingType {
	if env, ok := c.ActiveEnvironment(); ok && env.HostingType != "" {
		return env.HostingType
	}
	return HostingLocalhost
}

// PortEnv carries the listen port on Cloud Run and Cloud Functions.
const PortEnv = "PORT"

// ListenPort returns the port to bind. gcp takes it from $PORT when set.
func (c *Config) ListenPort() int {
	if c.HostingType() == HostingGCP {
		if port, err := strconv.Atoi(os.Getenv(PortEnv)); err == nil && port > 0 {
			return port
		}
	}
	return c.Server.Port
}

// Mode parses ParamsMode.
func (c *Config) Mode() (params.Mode, error) {
	return params.ParseMode(c.ParamsMode)
}
