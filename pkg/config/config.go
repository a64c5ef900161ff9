package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the observability engine. It contains
// all sections for the interceptor, metric registry, tenant resolution,
// service routing, resource collection, and the standalone gateway server.
//
// The engine never loads configuration on its own initiative: the host
// process (or the drishti CLI) loads it once at startup and hands the
// resulting Config to the plugin.
type Config struct {
	// Enabled controls whether the interceptor records anything at all.
	// When false the middleware passes requests through untouched.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Debug lowers the log level to debug and enables verbose
	// instrumentation logging regardless of Logging.Level.
	// Default: false
	Debug bool `yaml:"debug"`

	// Metrics contains metric registry, endpoint, and histogram bucket
	// configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging contains structured logger configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Tenants contains tenant resolution configuration including the
	// closed allow-set of recognized organizations.
	Tenants TenantsConfig `yaml:"tenants"`

	// Routes is the service-route table mapping path prefixes to service
	// kinds. An empty list means the built-in default table.
	Routes []RouteRule `yaml:"routes"`

	// Collect contains periodic resource sampler configuration.
	Collect CollectConfig `yaml:"collect"`

	// Quota contains tenant quota store configuration.
	Quota QuotaConfig `yaml:"quota"`

	// Server contains standalone gateway mode configuration, used only by
	// the drishti run command.
	Server ServerConfig `yaml:"server"`
}

// MetricsConfig contains configuration for metric naming, the exposition
// endpoints, and histogram bucket layouts.
type MetricsConfig struct {
	// Path is the scrape endpoint path.
	// Default: "/enterprise/metrics"
	Path string `yaml:"path"`

	// HealthPath is the health endpoint path.
	// Default: "/enterprise/health"
	HealthPath string `yaml:"health_path"`

	// ConfigPath is the effective-configuration endpoint path.
	// Default: "/enterprise/config"
	ConfigPath string `yaml:"config_path"`

	// Namespace is the metric name prefix applied to every metric.
	// Default: "enterprise"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem segment between the namespace and
	// the metric name.
	// Default: "observe"
	Subsystem string `yaml:"subsystem"`

	// ErrorStatusThreshold is the lowest HTTP status code counted as an
	// error by the error counter.
	// Default: 500
	ErrorStatusThreshold int `yaml:"error_status_threshold"`

	// MaxCardinality caps the number of distinct request label sets the
	// collector will track before collapsing new routes to "other".
	// Default: 10000
	MaxCardinality int `yaml:"max_cardinality"`

	// DurationBuckets are the request latency histogram boundaries in
	// seconds, strictly ascending.
	// Default: [0.1, 0.25, 0.5, 1, 2, 5, 10, 30]
	DurationBuckets []float64 `yaml:"duration_buckets"`

	// CharacterBuckets are the per-request character count boundaries.
	// Default: [10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000]
	CharacterBuckets []float64 `yaml:"character_buckets"`

	// AudioSecondsBuckets are the per-request audio length boundaries in
	// seconds.
	// Default: [1, 5, 10, 30, 50, 60, 120, 300, 600, 1800, 3600]
	AudioSecondsBuckets []float64 `yaml:"audio_seconds_buckets"`

	// TokenBuckets are the per-request token count boundaries.
	// Default: [10, 50, 100, 500, 1000, 5000, 10000]
	TokenBuckets []float64 `yaml:"token_buckets"`

	// SizeBuckets are the payload size boundaries in bytes.
	// Default: exponential from 1KiB to 4MiB
	SizeBuckets []float64 `yaml:"size_buckets"`
}

// LoggingConfig contains structured logger configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// TenantsConfig contains tenant resolution configuration.
type TenantsConfig struct {
	// Allowed is the closed allow-set of recognized tenant identifiers.
	// Any resolved value outside this set is bucketed as "unknown" so
	// arbitrary credentials can never mint new label values.
	Allowed []string `yaml:"allowed"`

	// Resolver selects the resolution strategy: "claims" reads JWT claims
	// without signature verification, "lookup" maps opaque API keys
	// through the Keys table, "hash" derives a stable placeholder from
	// the raw credential, and "none" disables resolution entirely.
	// Default: "claims"
	Resolver string `yaml:"resolver"`

	// ClaimNames is the ordered list of claim names the claims resolver
	// inspects; the first present non-empty string value wins.
	// Default: [organization, org, name, company]
	ClaimNames []string `yaml:"claim_names"`

	// Keys maps opaque API keys to tenant identifiers for the lookup
	// resolver. Values are secret material and are redacted from the
	// config endpoint.
	Keys map[string]string `yaml:"keys"`
}

// RouteRule maps a path prefix to a service kind. Shape optionally gates the
// rule on the coarse payload shape ("text", "audio", "image") so ambiguous
// prefixes can be disambiguated by what the request carries.
type RouteRule struct {
	Prefix  string `yaml:"prefix"`
	Service string `yaml:"service"`
	Shape   string `yaml:"shape,omitempty"`
}

// CollectConfig contains periodic resource sampler configuration. Sampling
// runs on its own schedule, decoupled from the request path.
type CollectConfig struct {
	// System enables process CPU and memory sampling.
	// Default: true
	System bool `yaml:"system"`

	// GPU enables the pluggable GPU utilization sampler.
	// Default: false
	GPU bool `yaml:"gpu"`

	// DB enables database pool stat sampling from the quota store.
	// Default: true
	DB bool `yaml:"db"`

	// Interval is the cron schedule for sampling runs.
	// Default: "@every 10s"
	Interval string `yaml:"interval"`
}

// QuotaConfig contains tenant quota store configuration.
type QuotaConfig struct {
	// Enabled controls whether the sqlite quota store is opened and
	// monthly quota gauges are published.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the sqlite database file path.
	// Default: "drishti-quota.db"
	Path string `yaml:"path"`

	// Defaults maps service kind to the default monthly quota seeded for
	// each allowed tenant on first start.
	Defaults map[string]float64 `yaml:"defaults"`
}

// ServerConfig contains configuration for the standalone gateway mode.
type ServerConfig struct {
	// Listen is the address and port the gateway binds to.
	// Format: "host:port". Default: ":9090"
	Listen string `yaml:"listen"`

	// Upstream is the base URL intercepted requests are proxied to.
	// Required in gateway mode.
	Upstream string `yaml:"upstream"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are abandoned. Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ConfigurationError reports an invalid configuration value. Configuration
// errors are fatal at startup: the process refuses to start collecting
// rather than run with corrupt metric definitions.
type ConfigurationError struct {
	// Field is the dotted path of the offending field.
	Field string

	// Reason describes why the value was rejected.
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// Redacted returns the effective configuration as a generic map suitable for
// the config endpoint. Secret material is removed: the lookup resolver's key
// table is replaced by a count.
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"enabled": c.Enabled,
		"debug":   c.Debug,
		"metrics": map[string]any{
			"path":                   c.Metrics.Path,
			"health_path":            c.Metrics.HealthPath,
			"config_path":            c.Metrics.ConfigPath,
			"namespace":              c.Metrics.Namespace,
			"subsystem":              c.Metrics.Subsystem,
			"error_status_threshold": c.Metrics.ErrorStatusThreshold,
			"max_cardinality":        c.Metrics.MaxCardinality,
		},
		"logging": map[string]any{
			"level":  c.Logging.Level,
			"format": c.Logging.Format,
		},
		"tenants": map[string]any{
			"allowed":     append([]string(nil), c.Tenants.Allowed...),
			"resolver":    c.Tenants.Resolver,
			"claim_names": append([]string(nil), c.Tenants.ClaimNames...),
			"keys":        fmt.Sprintf("<redacted:%d>", len(c.Tenants.Keys)),
		},
		"routes": c.routeSummary(),
		"collect": map[string]any{
			"system":   c.Collect.System,
			"gpu":      c.Collect.GPU,
			"db":       c.Collect.DB,
			"interval": c.Collect.Interval,
		},
		"quota": map[string]any{
			"enabled": c.Quota.Enabled,
			"path":    c.Quota.Path,
		},
	}
}

func (c *Config) routeSummary() []map[string]string {
	out := make([]map[string]string, 0, len(c.Routes))
	for _, r := range c.Routes {
		entry := map[string]string{"prefix": r.Prefix, "service": r.Service}
		if r.Shape != "" {
			entry["shape"] = r.Shape
		}
		out = append(out, entry)
	}
	return out
}
