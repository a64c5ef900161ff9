package config

import "time"

// Default values for configuration fields.
const (
	// Metrics defaults
	DefaultMetricsPath         = "/enterprise/metrics"
	DefaultHealthPath          = "/enterprise/health"
	DefaultConfigPath          = "/enterprise/config"
	DefaultNamespace           = "enterprise"
	DefaultSubsystem           = "observe"
	DefaultErrorThreshold      = 500
	DefaultMaxCardinality      = 10000

	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"

	// Tenant defaults
	DefaultResolver = "claims"

	// Collect defaults
	DefaultCollectInterval = "@every 10s"

	// Quota defaults
	DefaultQuotaPath = "drishti-quota.db"

	// Server defaults
	DefaultListen          = ":9090"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
)

// Default bucket layouts. Callers must not mutate the returned slices;
// ApplyDefaults copies them into the config.
var (
	// DefaultDurationBuckets are request latency boundaries in seconds.
	DefaultDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

	// DefaultCharacterBuckets are per-request character count boundaries.
	DefaultCharacterBuckets = []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

	// DefaultAudioSecondsBuckets are per-request audio length boundaries
	// in seconds.
	DefaultAudioSecondsBuckets = []float64{1, 5, 10, 30, 50, 60, 120, 300, 600, 1800, 3600}

	// DefaultTokenBuckets are per-request token count boundaries.
	DefaultTokenBuckets = []float64{10, 50, 100, 500, 1000, 5000, 10000}

	// DefaultSizeBuckets are payload size boundaries in bytes,
	// exponential from 1KiB to 4MiB.
	DefaultSizeBuckets = []float64{1024, 4096, 16384, 65536, 262144, 1048576, 4194304}

	// DefaultClaimNames is the claim inspection order for the claims
	// resolver.
	DefaultClaimNames = []string{"organization", "org", "name", "company"}
)

// Default returns a Config populated with every default value. Load starts
// from this and unmarshals the file over it, so explicit false values in the
// file survive for fields whose default is true.
func Default() *Config {
	cfg := &Config{
		Enabled: true,
		Collect: CollectConfig{
			System: true,
			DB:     true,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults. It is idempotent and
// safe to call multiple times. Boolean fields whose default is true are only
// handled by Default, since a zero bool is indistinguishable from an
// explicit false.
func ApplyDefaults(cfg *Config) {
	// Metrics defaults
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.HealthPath == "" {
		cfg.Metrics.HealthPath = DefaultHealthPath
	}
	if cfg.Metrics.ConfigPath == "" {
		cfg.Metrics.ConfigPath = DefaultConfigPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultSubsystem
	}
	if cfg.Metrics.ErrorStatusThreshold == 0 {
		cfg.Metrics.ErrorStatusThreshold = DefaultErrorThreshold
	}
	if cfg.Metrics.MaxCardinality == 0 {
		cfg.Metrics.MaxCardinality = DefaultMaxCardinality
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if len(cfg.Metrics.CharacterBuckets) == 0 {
		cfg.Metrics.CharacterBuckets = append([]float64(nil), DefaultCharacterBuckets...)
	}
	if len(cfg.Metrics.AudioSecondsBuckets) == 0 {
		cfg.Metrics.AudioSecondsBuckets = append([]float64(nil), DefaultAudioSecondsBuckets...)
	}
	if len(cfg.Metrics.TokenBuckets) == 0 {
		cfg.Metrics.TokenBuckets = append([]float64(nil), DefaultTokenBuckets...)
	}
	if len(cfg.Metrics.SizeBuckets) == 0 {
		cfg.Metrics.SizeBuckets = append([]float64(nil), DefaultSizeBuckets...)
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	// Tenant defaults
	if cfg.Tenants.Resolver == "" {
		cfg.Tenants.Resolver = DefaultResolver
	}
	if len(cfg.Tenants.ClaimNames) == 0 {
		cfg.Tenants.ClaimNames = append([]string(nil), DefaultClaimNames...)
	}

	// Collect defaults
	if cfg.Collect.Interval == "" {
		cfg.Collect.Interval = DefaultCollectInterval
	}

	// Quota defaults
	if cfg.Quota.Path == "" {
		cfg.Quota.Path = DefaultQuotaPath
	}

	// Server defaults
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
}
