package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "metrics.duration_buckets").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// knownResolvers are the accepted tenant resolver strategies.
var knownResolvers = map[string]bool{
	"claims": true,
	"lookup": true,
	"hash":   true,
	"none":   true,
}

// knownServices are the service kinds accepted in route rules and quota
// defaults.
var knownServices = map[string]bool{
	"translation":              true,
	"tts":                      true,
	"asr":                      true,
	"ocr":                      true,
	"ner":                      true,
	"transliteration":          true,
	"language_detection":       true,
	"speaker_diarization":      true,
	"language_diarization":     true,
	"audio_language_detection": true,
	"unknown":                  true,
}

// knownShapes are the coarse payload shapes accepted in route rules.
var knownShapes = map[string]bool{
	"text":  true,
	"audio": true,
	"image": true,
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together so operators can fix a config file in one pass.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateTenants(&cfg.Tenants)...)
	errs = append(errs, validateRoutes(cfg.Routes)...)
	errs = append(errs, validateQuota(&cfg.Quota)...)
	errs = append(errs, validateServer(&cfg.Server)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateMetrics validates metric naming and bucket layouts.
func validateMetrics(cfg *MetricsConfig) []FieldError {
	var errs []FieldError

	for field, path := range map[string]string{
		"metrics.path":        cfg.Path,
		"metrics.health_path": cfg.HealthPath,
		"metrics.config_path": cfg.ConfigPath,
	} {
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("must start with '/', got %q", path),
			})
		}
	}

	if !isMetricIdentifier(cfg.Namespace) {
		errs = append(errs, FieldError{
			Field:   "metrics.namespace",
			Message: fmt.Sprintf("must match [a-zA-Z_][a-zA-Z0-9_]*, got %q", cfg.Namespace),
		})
	}
	if cfg.Subsystem != "" && !isMetricIdentifier(cfg.Subsystem) {
		errs = append(errs, FieldError{
			Field:   "metrics.subsystem",
			Message: fmt.Sprintf("must match [a-zA-Z_][a-zA-Z0-9_]*, got %q", cfg.Subsystem),
		})
	}

	if cfg.ErrorStatusThreshold < 100 || cfg.ErrorStatusThreshold > 599 {
		errs = append(errs, FieldError{
			Field:   "metrics.error_status_threshold",
			Message: fmt.Sprintf("must be a valid HTTP status code, got %d", cfg.ErrorStatusThreshold),
		})
	}
	if cfg.MaxCardinality < 0 {
		errs = append(errs, FieldError{
			Field:   "metrics.max_cardinality",
			Message: "must not be negative",
		})
	}

	for field, buckets := range map[string][]float64{
		"metrics.duration_buckets":      cfg.DurationBuckets,
		"metrics.character_buckets":     cfg.CharacterBuckets,
		"metrics.audio_seconds_buckets": cfg.AudioSecondsBuckets,
		"metrics.token_buckets":         cfg.TokenBuckets,
		"metrics.size_buckets":          cfg.SizeBuckets,
	} {
		if err := validateBuckets(buckets); err != "" {
			errs = append(errs, FieldError{Field: field, Message: err})
		}
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

// validateBuckets checks that histogram boundaries are non-empty and
// strictly ascending. Returns an empty string when valid.
func validateBuckets(buckets []float64) string {
	if len(buckets) == 0 {
		return "must contain at least one boundary"
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return fmt.Sprintf("boundaries must be strictly ascending, got %v <= %v at index %d",
				buckets[i], buckets[i-1], i)
		}
	}
	return ""
}

// validateLogging validates logger configuration.
func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error; got %q", cfg.Level),
		})
	}
	switch cfg.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("must be json or text, got %q", cfg.Format),
		})
	}
	return errs
}

// validateTenants validates tenant resolution configuration.
func validateTenants(cfg *TenantsConfig) []FieldError {
	var errs []FieldError

	if !knownResolvers[cfg.Resolver] {
		errs = append(errs, FieldError{
			Field:   "tenants.resolver",
			Message: fmt.Sprintf("must be one of claims, lookup, hash, none; got %q", cfg.Resolver),
		})
	}
	seen := make(map[string]bool, len(cfg.Allowed))
	for i, tenant := range cfg.Allowed {
		if tenant == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("tenants.allowed[%d]", i),
				Message: "tenant identifier must not be empty",
			})
			continue
		}
		if seen[tenant] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("tenants.allowed[%d]", i),
				Message: fmt.Sprintf("duplicate tenant %q", tenant),
			})
		}
		seen[tenant] = true
	}
	if cfg.Resolver == "lookup" && len(cfg.Keys) == 0 {
		errs = append(errs, FieldError{
			Field:   "tenants.keys",
			Message: "lookup resolver requires at least one key mapping",
		})
	}
	return errs
}

// validateRoutes validates the service-route table.
func validateRoutes(routes []RouteRule) []FieldError {
	var errs []FieldError

	for i, rule := range routes {
		if !strings.HasPrefix(rule.Prefix, "/") {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routes[%d].prefix", i),
				Message: fmt.Sprintf("must start with '/', got %q", rule.Prefix),
			})
		}
		if !knownServices[rule.Service] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routes[%d].service", i),
				Message: fmt.Sprintf("unknown service kind %q", rule.Service),
			})
		}
		if rule.Shape != "" && !knownShapes[rule.Shape] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routes[%d].shape", i),
				Message: fmt.Sprintf("must be text, audio, or image; got %q", rule.Shape),
			})
		}
	}
	return errs
}

// validateQuota validates quota store configuration.
func validateQuota(cfg *QuotaConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "quota.path",
			Message: "path is required when the quota store is enabled",
		})
	}
	for service, quota := range cfg.Defaults {
		if !knownServices[service] {
			errs = append(errs, FieldError{
				Field:   "quota.defaults",
				Message: fmt.Sprintf("unknown service kind %q", service),
			})
		}
		if quota < 0 {
			errs = append(errs, FieldError{
				Field:   "quota.defaults",
				Message: fmt.Sprintf("quota for %q must not be negative", service),
			})
		}
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Message < errs[j].Message })
	return errs
}

// validateServer validates gateway server configuration. Upstream is only
// required when running in gateway mode, which the run command checks; here
// we only reject malformed values.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.Listen == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen",
			Message: "listen address is required",
		})
	}
	if cfg.Upstream != "" {
		u, err := url.Parse(cfg.Upstream)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "server.upstream",
				Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.Upstream),
			})
		}
	}
	for field, d := range map[string]int64{
		"server.read_timeout":     int64(cfg.ReadTimeout),
		"server.write_timeout":    int64(cfg.WriteTimeout),
		"server.idle_timeout":     int64(cfg.IdleTimeout),
		"server.shutdown_timeout": int64(cfg.ShutdownTimeout),
	} {
		if d < 0 {
			errs = append(errs, FieldError{Field: field, Message: "must not be negative"})
		}
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

// isMetricIdentifier reports whether s is a legal metric name segment.
func isMetricIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
