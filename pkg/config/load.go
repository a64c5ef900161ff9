package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// Unmarshaling starts from the full default configuration so explicit false
// values in the file survive for fields whose default is true. The result is
// validated before being returned; use LoadConfigWithEnvOverrides for
// environment variable support.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses YAML configuration bytes over the defaults and
// validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Fill anything the file zeroed back in (empty bucket lists, paths).
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention DRISHTI_SECTION_FIELD (e.g., DRISHTI_METRICS_PATH) and always
// take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Apply default values
// 2. Load YAML from file
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format DRISHTI_SECTION_FIELD.
func ApplyEnvOverrides(cfg *Config) {
	if val := os.Getenv("DRISHTI_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Enabled = b
		}
	}
	if val := os.Getenv("DRISHTI_DEBUG"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = b
		}
	}

	// Metrics overrides
	if val := os.Getenv("DRISHTI_METRICS_PATH"); val != "" {
		cfg.Metrics.Path = val
	}
	if val := os.Getenv("DRISHTI_METRICS_HEALTH_PATH"); val != "" {
		cfg.Metrics.HealthPath = val
	}
	if val := os.Getenv("DRISHTI_METRICS_CONFIG_PATH"); val != "" {
		cfg.Metrics.ConfigPath = val
	}
	if val := os.Getenv("DRISHTI_METRICS_NAMESPACE"); val != "" {
		cfg.Metrics.Namespace = val
	}
	if val := os.Getenv("DRISHTI_METRICS_SUBSYSTEM"); val != "" {
		cfg.Metrics.Subsystem = val
	}
	if val := os.Getenv("DRISHTI_METRICS_ERROR_STATUS_THRESHOLD"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Metrics.ErrorStatusThreshold = i
		}
	}
	if val := os.Getenv("DRISHTI_METRICS_MAX_CARDINALITY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Metrics.MaxCardinality = i
		}
	}

	// Logging overrides
	if val := os.Getenv("DRISHTI_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("DRISHTI_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// Tenant overrides
	if val := os.Getenv("DRISHTI_TENANTS_ALLOWED"); val != "" {
		cfg.Tenants.Allowed = splitList(val)
	}
	if val := os.Getenv("DRISHTI_TENANTS_RESOLVER"); val != "" {
		cfg.Tenants.Resolver = val
	}
	if val := os.Getenv("DRISHTI_TENANTS_CLAIM_NAMES"); val != "" {
		cfg.Tenants.ClaimNames = splitList(val)
	}

	// Collect overrides
	if val := os.Getenv("DRISHTI_COLLECT_SYSTEM"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Collect.System = b
		}
	}
	if val := os.Getenv("DRISHTI_COLLECT_GPU"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Collect.GPU = b
		}
	}
	if val := os.Getenv("DRISHTI_COLLECT_DB"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Collect.DB = b
		}
	}
	if val := os.Getenv("DRISHTI_COLLECT_INTERVAL"); val != "" {
		cfg.Collect.Interval = val
	}

	// Quota overrides
	if val := os.Getenv("DRISHTI_QUOTA_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Quota.Enabled = b
		}
	}
	if val := os.Getenv("DRISHTI_QUOTA_PATH"); val != "" {
		cfg.Quota.Path = val
	}

	// Server overrides
	if val := os.Getenv("DRISHTI_SERVER_LISTEN"); val != "" {
		cfg.Server.Listen = val
	}
	if val := os.Getenv("DRISHTI_SERVER_UPSTREAM"); val != "" {
		cfg.Server.Upstream = val
	}
	if val := os.Getenv("DRISHTI_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("DRISHTI_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("DRISHTI_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
}

// splitList splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
