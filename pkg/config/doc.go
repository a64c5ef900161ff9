// Package config provides configuration management for the drishti
// observability engine.
//
// This package handles loading, validating, and watching configuration from
// YAML files with environment variable overrides. The engine never loads
// configuration on its own initiative: the host process loads it once at
// startup and passes the resulting Config to the plugin.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("drishti.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("drishti.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention DRISHTI_SECTION_FIELD.
// For example:
//
//   - DRISHTI_METRICS_PATH overrides metrics.path
//   - DRISHTI_LOGGING_LEVEL overrides logging.level
//   - DRISHTI_TENANTS_ALLOWED overrides tenants.allowed (comma-separated)
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated automatically during loading. Histogram
// bucket layouts must be strictly ascending, endpoint paths must be
// absolute, and resolver and service names must come from the known sets.
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - metrics.duration_buckets: boundaries must be strictly ascending, got 1 <= 2 at index 3
//	  - tenants.resolver: must be one of claims, lookup, hash, none; got "jwt"
//
// # Hot Reload
//
// A Watcher can monitor the configuration file and deliver freshly loaded
// configurations through a callback. A reload that fails validation is
// dropped and the previous configuration stays in effect.
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	enabled: true
//
//	metrics:
//	  namespace: "enterprise"
//	  path: "/enterprise/metrics"
//
//	tenants:
//	  allowed: [irctc, kisanmitra, bashadaan, beml]
//	  resolver: "claims"
//
//	logging:
//	  level: "info"
//	  format: "json"
package config
