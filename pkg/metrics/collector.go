package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"vaani-labs/drishti/pkg/config"
)

// Logical business metric names. Extractors emit increments against these
// names; the collector maps them to the per-tenant histograms and the
// data_processed counter.
const (
	MetricCharacters   = "characters_processed"
	MetricAudioSeconds = "audio_seconds_processed"
	MetricTokens       = "tokens_processed"
	MetricImageBytes   = "image_bytes_processed"
)

// Error type label values for the error counter.
const (
	ErrorTypeClient   = "client_error"
	ErrorTypeServer   = "server_error"
	ErrorTypeHandler  = "handler_error"
	ErrorTypeCanceled = "canceled"
)

// RouteOverflow is the route label used once the cardinality limiter
// refuses new label sets.
const RouteOverflow = "other"

// Outcome describes one finished request as seen by the interceptor.
type Outcome struct {
	// Tenant is the resolved organization label, already normalized
	// against the allow-set.
	Tenant string

	// Service is the classified service kind label.
	Service string

	// Route is the matched route-table pattern, not the raw request
	// path, so its cardinality is bounded by the table.
	Route string

	// StatusCode is the final HTTP status code.
	StatusCode int

	// Duration is the wall time from interception to response.
	Duration time.Duration

	// RequestBytes and ResponseBytes are raw payload sizes. Negative
	// values mean unknown and are not recorded.
	RequestBytes  int64
	ResponseBytes int64

	// ErrorKind overrides status-based error classification for
	// failures that never produced a status, such as handler panics
	// ("handler_error") and context cancellation ("canceled").
	ErrorKind string
}

// Increment is one business measurement extracted from a request or
// response payload.
type Increment struct {
	// Metric is one of the logical business metric names.
	Metric string

	// Value is the measured amount, in the metric's unit.
	Value float64
}

// Collector owns the full fixed metric set and exposes typed record methods
// to the interceptor, the samplers, and the quota store. All metric names
// and label sets are declared once at construction; the hot path only ever
// touches pre-registered metrics.
type Collector struct {
	cfg      *config.MetricsConfig
	registry *Registry
	limiter  *CardinalityLimiter

	// Full metric names, built from namespace and subsystem once.
	nameRequests  string
	nameDuration  string
	nameErrors    string
	nameSizeBytes string
	nameData      string
	nameComponent string
	nameScrapes   string
	nameCPU       string
	nameMemory    string
	nameDBPool    string
	nameGPU       string
	nameQuota     string
	businessNames map[string]string
}

// NewCollector registers the full metric set on reg and returns the
// collector. Invalid bucket layouts surface as a ConfigurationError; the
// caller is expected to treat that as fatal rather than start with a partial
// metric set.
func NewCollector(cfg *config.MetricsConfig, reg *Registry) (*Collector, error) {
	c := &Collector{
		cfg:      cfg,
		registry: reg,
		limiter:  NewCardinalityLimiter(cfg.MaxCardinality),
	}

	prefix := metricPrefix(cfg.Namespace, cfg.Subsystem)
	c.nameRequests = prefix + "requests_total"
	c.nameDuration = prefix + "request_duration_seconds"
	c.nameErrors = prefix + "errors_total"
	c.nameSizeBytes = prefix + "request_size_bytes"
	c.nameData = prefix + "data_processed_total"
	c.nameComponent = prefix + "component_latency_seconds"
	c.nameScrapes = prefix + "metrics_scrapes_total"
	c.nameCPU = prefix + "system_cpu_percent"
	c.nameMemory = prefix + "system_memory_bytes"
	c.nameDBPool = prefix + "db_pool_connections"
	c.nameGPU = prefix + "gpu_utilization_percent"
	c.nameQuota = prefix + "tenant_monthly_quota"
	c.businessNames = map[string]string{
		MetricCharacters:   prefix + MetricCharacters,
		MetricAudioSeconds: prefix + MetricAudioSeconds,
		MetricTokens:       prefix + MetricTokens,
		MetricImageBytes:   prefix + MetricImageBytes,
	}

	defs := []Definition{
		{
			Name:   c.nameRequests,
			Help:   "Total number of intercepted requests",
			Kind:   KindCounter,
			Labels: []string{"organization", "service", "route", "status_code"},
		},
		{
			Name:    c.nameDuration,
			Help:    "Request duration in seconds",
			Kind:    KindHistogram,
			Labels:  []string{"organization", "service", "route"},
			Buckets: cfg.DurationBuckets,
		},
		{
			Name:   c.nameErrors,
			Help:   "Total number of failed requests by error type",
			Kind:   KindCounter,
			Labels: []string{"organization", "service", "error_type"},
		},
		{
			Name:    c.nameSizeBytes,
			Help:    "Request and response payload sizes in bytes",
			Kind:    KindHistogram,
			Labels:  []string{"organization", "service", "direction"},
			Buckets: cfg.SizeBuckets,
		},
		{
			Name:   c.nameData,
			Help:   "Total units of data processed by data type",
			Kind:   KindCounter,
			Labels: []string{"organization", "service", "data_type"},
		},
		{
			Name:    c.nameComponent,
			Help:    "Inference component latency in seconds",
			Kind:    KindHistogram,
			Labels:  []string{"organization", "service"},
			Buckets: cfg.DurationBuckets,
		},
		{
			Name:    c.businessNames[MetricCharacters],
			Help:    "Characters processed per request",
			Kind:    KindHistogram,
			Labels:  []string{"organization", "service"},
			Buckets: cfg.CharacterBuckets,
		},
		{
			Name:    c.businessNames[MetricAudioSeconds],
			Help:    "Audio seconds processed per request",
			Kind:    KindHistogram,
			Labels:  []string{"organization", "service"},
			Buckets: cfg.AudioSecondsBuckets,
		},
		{
			Name:    c.businessNames[MetricTokens],
			Help:    "Tokens processed per request",
			Kind:    KindHistogram,
			Labels:  []string{"organization", "service"},
			Buckets: cfg.TokenBuckets,
		},
		{
			Name:    c.businessNames[MetricImageBytes],
			Help:    "Image bytes processed per request",
			Kind:    KindHistogram,
			Labels:  []string{"organization", "service"},
			Buckets: cfg.SizeBuckets,
		},
		{
			Name: c.nameScrapes,
			Help: "Total number of metrics endpoint scrapes",
			Kind: KindCounter,
		},
		{
			Name: c.nameCPU,
			Help: "Process CPU utilization percentage",
			Kind: KindGauge,
		},
		{
			Name: c.nameMemory,
			Help: "Process resident memory in bytes",
			Kind: KindGauge,
		},
		{
			Name:   c.nameDBPool,
			Help:   "Database connection pool connections by state",
			Kind:   KindGauge,
			Labels: []string{"state"},
		},
		{
			Name: c.nameGPU,
			Help: "GPU utilization percentage",
			Kind: KindGauge,
		},
		{
			Name:   c.nameQuota,
			Help:   "Configured monthly quota per tenant and service",
			Kind:   KindGauge,
			Labels: []string{"organization", "service"},
		},
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return nil, &config.ConfigurationError{
				Field:  "metrics",
				Reason: fmt.Sprintf("registering %s: %v", def.Name, err),
			}
		}
	}
	return c, nil
}

// Registry returns the underlying registry, for exposition and snapshots.
func (c *Collector) Registry() *Registry {
	return c.registry
}

// RecordOutcome records the request counter, latency, error counter, and
// payload sizes for one finished request. When the cardinality limiter
// refuses a new label set the route collapses to RouteOverflow so the tenant
// and service dimensions survive.
func (c *Collector) RecordOutcome(o Outcome) {
	route := o.Route
	if route == "" {
		route = "unmatched"
	}
	if !c.limiter.Allow(o.Tenant + ":" + o.Service + ":" + route) {
		route = RouteOverflow
	}

	status := strconv.Itoa(o.StatusCode)
	_ = c.registry.Increment(c.nameRequests, []string{o.Tenant, o.Service, route, status}, 1)
	_ = c.registry.Observe(c.nameDuration, []string{o.Tenant, o.Service, route}, o.Duration.Seconds())

	if errType := c.errorType(o); errType != "" {
		_ = c.registry.Increment(c.nameErrors, []string{o.Tenant, o.Service, errType}, 1)
	}

	if o.RequestBytes >= 0 {
		_ = c.registry.Observe(c.nameSizeBytes, []string{o.Tenant, o.Service, "request"}, float64(o.RequestBytes))
	}
	if o.ResponseBytes >= 0 {
		_ = c.registry.Observe(c.nameSizeBytes, []string{o.Tenant, o.Service, "response"}, float64(o.ResponseBytes))
	}
}

// errorType classifies the outcome for the error counter. An explicit
// ErrorKind always wins; otherwise the status code decides, gated on the
// configured threshold.
func (c *Collector) errorType(o Outcome) string {
	if o.ErrorKind != "" {
		return o.ErrorKind
	}
	if o.StatusCode < c.cfg.ErrorStatusThreshold {
		return ""
	}
	if o.StatusCode >= 500 {
		return ErrorTypeServer
	}
	return ErrorTypeClient
}

// RecordBusiness records extracted business measurements for one request.
// Unknown logical metric names are skipped; each recorded increment also
// feeds the data_processed counter with the metric's data type.
func (c *Collector) RecordBusiness(tenant, service string, incs []Increment) {
	for _, inc := range incs {
		name, ok := c.businessNames[inc.Metric]
		if !ok || inc.Value < 0 {
			continue
		}
		_ = c.registry.Observe(name, []string{tenant, service}, inc.Value)
		_ = c.registry.Increment(c.nameData, []string{tenant, service, dataType(inc.Metric)}, inc.Value)
	}
}

// RecordComponentLatency records the latency reported by the inference
// backend itself, as opposed to the end-to-end duration.
func (c *Collector) RecordComponentLatency(tenant, service string, d time.Duration) {
	_ = c.registry.Observe(c.nameComponent, []string{tenant, service}, d.Seconds())
}

// RecordScrape counts one scrape of the metrics endpoint.
func (c *Collector) RecordScrape() {
	_ = c.registry.Increment(c.nameScrapes, nil, 1)
}

// SetSystemCPU sets the process CPU utilization gauge.
func (c *Collector) SetSystemCPU(percent float64) {
	_ = c.registry.Set(c.nameCPU, nil, percent)
}

// SetSystemMemory sets the process resident memory gauge.
func (c *Collector) SetSystemMemory(bytes float64) {
	_ = c.registry.Set(c.nameMemory, nil, bytes)
}

// SetDBPoolStats sets the connection pool gauges.
func (c *Collector) SetDBPoolStats(open, inUse, idle int) {
	_ = c.registry.Set(c.nameDBPool, []string{"open"}, float64(open))
	_ = c.registry.Set(c.nameDBPool, []string{"in_use"}, float64(inUse))
	_ = c.registry.Set(c.nameDBPool, []string{"idle"}, float64(idle))
}

// SetGPUUtilization sets the GPU utilization gauge.
func (c *Collector) SetGPUUtilization(percent float64) {
	_ = c.registry.Set(c.nameGPU, nil, percent)
}

// SetTenantQuota publishes the configured monthly quota for one tenant and
// service.
func (c *Collector) SetTenantQuota(tenant, service string, quota float64) {
	_ = c.registry.Set(c.nameQuota, []string{tenant, service}, quota)
}

// dataType maps a logical business metric name to its data_processed label.
func dataType(metric string) string {
	switch metric {
	case MetricCharacters:
		return "characters"
	case MetricAudioSeconds:
		return "audio_seconds"
	case MetricTokens:
		return "tokens"
	case MetricImageBytes:
		return "image_bytes"
	default:
		return strings.TrimSuffix(metric, "_processed")
	}
}

// metricPrefix joins non-empty name segments with underscores, trailing
// underscore included so callers can append the metric name directly.
func metricPrefix(namespace, subsystem string) string {
	var sb strings.Builder
	if namespace != "" {
		sb.WriteString(namespace)
		sb.WriteByte('_')
	}
	if subsystem != "" {
		sb.WriteString(subsystem)
		sb.WriteByte('_')
	}
	return sb.String()
}
