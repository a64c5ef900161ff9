package plugin

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"vaani-labs/drishti/pkg/classify"
	"vaani-labs/drishti/pkg/config"
	"vaani-labs/drishti/pkg/export"
	"vaani-labs/drishti/pkg/extract"
	"vaani-labs/drishti/pkg/intercept"
	"vaani-labs/drishti/pkg/logging"
	"vaani-labs/drishti/pkg/metrics"
	"vaani-labs/drishti/pkg/quota"
	"vaani-labs/drishti/pkg/sysmetrics"
	"vaani-labs/drishti/pkg/tenant"
)

// Plugin assembles the full observability pipeline behind three calls:
// Middleware wraps the host's handler chain, RegisterEndpoints mounts the
// exposition endpoints, and Start/Close drive the background lifecycle.
type Plugin struct {
	cfg        *config.Config
	configPath string

	logger      *logging.Logger
	registry    *metrics.Registry
	collector   *metrics.Collector
	resolver    *tenant.SwappableResolver
	allowlist   *tenant.Allowlist
	table       *classify.Table
	interceptor *intercept.Interceptor
	exporter    *export.Exporter

	gpuReader sysmetrics.GPUReader

	mu      sync.Mutex
	started bool
	store   *quota.Store
	runner  *sysmetrics.Runner
	watcher *config.Watcher
	wg      sync.WaitGroup
}

// Option customizes plugin construction.
type Option func(*Plugin)

// WithConfigPath enables hot reload of the tenants and routes sections by
// watching the configuration file at path.
func WithConfigPath(path string) Option {
	return func(p *Plugin) { p.configPath = path }
}

// WithGPUReader plugs in a GPU utilization reader for the gpu sampler.
func WithGPUReader(reader sysmetrics.GPUReader) Option {
	return func(p *Plugin) { p.gpuReader = reader }
}

// New builds a plugin from an already loaded configuration. A nil cfg means
// the built-in defaults.
func New(cfg *config.Config, opts ...Option) (*Plugin, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	logger, err := logging.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	registry := metrics.NewRegistry()
	if err := registry.RegisterRuntimeCollectors(); err != nil {
		return nil, err
	}
	collector, err := metrics.NewCollector(&cfg.Metrics, registry)
	if err != nil {
		return nil, err
	}

	p := &Plugin{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		collector: collector,
		resolver:  tenant.NewSwappableResolver(tenant.FromConfig(&cfg.Tenants)),
		allowlist: tenant.NewAllowlist(cfg.Tenants.Allowed),
		table:     classify.FromConfig(cfg.Routes),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.interceptor = intercept.New(intercept.Options{
		Collector:  collector,
		Resolver:   p.resolver,
		Allowlist:  p.allowlist,
		Table:      p.table,
		Extractors: extract.Defaults(),
		Logger:     logger,
		Enabled:    cfg.Enabled,
	})
	p.exporter = export.NewExporter(cfg, collector, logger)

	return p, nil
}

// NewFromFile loads the configuration at path and builds a plugin watching
// that file for tenant and route changes.
func NewFromFile(path string, opts ...Option) (*Plugin, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, append([]Option{WithConfigPath(path)}, opts...)...)
}

// Middleware wraps next with request identification, access logging, and
// measurement.
func (p *Plugin) Middleware(next http.Handler) http.Handler {
	return intercept.RequestID(intercept.AccessLog(p.logger)(p.interceptor.Middleware(next)))
}

// RegisterEndpoints mounts the metrics, health, and config endpoints.
func (p *Plugin) RegisterEndpoints(mux *http.ServeMux) {
	p.exporter.RegisterEndpoints(mux)
}

// Collector exposes the collector for hosts that record their own
// measurements.
func (p *Plugin) Collector() *metrics.Collector {
	return p.collector
}

// Logger exposes the configured logger.
func (p *Plugin) Logger() *logging.Logger {
	return p.logger
}

// Start opens the quota store, begins resource sampling, and starts the
// configuration watcher. Start is not idempotent; call it once.
func (p *Plugin) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("plugin already started")
	}

	if p.cfg.Quota.Enabled {
		store, err := quota.Open(p.cfg.Quota.Path)
		if err != nil {
			return fmt.Errorf("opening quota store: %w", err)
		}
		p.store = store
		if len(p.cfg.Quota.Defaults) > 0 {
			if err := store.Seed(ctx, p.allowlist.List(), p.cfg.Quota.Defaults); err != nil {
				store.Close()
				p.store = nil
				return fmt.Errorf("seeding quotas: %w", err)
			}
		}
		if err := quota.PublishGauges(ctx, store, p.collector); err != nil {
			p.logger.Warn("publishing quota gauges failed", "error", err)
		}
	}

	var samplers []sysmetrics.Sampler
	if p.cfg.Collect.System {
		samplers = append(samplers, sysmetrics.NewRuntimeSampler())
	}
	if p.cfg.Collect.DB && p.store != nil {
		samplers = append(samplers, sysmetrics.NewDBSampler(p.store))
	}
	if p.cfg.Collect.GPU && p.gpuReader != nil {
		samplers = append(samplers, sysmetrics.NewGPUSampler(p.gpuReader))
	}
	p.runner = sysmetrics.NewRunner(p.collector, p.cfg.Collect.Interval, p.logger, samplers...)
	if err := p.runner.Start(ctx); err != nil {
		return fmt.Errorf("starting resource sampling: %w", err)
	}

	if p.configPath != "" {
		watcher, err := config.NewWatcher(p.configPath, p.logger.Slog())
		if err != nil {
			return fmt.Errorf("creating config watcher: %w", err)
		}
		p.watcher = watcher
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			if err := watcher.Watch(ctx, p.applyReload); err != nil {
				p.logger.Error("configuration watcher stopped", "error", err)
			}
		}()
	}

	p.started = true
	p.logger.Info("observability plugin started",
		"enabled", p.cfg.Enabled,
		"metrics_path", p.cfg.Metrics.Path,
		"quota", p.cfg.Quota.Enabled,
	)
	return nil
}

// applyReload swaps the hot-reloadable pieces: the tenant allow-set, the
// resolver, and the route table. Metric naming and bucket layouts stay
// fixed until restart.
func (p *Plugin) applyReload(next *config.Config) {
	p.allowlist.Replace(next.Tenants.Allowed)
	p.resolver.Swap(tenant.FromConfig(&next.Tenants))
	p.table.Reload(classify.RulesFromConfig(next.Routes))
	p.logger.Info("tenant and route configuration applied",
		"tenants", len(next.Tenants.Allowed),
		"routes", len(next.Routes),
	)
}

// Close stops the watcher, the sampler, and the quota store. Close is safe
// to call on a plugin that never started.
func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.watcher != nil {
		if err := p.watcher.Stop(); err != nil {
			p.logger.Warn("stopping config watcher", "error", err)
		}
		p.watcher = nil
	}
	p.wg.Wait()

	if p.runner != nil {
		p.runner.Stop()
		p.runner = nil
	}

	var err error
	if p.store != nil {
		err = p.store.Close()
		p.store = nil
	}
	p.started = false
	return err
}
