package sysmetrics

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"vaani-labs/drishti/pkg/config"
	"vaani-labs/drishti/pkg/logging"
	drishti "vaani-labs/drishti/pkg/metrics"
	"vaani-labs/drishti/pkg/quota"
)

func newTestCollector(t *testing.T) (*drishti.Collector, *drishti.Registry) {
	t.Helper()
	cfg := config.Default()
	reg := drishti.NewRegistry()
	collector, err := drishti.NewCollector(&cfg.Metrics, reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	return collector, reg
}

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(logging.Options{Level: "error", Format: "json", Writer: io.Discard})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return logger
}

func gaugeFamily(t *testing.T, reg *drishti.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == name {
			return fam
		}
	}
	return nil
}

func TestRuntimeSamplerPublishesMemoryThenCPU(t *testing.T) {
	collector, reg := newTestCollector(t)
	sampler := NewRuntimeSampler()
	ctx := context.Background()

	if err := sampler.Sample(ctx, collector); err != nil {
		t.Fatalf("first Sample: %v", err)
	}
	mem := gaugeFamily(t, reg, "enterprise_observe_system_memory_bytes")
	if mem == nil || mem.GetMetric()[0].GetGauge().GetValue() <= 0 {
		t.Fatal("memory gauge not published on first sample")
	}
	if gaugeFamily(t, reg, "enterprise_observe_system_cpu_percent") != nil {
		t.Error("cpu gauge published before a baseline exists")
	}

	if err := sampler.Sample(ctx, collector); err != nil {
		t.Fatalf("second Sample: %v", err)
	}
	cpu := gaugeFamily(t, reg, "enterprise_observe_system_cpu_percent")
	if cpu == nil {
		t.Fatal("cpu gauge missing after second sample")
	}
	if v := cpu.GetMetric()[0].GetGauge().GetValue(); v < 0 {
		t.Errorf("cpu percent = %v, want >= 0", v)
	}
}

func TestDBSamplerPublishesPoolGauges(t *testing.T) {
	collector, reg := newTestCollector(t)
	store, err := quota.Open(filepath.Join(t.TempDir(), "quota.db"))
	if err != nil {
		t.Fatalf("quota.Open: %v", err)
	}
	defer store.Close()

	sampler := NewDBSampler(store)
	if err := sampler.Sample(context.Background(), collector); err != nil {
		t.Fatalf("Sample: %v", err)
	}

	fam := gaugeFamily(t, reg, "enterprise_observe_db_pool_connections")
	if fam == nil {
		t.Fatal("db_pool_connections missing")
	}
	states := map[string]bool{}
	for _, m := range fam.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "state" {
				states[lp.GetValue()] = true
			}
		}
	}
	for _, want := range []string{"open", "in_use", "idle"} {
		if !states[want] {
			t.Errorf("missing pool state series %q", want)
		}
	}
}

func TestDBSamplerWithoutStore(t *testing.T) {
	collector, _ := newTestCollector(t)
	sampler := NewDBSampler(nil)
	if err := sampler.Sample(context.Background(), collector); err == nil {
		t.Fatal("expected error for missing store")
	}
}

func TestGPUSampler(t *testing.T) {
	collector, reg := newTestCollector(t)

	sampler := NewGPUSampler(GPUReaderFunc(func(ctx context.Context) (float64, error) {
		return 42.5, nil
	}))
	if err := sampler.Sample(context.Background(), collector); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	fam := gaugeFamily(t, reg, "enterprise_observe_gpu_utilization_percent")
	if fam == nil || fam.GetMetric()[0].GetGauge().GetValue() != 42.5 {
		t.Fatal("gpu gauge not published")
	}

	failing := NewGPUSampler(GPUReaderFunc(func(ctx context.Context) (float64, error) {
		return 0, errors.New("nvml unavailable")
	}))
	if err := failing.Sample(context.Background(), collector); err == nil {
		t.Fatal("expected reader error to propagate")
	}
}

type countingSampler struct {
	calls atomic.Int64
	err   error
}

func (s *countingSampler) Name() string { return "counting" }

func (s *countingSampler) Sample(ctx context.Context, c *drishti.Collector) error {
	s.calls.Add(1)
	return s.err
}

func TestRunnerImmediatePassAndStop(t *testing.T) {
	collector, _ := newTestCollector(t)
	sampler := &countingSampler{}
	runner := NewRunner(collector, "@every 1h", newTestLogger(t), sampler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := sampler.calls.Load(); got != 1 {
		t.Errorf("immediate pass calls = %d, want 1", got)
	}
	runner.Stop()
	runner.Stop() // idempotent
}

func TestRunnerInvalidSchedule(t *testing.T) {
	collector, _ := newTestCollector(t)
	runner := NewRunner(collector, "not a schedule", newTestLogger(t), &countingSampler{})
	if err := runner.Start(context.Background()); err == nil {
		t.Fatal("expected schedule validation error")
	}
}

func TestRunnerSamplerFailureDoesNotStopOthers(t *testing.T) {
	collector, _ := newTestCollector(t)
	failing := &countingSampler{err: errors.New("boom")}
	healthy := &countingSampler{}
	runner := NewRunner(collector, "@every 1h", newTestLogger(t), failing, healthy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer runner.Stop()

	if healthy.calls.Load() != 1 {
		t.Error("healthy sampler skipped after earlier failure")
	}
}

func TestRunnerStopReleasesWatcher(t *testing.T) {
	collector, _ := newTestCollector(t)
	runner := NewRunner(collector, "@every 1h", newTestLogger(t), &countingSampler{})

	// A background context never cancels, so the watcher goroutine must be
	// released by Stop itself.
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	runner.Stop()

	select {
	case <-runner.stopped:
	case <-time.After(time.Second):
		t.Fatal("watcher goroutine not signalled after Stop")
	}
}

func TestRunnerNoSamplers(t *testing.T) {
	collector, _ := newTestCollector(t)
	runner := NewRunner(collector, "@every 1h", newTestLogger(t))
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start with no samplers: %v", err)
	}
	runner.Stop()
}
