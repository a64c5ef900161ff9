package sysmetrics

import (
	"context"
	"fmt"
	"runtime/metrics"
	"sync"
	"time"

	drishti "vaani-labs/drishti/pkg/metrics"
	"vaani-labs/drishti/pkg/quota"
)

// Sampler reads one family of resource gauges into the collector.
type Sampler interface {
	// Name identifies the sampler in logs.
	Name() string

	// Sample reads the current values and publishes them.
	Sample(ctx context.Context, c *drishti.Collector) error
}

const (
	cpuMetric    = "/cpu/classes/total:cpu-seconds"
	memoryMetric = "/memory/classes/total:bytes"
)

// RuntimeSampler publishes process CPU and memory gauges from the Go
// runtime. CPU percent is the share of wall time the process spent on CPU
// since the previous sample, so the first sample publishes only memory.
type RuntimeSampler struct {
	mu       sync.Mutex
	lastCPU  float64
	lastTime time.Time
	samples  []metrics.Sample
}

// NewRuntimeSampler creates a RuntimeSampler.
func NewRuntimeSampler() *RuntimeSampler {
	return &RuntimeSampler{
		samples: []metrics.Sample{
			{Name: cpuMetric},
			{Name: memoryMetric},
		},
	}
}

func (s *RuntimeSampler) Name() string { return "runtime" }

func (s *RuntimeSampler) Sample(ctx context.Context, c *drishti.Collector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics.Read(s.samples)

	if s.samples[1].Value.Kind() == metrics.KindUint64 {
		c.SetSystemMemory(float64(s.samples[1].Value.Uint64()))
	}

	if s.samples[0].Value.Kind() != metrics.KindFloat64 {
		return nil
	}
	cpuSeconds := s.samples[0].Value.Float64()
	now := time.Now()
	if !s.lastTime.IsZero() {
		elapsed := now.Sub(s.lastTime).Seconds()
		if elapsed > 0 {
			percent := (cpuSeconds - s.lastCPU) / elapsed * 100
			if percent < 0 {
				percent = 0
			}
			c.SetSystemCPU(percent)
		}
	}
	s.lastCPU = cpuSeconds
	s.lastTime = now
	return nil
}

// DBSampler publishes the quota store's connection pool gauges.
type DBSampler struct {
	store *quota.Store
}

// NewDBSampler creates a DBSampler over the given store.
func NewDBSampler(store *quota.Store) *DBSampler {
	return &DBSampler{store: store}
}

func (s *DBSampler) Name() string { return "db" }

func (s *DBSampler) Sample(ctx context.Context, c *drishti.Collector) error {
	if s.store == nil {
		return fmt.Errorf("quota store not configured")
	}
	stats := s.store.Stats()
	c.SetDBPoolStats(stats.Open, stats.InUse, stats.Idle)
	return nil
}

// GPUReader reports device utilization. Deployments plug in a reader backed
// by whatever management library their hardware ships with.
type GPUReader interface {
	Utilization(ctx context.Context) (float64, error)
}

// GPUReaderFunc adapts a function to the GPUReader interface.
type GPUReaderFunc func(ctx context.Context) (float64, error)

func (f GPUReaderFunc) Utilization(ctx context.Context) (float64, error) { return f(ctx) }

// GPUSampler publishes the GPU utilization gauge from a pluggable reader.
type GPUSampler struct {
	reader GPUReader
}

// NewGPUSampler creates a GPUSampler over reader.
func NewGPUSampler(reader GPUReader) *GPUSampler {
	return &GPUSampler{reader: reader}
}

func (s *GPUSampler) Name() string { return "gpu" }

func (s *GPUSampler) Sample(ctx context.Context, c *drishti.Collector) error {
	if s.reader == nil {
		return fmt.Errorf("gpu reader not configured")
	}
	percent, err := s.reader.Utilization(ctx)
	if err != nil {
		return fmt.Errorf("reading gpu utilization: %w", err)
	}
	c.SetGPUUtilization(percent)
	return nil
}
