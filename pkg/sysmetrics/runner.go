package sysmetrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"vaani-labs/drishti/pkg/logging"
	drishti "vaani-labs/drishti/pkg/metrics"
)

// sampleTimeout bounds one sampling pass so a stuck reader cannot pile up
// cron invocations.
const sampleTimeout = 5 * time.Second

// Runner drives a set of samplers on a cron schedule.
type Runner struct {
	collector *drishti.Collector
	samplers  []Sampler
	schedule  string
	cron      *cron.Cron
	logger    *logging.Logger
	mu        sync.Mutex
	running   bool
	stopped   chan struct{}
}

// NewRunner creates a Runner. The schedule accepts standard cron syntax and
// the descriptors cron/v3 supports, such as "@every 10s".
func NewRunner(collector *drishti.Collector, schedule string, logger *logging.Logger, samplers ...Sampler) *Runner {
	return &Runner{
		collector: collector,
		samplers:  samplers,
		schedule:  schedule,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start begins scheduled sampling and runs one immediate pass so gauges are
// populated before the first tick. A Runner with no samplers does nothing.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samplers) == 0 {
		r.logger.Info("no resource samplers configured, skipping runner")
		return nil
	}

	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid sampling schedule %q: %w", r.schedule, err)
	}

	if _, err := r.cron.AddFunc(r.schedule, func() {
		r.runOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sampling: %w", err)
	}

	r.runOnce(ctx)
	r.cron.Start()
	r.running = true
	r.stopped = make(chan struct{})

	names := make([]string, 0, len(r.samplers))
	for _, s := range r.samplers {
		names = append(names, s.Name())
	}
	r.logger.Info("resource sampling started",
		"schedule", r.schedule,
		"samplers", names,
	)

	go func(stopped chan struct{}) {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-stopped:
		}
	}(r.stopped)

	return nil
}

// runOnce executes every sampler under a shared timeout. One failing
// sampler does not stop the others.
func (r *Runner) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sampleTimeout)
	defer cancel()

	for _, s := range r.samplers {
		if err := s.Sample(ctx, r.collector); err != nil {
			r.logger.Warn("sampler failed",
				"sampler", s.Name(),
				"error", err,
			)
		}
	}
}

// Stop stops the schedule and waits for a running pass to complete. Stop is
// safe to call on a Runner that never started.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil && r.running {
		<-r.cron.Stop().Done()
		r.running = false
		close(r.stopped)
		r.logger.Info("resource sampling stopped")
	}
}
