package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds all registered metrics and their per-LabelSet samples.
//
// Updates to an individual sample are lock-free atomic operations (delegated
// to the underlying Prometheus vectors), so N concurrent increments of delta
// d always total exactly N*d. Creation of a sample for a label set seen for
// the first time is synchronized inside the vector, so concurrent first
// observations never create duplicate storage. Snapshot gathers each metric
// family under a bounded critical section per metric rather than a global
// stop-the-world lock.
//
// Samples live for the process lifetime; cardinality is bounded by the
// callers (tenant allow-set, route table, status classes), not by eviction.
type Registry struct {
	mu   sync.RWMutex
	prom *prometheus.Registry
	defs map[string]*metricEntry
}

type metricEntry struct {
	def       Definition
	counter   *prometheus.CounterVec
	gauge     *prometheus.GaugeVec
	histogram *prometheus.HistogramVec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		prom: prometheus.NewRegistry(),
		defs: make(map[string]*metricEntry),
	}
}

// Register adds a metric definition. It returns a DuplicateMetricError if the
// name is taken and an InvalidDefinitionError if the definition is malformed.
// Definitions cannot be changed or removed once registered.
func (r *Registry) Register(def Definition) error {
	if err := def.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return &DuplicateMetricError{Name: def.Name}
	}

	entry := &metricEntry{def: def}
	labels := append([]string(nil), def.Labels...)

	switch def.Kind {
	case KindCounter:
		entry.counter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: def.Name,
			Help: def.Help,
		}, labels)
		if err := r.prom.Register(entry.counter); err != nil {
			return &DuplicateMetricError{Name: def.Name}
		}
	case KindGauge:
		entry.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: def.Name,
			Help: def.Help,
		}, labels)
		if err := r.prom.Register(entry.gauge); err != nil {
			return &DuplicateMetricError{Name: def.Name}
		}
	case KindHistogram:
		buckets := append([]float64(nil), def.Buckets...)
		if len(buckets) == 0 {
			buckets = prometheus.DefBuckets
		}
		entry.histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    def.Name,
			Help:    def.Help,
			Buckets: buckets,
		}, labels)
		if err := r.prom.Register(entry.histogram); err != nil {
			return &DuplicateMetricError{Name: def.Name}
		}
	}

	r.defs[def.Name] = entry
	return nil
}

// lookup fetches the entry for name and checks label arity.
func (r *Registry) lookup(name string, labels []string) (*metricEntry, error) {
	r.mu.RLock()
	entry, ok := r.defs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownMetricError{Name: name}
	}
	if len(labels) != len(entry.def.Labels) {
		return nil, &LabelArityError{Name: name, Want: len(entry.def.Labels), Got: len(labels)}
	}
	return entry, nil
}

// Increment atomically adds delta to the counter or gauge sample identified
// by the label values, creating the sample on first use. Counter deltas must
// be non-negative.
func (r *Registry) Increment(name string, labels []string, delta float64) error {
	entry, err := r.lookup(name, labels)
	if err != nil {
		return err
	}

	switch entry.def.Kind {
	case KindCounter:
		if delta < 0 {
			return &KindMismatchError{Name: name, Kind: KindCounter, Op: "negative increment"}
		}
		entry.counter.WithLabelValues(labels...).Add(delta)
	case KindGauge:
		entry.gauge.WithLabelValues(labels...).Add(delta)
	default:
		return &KindMismatchError{Name: name, Kind: entry.def.Kind, Op: "increment"}
	}
	return nil
}

// Set sets the gauge sample identified by the label values to value.
func (r *Registry) Set(name string, labels []string, value float64) error {
	entry, err := r.lookup(name, labels)
	if err != nil {
		return err
	}
	if entry.def.Kind != KindGauge {
		return &KindMismatchError{Name: name, Kind: entry.def.Kind, Op: "set"}
	}
	entry.gauge.WithLabelValues(labels...).Set(value)
	return nil
}

// Observe routes value into the histogram sample identified by the label
// values, updating every bucket with boundary >= value plus the sum and
// count. The bucket update is all-or-nothing with respect to Snapshot.
func (r *Registry) Observe(name string, labels []string, value float64) error {
	entry, err := r.lookup(name, labels)
	if err != nil {
		return err
	}
	if entry.def.Kind != KindHistogram {
		return &KindMismatchError{Name: name, Kind: entry.def.Kind, Op: "observe"}
	}
	entry.histogram.WithLabelValues(labels...).Observe(value)
	return nil
}

// Definition returns the registered definition for name, if any.
func (r *Registry) Definition(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.defs[name]
	if !ok {
		return Definition{}, false
	}
	return entry.def, true
}

// Snapshot returns a point-in-time copy of all samples. The snapshot reflects
// a state consistent with every update that completed before the call; no
// sample is ever read in a torn state.
func (r *Registry) Snapshot() ([]*dto.MetricFamily, error) {
	return r.prom.Gather()
}

// Reset clears all sample state while keeping every definition registered.
// Intended for tests.
func (r *Registry) Reset() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.defs {
		switch entry.def.Kind {
		case KindCounter:
			entry.counter.Reset()
		case KindGauge:
			entry.gauge.Reset()
		case KindHistogram:
			entry.histogram.Reset()
		}
	}
}

// Prometheus exposes the backing Prometheus registry, used to attach process
// and runtime collectors and the scrape handler.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.prom
}

// RegisterRuntimeCollectors attaches the client_golang Go runtime and
// process collectors, so go_* and process_* families appear alongside the
// domain metrics.
func (r *Registry) RegisterRuntimeCollectors() error {
	if err := r.prom.Register(collectors.NewGoCollector()); err != nil {
		return fmt.Errorf("registering go collector: %w", err)
	}
	if err := r.prom.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return fmt.Errorf("registering process collector: %w", err)
	}
	return nil
}

// Handler returns the HTTP scrape handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
