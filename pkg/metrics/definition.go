package metrics

// Kind identifies the aggregation behavior of a metric.
type Kind int

const (
	// KindCounter is a monotonically non-decreasing value.
	KindCounter Kind = iota

	// KindGauge is a value that can go up and down.
	KindGauge

	// KindHistogram accumulates observations into configured buckets plus a
	// running sum and count.
	KindHistogram
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Definition describes a metric before registration. Definitions are
// immutable once registered: the name, kind, label arity and bucket layout
// are fixed for the process lifetime.
type Definition struct {
	// Name is the fully qualified metric name, unique within a registry.
	Name string

	// Help is the metric description emitted in the exposition output.
	Help string

	// Kind selects counter, gauge or histogram semantics.
	Kind Kind

	// Labels is the fixed, ordered list of label names. Updates must supply
	// exactly one value per name, in the same order.
	Labels []string

	// Buckets holds the histogram bucket upper boundaries. Must be strictly
	// ascending. Ignored for counters and gauges. An implicit +Inf bucket is
	// always appended.
	Buckets []float64
}

// validate checks the definition's structural invariants.
func (d Definition) validate() error {
	if d.Name == "" {
		return &InvalidDefinitionError{Name: d.Name, Reason: "name must not be empty"}
	}
	if d.Kind != KindCounter && d.Kind != KindGauge && d.Kind != KindHistogram {
		return &InvalidDefinitionError{Name: d.Name, Reason: "unknown metric kind"}
	}
	seen := make(map[string]struct{}, len(d.Labels))
	for _, l := range d.Labels {
		if l == "" {
			return &InvalidDefinitionError{Name: d.Name, Reason: "label names must not be empty"}
		}
		if _, dup := seen[l]; dup {
			return &InvalidDefinitionError{Name: d.Name, Reason: "duplicate label name " + l}
		}
		seen[l] = struct{}{}
	}
	if d.Kind == KindHistogram {
		for i := 1; i < len(d.Buckets); i++ {
			if d.Buckets[i] <= d.Buckets[i-1] {
				return &InvalidDefinitionError{Name: d.Name, Reason: "bucket boundaries must be strictly ascending"}
			}
		}
	} else if len(d.Buckets) > 0 {
		return &InvalidDefinitionError{Name: d.Name, Reason: "buckets are only valid for histograms"}
	}
	return nil
}
