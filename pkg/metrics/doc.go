// Package metrics provides the concurrent metric registry and the domain
// collector for the drishti observability engine.
//
// # Overview
//
// The Registry holds named counters, gauges, and histograms with fixed label
// schemas. Definitions are immutable once registered; updates are atomic and
// safe for concurrent use, so N concurrent increments of delta d always
// total exactly N*d. The Collector sits on top of the registry and owns the
// full fixed metric set for request interception: per-tenant request
// counters, latency and payload histograms, business measurement histograms,
// and resource gauges.
//
// # Usage
//
//	reg := metrics.NewRegistry()
//	collector, err := metrics.NewCollector(&cfg.Metrics, reg)
//	if err != nil {
//		return err
//	}
//
//	collector.RecordOutcome(metrics.Outcome{
//		Tenant:     "irctc",
//		Service:    "translation",
//		Route:      "/translate",
//		StatusCode: 200,
//		Duration:   120 * time.Millisecond,
//	})
//
//	collector.RecordBusiness("irctc", "translation", []metrics.Increment{
//		{Metric: metrics.MetricCharacters, Value: 42},
//	})
//
// # Cardinality
//
// The tenant allow-set, the route table, and status code classes bound label
// cardinality by construction. The CardinalityLimiter is the hard backstop:
// once the configured limit is reached, new route label values collapse to
// "other" so the registry's memory stays bounded under misconfiguration.
package metrics
