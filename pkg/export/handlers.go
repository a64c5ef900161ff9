package export

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"vaani-labs/drishti/pkg/config"
	"vaani-labs/drishti/pkg/logging"
	"vaani-labs/drishti/pkg/metrics"
)

// Exporter serves the exposition, health, and effective-configuration
// endpoints.
type Exporter struct {
	cfg       *config.Config
	collector *metrics.Collector
	logger    *logging.Logger
	started   time.Time

	// lastScrape holds the UnixNano of the most recent successful scrape,
	// zero before the first one.
	lastScrape atomic.Int64
}

// NewExporter creates an Exporter over the collector's registry.
func NewExporter(cfg *config.Config, collector *metrics.Collector, logger *logging.Logger) *Exporter {
	return &Exporter{
		cfg:       cfg,
		collector: collector,
		logger:    logger,
		started:   time.Now(),
	}
}

// RegisterEndpoints mounts the three endpoints on mux at the configured
// paths.
func (e *Exporter) RegisterEndpoints(mux *http.ServeMux) {
	mux.Handle(e.cfg.Metrics.Path, http.HandlerFunc(e.Metrics))
	mux.Handle(e.cfg.Metrics.HealthPath, http.HandlerFunc(e.Health))
	mux.Handle(e.cfg.Metrics.ConfigPath, http.HandlerFunc(e.Config))
}

// Metrics serves the Prometheus text exposition. Each successful scrape
// increments the scrape counter, so the counter's value on the wire counts
// scrapes before this one.
func (e *Exporter) Metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	if err := WriteText(e.collector.Registry(), &buf); err != nil {
		e.logger.ErrorContext(r.Context(), "metrics export failed", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	e.collector.RecordScrape()
	e.lastScrape.Store(time.Now().UnixNano())

	w.Header().Set("Content-Type", string(TextFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Health reports liveness plus a little operational state.
func (e *Exporter) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body := map[string]any{
		"status":         "ok",
		"enabled":        e.cfg.Enabled,
		"uptime_seconds": int64(time.Since(e.started).Seconds()),
	}
	if ts := e.lastScrape.Load(); ts > 0 {
		body["last_scrape"] = time.Unix(0, ts).UTC().Format(time.RFC3339)
	} else {
		body["last_scrape"] = nil
	}
	writeJSON(w, http.StatusOK, body)
}

// Config serves the effective configuration with credential material
// redacted.
func (e *Exporter) Config(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, e.cfg.Redacted())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
