package export

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"

	"vaani-labs/drishti/pkg/config"
	"vaani-labs/drishti/pkg/logging"
	"vaani-labs/drishti/pkg/metrics"
)

func newTestExporter(t *testing.T) (*Exporter, *metrics.Collector) {
	t.Helper()
	cfg := config.Default()
	reg := metrics.NewRegistry()
	collector, err := metrics.NewCollector(&cfg.Metrics, reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	logger, err := logging.New(logging.Options{Level: "error", Format: "json", Writer: io.Discard})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return NewExporter(cfg, collector, logger), collector
}

func TestWriteTextRoundTrip(t *testing.T) {
	_, collector := newTestExporter(t)
	collector.RecordOutcome(metrics.Outcome{
		Tenant:     "irctc",
		Service:    "translation",
		Route:      "/translation",
		StatusCode: 200,
		Duration:   42 * time.Millisecond,
	})

	var buf bytes.Buffer
	if err := WriteText(collector.Registry(), &buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	parser := expfmt.NewTextParser(model.LegacyValidation)
	families, err := parser.TextToMetricFamilies(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("parsing exposition output: %v", err)
	}

	fam, ok := families["enterprise_observe_requests_total"]
	if !ok {
		t.Fatalf("requests_total missing from output:\n%s", buf.String())
	}
	if got := fam.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
	if _, ok := families["enterprise_observe_request_duration_seconds"]; !ok {
		t.Error("request_duration_seconds missing from output")
	}
}

func TestWriteTextEmptyRegistry(t *testing.T) {
	reg := metrics.NewRegistry()
	var buf bytes.Buffer
	if err := WriteText(reg, &buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	parser := expfmt.NewTextParser(model.LegacyValidation)
	if _, err := parser.TextToMetricFamilies(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("empty output does not parse: %v", err)
	}
}

func TestMetricsEndpointCountsScrapes(t *testing.T) {
	exporter, _ := newTestExporter(t)
	mux := http.NewServeMux()
	exporter.RegisterEndpoints(mux)

	first := httptest.NewRecorder()
	mux.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/enterprise/metrics", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first scrape status = %d", first.Code)
	}
	if strings.Contains(first.Body.String(), "enterprise_observe_metrics_scrapes_total") {
		t.Error("first scrape already reports a scrape count")
	}

	second := httptest.NewRecorder()
	mux.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/enterprise/metrics", nil))
	if !strings.Contains(second.Body.String(), "enterprise_observe_metrics_scrapes_total 1") {
		t.Errorf("second scrape should report one prior scrape:\n%s", second.Body.String())
	}

	if ct := second.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestMetricsEndpointRejectsNonGET(t *testing.T) {
	exporter, _ := newTestExporter(t)
	rec := httptest.NewRecorder()
	exporter.Metrics(rec, httptest.NewRequest(http.MethodPost, "/enterprise/metrics", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodGet {
		t.Errorf("Allow = %q, want GET", rec.Header().Get("Allow"))
	}
}

func TestAllEndpointsRejectNonGET(t *testing.T) {
	exporter, _ := newTestExporter(t)
	endpoints := map[string]http.HandlerFunc{
		"/enterprise/metrics": exporter.Metrics,
		"/enterprise/health":  exporter.Health,
		"/enterprise/config":  exporter.Config,
	}
	for path, handler := range endpoints {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: status = %d, want 405", path, rec.Code)
		}
		if rec.Header().Get("Allow") != http.MethodGet {
			t.Errorf("POST %s: Allow = %q, want GET", path, rec.Header().Get("Allow"))
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	exporter, _ := newTestExporter(t)

	rec := httptest.NewRecorder()
	exporter.Health(rec, httptest.NewRequest(http.MethodGet, "/enterprise/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
	if body["enabled"] != true {
		t.Errorf("enabled = %v", body["enabled"])
	}
	if body["last_scrape"] != nil {
		t.Errorf("last_scrape before any scrape = %v, want null", body["last_scrape"])
	}

	exporter.Metrics(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/enterprise/metrics", nil))
	rec = httptest.NewRecorder()
	exporter.Health(rec, httptest.NewRequest(http.MethodGet, "/enterprise/health", nil))
	body = map[string]any{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["last_scrape"] == nil {
		t.Error("last_scrape still null after a scrape")
	}
}

func TestConfigEndpointRedactsKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Tenants.Resolver = "lookup"
	cfg.Tenants.Keys = map[string]string{"key-a": "irctc", "key-b": "beml"}
	reg := metrics.NewRegistry()
	collector, err := metrics.NewCollector(&cfg.Metrics, reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	logger, _ := logging.New(logging.Options{Level: "error", Format: "json", Writer: io.Discard})
	exporter := NewExporter(cfg, collector, logger)

	rec := httptest.NewRecorder()
	exporter.Config(rec, httptest.NewRequest(http.MethodGet, "/enterprise/config", nil))

	out := rec.Body.String()
	if strings.Contains(out, "key-a") || strings.Contains(out, "key-b") {
		t.Fatalf("config output leaks lookup keys:\n%s", out)
	}
	if !strings.Contains(out, "redacted") {
		t.Errorf("config output lacks redaction marker:\n%s", out)
	}
}
