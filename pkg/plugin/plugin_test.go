package plugin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"vaani-labs/drishti/pkg/config"
)

func TestNewWithDefaults(t *testing.T) {
	p, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Collector() == nil {
		t.Fatal("collector not built")
	}
	if p.Logger() == nil {
		t.Fatal("logger not built")
	}
}

func TestMiddlewareAndEndpointsEndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mux := http.NewServeMux()
	p.RegisterEndpoints(mux)
	mux.Handle("/", p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/translation/v1",
		strings.NewReader(`{"input":[{"source":"Hello World"}]}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("request status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}

	scrape := httptest.NewRecorder()
	mux.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/enterprise/metrics", nil))
	if scrape.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", scrape.Code)
	}
	body := scrape.Body.String()
	if !strings.Contains(body, "enterprise_observe_requests_total") {
		t.Errorf("scrape output lacks requests_total:\n%s", body)
	}
	if !strings.Contains(body, `service="translation"`) {
		t.Errorf("scrape output lacks translation series:\n%s", body)
	}
	if !strings.Contains(body, "enterprise_observe_characters_processed") {
		t.Errorf("scrape output lacks characters histogram:\n%s", body)
	}

	health := httptest.NewRecorder()
	mux.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/enterprise/health", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("health status = %d", health.Code)
	}
}

func TestStartWithQuotaPublishesGauges(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Tenants.Allowed = []string{"irctc", "beml"}
	cfg.Quota.Enabled = true
	cfg.Quota.Path = filepath.Join(t.TempDir(), "quota.db")
	cfg.Quota.Defaults = map[string]float64{"translation": 1_000_000}
	cfg.Collect.System = false
	cfg.Collect.DB = true

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Close()

	if err := p.Start(ctx); err == nil {
		t.Error("second Start accepted")
	}

	mux := http.NewServeMux()
	p.RegisterEndpoints(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/enterprise/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "enterprise_observe_tenant_monthly_quota") {
		t.Errorf("quota gauges missing:\n%s", body)
	}
	if !strings.Contains(body, `organization="beml"`) {
		t.Errorf("seeded beml quota missing:\n%s", body)
	}
	if !strings.Contains(body, "enterprise_observe_db_pool_connections") {
		t.Errorf("db pool gauges missing:\n%s", body)
	}
}

func TestCloseWithoutStart(t *testing.T) {
	p, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestApplyReloadSwapsTenantsAndRoutes(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Tenants.Allowed = []string{"irctc"}
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	next := config.Default()
	next.Tenants.Allowed = []string{"nhai"}
	next.Routes = []config.RouteRule{{Prefix: "/v2/translate", Service: "translation"}}
	p.applyReload(next)

	if got := p.allowlist.Normalize("nhai"); got != "nhai" {
		t.Errorf("Normalize(nhai) = %q after reload", got)
	}
	if got := p.allowlist.Normalize("irctc"); got != "unknown" {
		t.Errorf("Normalize(irctc) = %q, want unknown after reload", got)
	}

	match := p.table.Classify("/v2/translate/sentence", "")
	if string(match.Service) != "translation" {
		t.Errorf("reloaded route classified as %q", match.Service)
	}
	if old := p.table.Classify("/translation/v1", ""); string(old.Service) != "unknown" {
		t.Errorf("old default route survived reload: %q", old.Service)
	}
}
