package intercept

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	dto "github.com/prometheus/client_model/go"

	"vaani-labs/drishti/pkg/classify"
	"vaani-labs/drishti/pkg/config"
	"vaani-labs/drishti/pkg/logging"
	"vaani-labs/drishti/pkg/metrics"
	"vaani-labs/drishti/pkg/tenant"
)

func newTestInterceptor(t *testing.T) (*Interceptor, *metrics.Registry) {
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
	i := New(Options{
		Collector: collector,
		Resolver:  tenant.NewClaimResolver(nil),
		Allowlist: tenant.NewAllowlist([]string{"irctc", "beml"}),
		Table:     classify.NewTable(classify.DefaultRules()),
		Logger:    logger,
		Enabled:   true,
	})
	return i, reg
}

func bearerToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return "Bearer " + token
}

func findFamily(t *testing.T, reg *metrics.Registry, name string) *dto.MetricFamily {
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

func matchLabels(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func counterValue(t *testing.T, reg *metrics.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	fam := findFamily(t, reg, name)
	if fam == nil {
		return 0
	}
	for _, m := range fam.GetMetric() {
		if matchLabels(m, labels) {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func histogramSample(t *testing.T, reg *metrics.Registry, name string, labels map[string]string) (uint64, float64) {
	t.Helper()
	fam := findFamily(t, reg, name)
	if fam == nil {
		return 0, 0
	}
	for _, m := range fam.GetMetric() {
		if matchLabels(m, labels) {
			h := m.GetHistogram()
			return h.GetSampleCount(), h.GetSampleSum()
		}
	}
	return 0, 0
}

func TestMiddlewareRecordsTranslationRequest(t *testing.T) {
	interceptor, reg := newTestInterceptor(t)

	var gotBody string
	handler := interceptor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"output":[{"target":"ok"}]}`))
	}))

	payload := `{"input":[{"source":"Hello World"}]}`
	req := httptest.NewRequest(http.MethodPost, "/translation/v1", strings.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, jwt.MapClaims{"organization": "irctc"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotBody != payload {
		t.Fatalf("handler saw body %q, want %q", gotBody, payload)
	}

	labels := map[string]string{
		"organization": "irctc",
		"service":      "translation",
		"route":        "/translation",
		"status_code":  "200",
	}
	if got := counterValue(t, reg, "enterprise_observe_requests_total", labels); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}

	count, _ := histogramSample(t, reg, "enterprise_observe_request_duration_seconds", map[string]string{
		"organization": "irctc", "service": "translation", "route": "/translation",
	})
	if count != 1 {
		t.Errorf("duration sample count = %d, want 1", count)
	}

	charCount, charSum := histogramSample(t, reg, "enterprise_observe_characters_processed", map[string]string{
		"organization": "irctc", "service": "translation",
	})
	if charCount != 1 || charSum != 11 {
		t.Errorf("characters_processed = (%d, %v), want (1, 11)", charCount, charSum)
	}

	_, reqBytes := histogramSample(t, reg, "enterprise_observe_request_size_bytes", map[string]string{
		"organization": "irctc", "service": "translation", "direction": "request",
	})
	if reqBytes != float64(len(payload)) {
		t.Errorf("request size sum = %v, want %d", reqBytes, len(payload))
	}
}

func TestMiddlewareUnknownTenantStillRecorded(t *testing.T) {
	interceptor, reg := newTestInterceptor(t)

	handler := interceptor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/asr/v1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	labels := map[string]string{
		"organization": "unknown",
		"service":      "asr",
		"status_code":  "200",
	}
	if got := counterValue(t, reg, "enterprise_observe_requests_total", labels); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
}

func TestMiddlewareUnparseableBodyYieldsNoBusinessMetrics(t *testing.T) {
	interceptor, reg := newTestInterceptor(t)

	handler := interceptor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/translation/v1", strings.NewReader("not json"))
	req.Header.Set("Authorization", bearerToken(t, jwt.MapClaims{"organization": "irctc"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	labels := map[string]string{"organization": "irctc", "service": "translation", "status_code": "200"}
	if got := counterValue(t, reg, "enterprise_observe_requests_total", labels); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
	count, _ := histogramSample(t, reg, "enterprise_observe_characters_processed", map[string]string{
		"organization": "irctc", "service": "translation",
	})
	if count != 0 {
		t.Errorf("characters_processed count = %d, want 0", count)
	}
}

func TestMiddlewarePanicRecordedAndReraised(t *testing.T) {
	interceptor, reg := newTestInterceptor(t)

	handler := interceptor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("backend exploded")
	}))

	req := httptest.NewRequest(http.MethodPost, "/tts/v1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	recovered := func() (r any) {
		defer func() { r = recover() }()
		handler.ServeHTTP(rec, req)
		return nil
	}()
	if recovered != "backend exploded" {
		t.Fatalf("recovered %v, want the original panic value", recovered)
	}

	errLabels := map[string]string{
		"organization": "unknown",
		"service":      "tts",
		"error_type":   metrics.ErrorTypeHandler,
	}
	if got := counterValue(t, reg, "enterprise_observe_errors_total", errLabels); got != 1 {
		t.Errorf("errors_total = %v, want 1", got)
	}
	reqLabels := map[string]string{"service": "tts", "status_code": "500"}
	if got := counterValue(t, reg, "enterprise_observe_requests_total", reqLabels); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
}

func TestMiddlewareServerErrorClassified(t *testing.T) {
	interceptor, reg := newTestInterceptor(t)

	handler := interceptor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream gone", http.StatusBadGateway)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ocr/v1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	labels := map[string]string{"service": "ocr", "error_type": metrics.ErrorTypeServer}
	if got := counterValue(t, reg, "enterprise_observe_errors_total", labels); got != 1 {
		t.Errorf("errors_total = %v, want 1", got)
	}
}

func TestMiddlewareContextCancellation(t *testing.T) {
	interceptor, reg := newTestInterceptor(t)

	ctx, cancel := context.WithCancel(context.Background())
	handler := interceptor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/asr/v1", strings.NewReader(`{}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	labels := map[string]string{"service": "asr", "error_type": metrics.ErrorTypeCanceled}
	if got := counterValue(t, reg, "enterprise_observe_errors_total", labels); got != 1 {
		t.Errorf("errors_total = %v, want 1", got)
	}
}

func TestMiddlewareCapturesResponseForTokenUsage(t *testing.T) {
	interceptor, reg := newTestInterceptor(t)

	handler := interceptor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"usage":{"total_tokens":128}}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/translation/v1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	count, sum := histogramSample(t, reg, "enterprise_observe_tokens_processed", map[string]string{
		"organization": "unknown", "service": "translation",
	})
	if count != 1 || sum != 128 {
		t.Errorf("tokens_processed = (%d, %v), want (1, 128)", count, sum)
	}
}

func TestMiddlewareComponentLatencyHeader(t *testing.T) {
	interceptor, reg := newTestInterceptor(t)

	handler := interceptor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(componentLatencyHeader, "250")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/tts/v1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	count, sum := histogramSample(t, reg, "enterprise_observe_component_latency_seconds", map[string]string{
		"organization": "unknown", "service": "tts",
	})
	if count != 1 || sum != 0.25 {
		t.Errorf("component_latency = (%d, %v), want (1, 0.25)", count, sum)
	}
}

func TestMiddlewareDisabledPassesThrough(t *testing.T) {
	interceptor, reg := newTestInterceptor(t)
	interceptor.enabled = false

	called := false
	handler := interceptor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/translation/v1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("handler was not invoked")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if fam := findFamily(t, reg, "enterprise_observe_requests_total"); fam != nil && len(fam.GetMetric()) != 0 {
		t.Error("disabled interceptor recorded metrics")
	}
}

func TestAroundHandlerErrorWithoutResponse(t *testing.T) {
	interceptor, reg := newTestInterceptor(t)

	failing := func(ctx context.Context, req *Request) (*Response, error) {
		return nil, io.ErrUnexpectedEOF
	}
	_, err := interceptor.Around(failing)(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/ner/v1",
		Body:   []byte(`{}`),
	})
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("err = %v, want ErrUnexpectedEOF passed through", err)
	}

	labels := map[string]string{"service": "ner", "error_type": metrics.ErrorTypeHandler}
	if got := counterValue(t, reg, "enterprise_observe_errors_total", labels); got != 1 {
		t.Errorf("errors_total = %v, want 1", got)
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var ctxID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = logging.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/translation/v1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	echoed := rec.Header().Get(requestIDHeader)
	if echoed == "" {
		t.Fatal("no request id echoed")
	}
	if ctxID != echoed {
		t.Errorf("context id %q != echoed id %q", ctxID, echoed)
	}

	req = httptest.NewRequest(http.MethodGet, "/translation/v1", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "fixed-id" {
		t.Errorf("inbound id not preserved, got %q", got)
	}
}

func TestResponseWriterTracksWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK, body: &bytes.Buffer{}}

	rw.Write([]byte("hello "))
	rw.WriteHeader(http.StatusTeapot) // late, must be ignored
	rw.Write([]byte("world"))

	if rw.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want 200", rw.statusCode)
	}
	if rw.bytesWritten != 11 {
		t.Errorf("bytesWritten = %d, want 11", rw.bytesWritten)
	}
	if rw.body.String() != "hello world" {
		t.Errorf("captured body = %q", rw.body.String())
	}
}

func TestCaptureBodyOversizedChunkedRestoresFullStream(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), maxCapturedBody+8)
	r := httptest.NewRequest(http.MethodPost, "/translation", io.NopCloser(bytes.NewReader(payload)))
	r.ContentLength = -1 // chunked transfer, length unknown up front

	if got := captureBody(r); got != nil {
		t.Fatalf("captureBody returned %d bytes, want nil for oversized payload", len(got))
	}

	seen, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("reading restored body: %v", err)
	}
	if len(seen) != len(payload) {
		t.Fatalf("handler sees %d bytes, want %d", len(seen), len(payload))
	}
	if !bytes.Equal(seen, payload) {
		t.Error("restored body differs from original payload")
	}
	if err := r.Body.Close(); err != nil {
		t.Errorf("closing restored body: %v", err)
	}
}
