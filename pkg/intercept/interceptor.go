package intercept

import (
	"context"
	"io"
	"time"

	"vaani-labs/drishti/pkg/classify"
	"vaani-labs/drishti/pkg/extract"
	"vaani-labs/drishti/pkg/logging"
	"vaani-labs/drishti/pkg/metrics"
	"vaani-labs/drishti/pkg/tenant"
)

// Request is the framework-neutral view of an intercepted request.
type Request struct {
	// Method is the HTTP method.
	Method string

	// Path is the URL path, query string excluded.
	Path string

	// Authorization is the raw Authorization header value.
	Authorization string

	// Body is the request payload. May be nil.
	Body []byte
}

// Response is the framework-neutral view of the wrapped handler's result.
type Response struct {
	// StatusCode is the final HTTP status code.
	StatusCode int

	// Body is the response payload, captured only when some extractor for
	// the classified service asked for it.
	Body []byte

	// BytesWritten is the response payload size. When the body was not
	// captured this is still the true count of bytes written.
	BytesWritten int64

	// ComponentLatency is the processing time the backend reported about
	// itself, if any.
	ComponentLatency time.Duration
}

// Handler is the continuation the interceptor wraps: the next stage of
// request processing.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Interceptor measures requests around a wrapped handler. It owns no
// request semantics: the handler is invoked exactly once, its response and
// error pass through unaltered, and every instrumentation failure is
// recovered locally. The only observable effect of interception is metrics
// and logs.
type Interceptor struct {
	collector  *metrics.Collector
	resolver   tenant.Resolver
	allowlist  *tenant.Allowlist
	table      *classify.Table
	extractors *extract.Set
	logger     *logging.Logger
	enabled    bool
}

// Options configures an Interceptor.
type Options struct {
	Collector  *metrics.Collector
	Resolver   tenant.Resolver
	Allowlist  *tenant.Allowlist
	Table      *classify.Table
	Extractors *extract.Set
	Logger     *logging.Logger

	// Enabled gates all recording. A disabled interceptor still invokes
	// the handler, untouched and unmeasured.
	Enabled bool
}

// New creates an Interceptor.
func New(opts Options) *Interceptor {
	if opts.Extractors == nil {
		opts.Extractors = extract.Defaults()
	}
	if opts.Logger == nil {
		opts.Logger, _ = logging.New(logging.Options{Level: "error", Format: "json", Writer: io.Discard})
	}
	return &Interceptor{
		collector:  opts.Collector,
		resolver:   opts.Resolver,
		allowlist:  opts.Allowlist,
		table:      opts.Table,
		extractors: opts.Extractors,
		logger:     opts.Logger,
		enabled:    opts.Enabled,
	}
}

// WantsResponseBody reports whether the adapter should capture the response
// payload for a request on the given path.
func (i *Interceptor) WantsResponseBody(path string, shape classify.Shape) bool {
	match := i.table.Classify(path, shape)
	return i.extractors.WantsResponse(match.Service)
}

// Around wraps next with measurement. The wrapped call's outcome is
// recorded in every case: normal return, handler error, panic (recorded as
// a handler error, then re-raised unchanged), and context cancellation.
func (i *Interceptor) Around(next Handler) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		if !i.enabled {
			return next(ctx, req)
		}

		start := time.Now()

		org, service, match := i.resolve(ctx, req)
		ctx = logging.WithOrganization(ctx, org)
		ctx = logging.WithService(ctx, string(service))

		panicking := true
		var resp *Response
		var err error
		defer func() {
			outcome := metrics.Outcome{
				Tenant:        org,
				Service:       string(service),
				Route:         match.Pattern,
				Duration:      time.Since(start),
				RequestBytes:  int64(len(req.Body)),
				ResponseBytes: -1,
			}
			switch {
			case panicking:
				outcome.StatusCode = 500
				outcome.ErrorKind = metrics.ErrorTypeHandler
			case ctx.Err() != nil:
				outcome.StatusCode = 499
				outcome.ErrorKind = metrics.ErrorTypeCanceled
			case err != nil && resp == nil:
				outcome.StatusCode = 500
				outcome.ErrorKind = metrics.ErrorTypeHandler
			default:
				outcome.StatusCode = resp.StatusCode
				outcome.ResponseBytes = resp.BytesWritten
			}
			i.record(ctx, outcome, org, service, req, resp)
			// A panic keeps unwinding; everything above already ran.
		}()

		resp, err = next(ctx, req)
		panicking = false
		return resp, err
	}
}

// resolve performs tenant resolution and service classification, degrading
// to the unknown buckets on any failure.
func (i *Interceptor) resolve(ctx context.Context, req *Request) (string, classify.ServiceKind, classify.Match) {
	org := tenant.Unknown
	if i.resolver != nil {
		resolved, err := i.resolver.Resolve(tenant.FromAuthorization(req.Authorization))
		if err != nil {
			i.logger.DebugContext(ctx, "tenant resolution failed", "error", err)
		}
		if resolved != "" {
			org = resolved
		}
	}
	if i.allowlist != nil {
		org = i.allowlist.Normalize(org)
	}

	match := i.table.Classify(req.Path, classify.ShapeOf(req.Body))
	return org, match.Service, match
}

// record feeds the collector. Instrumentation bugs must never reach the
// request path, so the whole step runs under a recover.
func (i *Interceptor) record(ctx context.Context, outcome metrics.Outcome, org string, service classify.ServiceKind, req *Request, resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.ErrorContext(ctx, "instrumentation failure recovered", "panic", r)
		}
	}()

	i.collector.RecordOutcome(outcome)

	var respBody []byte
	if resp != nil {
		respBody = resp.Body
		if resp.ComponentLatency > 0 {
			i.collector.RecordComponentLatency(org, string(service), resp.ComponentLatency)
		}
	}
	if incs := i.extractors.Extract(service, req.Body, respBody); len(incs) > 0 {
		i.collector.RecordBusiness(org, string(service), incs)
	}

	i.logger.DebugContext(ctx, "request recorded",
		"status", outcome.StatusCode,
		"route", outcome.Route,
		"duration_ms", outcome.Duration.Milliseconds(),
	)
}
