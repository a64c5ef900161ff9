// Package intercept measures requests around a wrapped handler.
//
// The core capability is framework-neutral: Around wraps a Handler, starts
// a monotonic timer, resolves the tenant, classifies the service, invokes
// the handler exactly once, and records the outcome whatever happens,
// including handler errors, panics, and context cancellation. Measurement
// never alters the request path: responses and errors pass through
// unchanged, panics re-raise after recording, and instrumentation failures
// are recovered and logged.
//
// Middleware adapts the capability to net/http, capturing the request body
// for payload extraction and restoring it for the downstream handler, and
// buffering the response body only for services whose extractors need it.
package intercept
