// Package tenant resolves request credentials to organization identifiers.
//
// Resolution is strictly best-effort and never blocks a request: a
// credential that cannot be identified resolves to the Unknown bucket. The
// configured allowlist is a closed set: whatever a resolver returns is
// normalized against it, so arbitrary credentials can never mint new
// organization label values in the metric registry.
//
// Four strategies are available: claims (unverified JWT claim inspection),
// lookup (opaque API key table), hash (stable placeholder derived from the
// raw credential), and none.
package tenant
