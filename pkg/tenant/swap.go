package tenant

import "sync"

// SwappableResolver delegates to an inner resolver that can be replaced at
// runtime, so configuration reloads can change resolution strategy without
// touching the request path.
type SwappableResolver struct {
	mu    sync.RWMutex
	inner Resolver
}

// NewSwappableResolver wraps inner.
func NewSwappableResolver(inner Resolver) *SwappableResolver {
	if inner == nil {
		inner = noneResolver{}
	}
	return &SwappableResolver{inner: inner}
}

// Resolve delegates to the current inner resolver.
func (r *SwappableResolver) Resolve(cred Credential) (string, error) {
	r.mu.RLock()
	inner := r.inner
	r.mu.RUnlock()
	return inner.Resolve(cred)
}

// Swap replaces the inner resolver. In-flight resolutions finish against
// the old one.
func (r *SwappableResolver) Swap(inner Resolver) {
	if inner == nil {
		inner = noneResolver{}
	}
	r.mu.Lock()
	r.inner = inner
	r.mu.Unlock()
}
