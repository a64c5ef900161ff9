package metrics

import "sync"

// CardinalityLimiter caps the number of unique label-set keys admitted for
// request metrics. The tenant allow-set and the route table already bound
// cardinality by construction; the limiter is the hard backstop that keeps
// the registry's memory bounded if those layers are misconfigured.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality
// distinct keys.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether the key may be recorded. Keys already admitted are
// always allowed; new keys are admitted until the limit is reached.
func (cl *CardinalityLimiter) Allow(key string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[key]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[key]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[key] = struct{}{}
	return true
}

// Count returns the number of admitted keys.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
