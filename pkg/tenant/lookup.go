package tenant

import "sync"

// LookupResolver maps opaque API keys to tenant identifiers through a
// configured table. Keys that are not in the table resolve to the empty
// tenant.
type LookupResolver struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewLookupResolver creates a resolver over the given key-to-tenant table.
func NewLookupResolver(keys map[string]string) *LookupResolver {
	table := make(map[string]string, len(keys))
	for k, v := range keys {
		table[k] = v
	}
	return &LookupResolver{keys: table}
}

// Resolve looks the credential up in the key table.
func (r *LookupResolver) Resolve(cred Credential) (string, error) {
	if cred.Token == "" {
		return "", nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[cred.Token], nil
}

// Replace swaps the key table, used on configuration reload.
func (r *LookupResolver) Replace(keys map[string]string) {
	table := make(map[string]string, len(keys))
	for k, v := range keys {
		table[k] = v
	}
	r.mu.Lock()
	r.keys = table
	r.mu.Unlock()
}

// String identifies the resolver in logs.
func (r *LookupResolver) String() string {
	return "lookup"
}
