package tenant

import (
	"strings"
	"sync"
)

// Unknown is the bucket for every credential that cannot be resolved to a
// recognized tenant. Metrics always carry a concrete organization label, so
// unresolved and unrecognized tenants land here instead of minting new
// label values.
const Unknown = "unknown"

// Credential is the raw authentication material extracted from a request.
type Credential struct {
	// Token is the credential value with any scheme prefix stripped.
	Token string

	// Bearer is true when the token came from a Bearer authorization
	// header, which usually means a JWT.
	Bearer bool
}

// FromAuthorization parses an Authorization header value into a Credential.
// Unrecognized schemes are passed through as opaque tokens.
func FromAuthorization(header string) Credential {
	header = strings.TrimSpace(header)
	if header == "" {
		return Credential{}
	}
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return Credential{Token: strings.TrimSpace(rest), Bearer: true}
	}
	return Credential{Token: header}
}

// Resolver maps a credential to a tenant identifier. An empty result means
// the resolver could not identify the tenant; errors are reserved for
// unexpected failures, not for unrecognized credentials.
type Resolver interface {
	Resolve(cred Credential) (string, error)
}

// Allowlist is the closed set of recognized tenant identifiers. Resolution
// results outside the set normalize to Unknown.
type Allowlist struct {
	mu      sync.RWMutex
	allowed map[string]struct{}
}

// NewAllowlist builds an allowlist from the configured tenant identifiers.
func NewAllowlist(tenants []string) *Allowlist {
	a := &Allowlist{allowed: make(map[string]struct{}, len(tenants))}
	for _, t := range tenants {
		a.allowed[t] = struct{}{}
	}
	return a
}

// Normalize returns the tenant unchanged if it is in the allowlist and
// Unknown otherwise. Matching is exact, not case-folded: tenant identifiers
// are label values and must round-trip byte for byte.
func (a *Allowlist) Normalize(tenant string) string {
	if tenant == "" {
		return Unknown
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, ok := a.allowed[tenant]; ok {
		return tenant
	}
	return Unknown
}

// Replace swaps the allowed set, used on configuration reload.
func (a *Allowlist) Replace(tenants []string) {
	allowed := make(map[string]struct{}, len(tenants))
	for _, t := range tenants {
		allowed[t] = struct{}{}
	}
	a.mu.Lock()
	a.allowed = allowed
	a.mu.Unlock()
}

// List returns the allowed tenants in unspecified order.
func (a *Allowlist) List() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.allowed))
	for t := range a.allowed {
		out = append(out, t)
	}
	return out
}
