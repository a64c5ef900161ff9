package tenant

import (
	"vaani-labs/drishti/pkg/config"
)

// ChainResolver tries each resolver in order and returns the first non-empty
// tenant. Resolver errors abort the chain.
type ChainResolver struct {
	resolvers []Resolver
}

// NewChainResolver creates a chain over the given resolvers.
func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	return &ChainResolver{resolvers: resolvers}
}

// Resolve walks the chain.
func (r *ChainResolver) Resolve(cred Credential) (string, error) {
	for _, resolver := range r.resolvers {
		tenant, err := resolver.Resolve(cred)
		if err != nil {
			return "", err
		}
		if tenant != "" {
			return tenant, nil
		}
	}
	return "", nil
}

// String identifies the resolver in logs.
func (r *ChainResolver) String() string {
	return "chain"
}

// noneResolver never resolves anything; every request lands in Unknown.
type noneResolver struct{}

func (noneResolver) Resolve(Credential) (string, error) { return "", nil }
func (noneResolver) String() string                     { return "none" }

// FromConfig builds the resolver selected by the tenants section. The
// lookup resolver is chained behind claims so explicit key mappings win even
// when the key happens to parse as a JWT.
func FromConfig(cfg *config.TenantsConfig) Resolver {
	switch cfg.Resolver {
	case "claims":
		if len(cfg.Keys) > 0 {
			return NewChainResolver(NewLookupResolver(cfg.Keys), NewClaimResolver(cfg.ClaimNames))
		}
		return NewClaimResolver(cfg.ClaimNames)
	case "lookup":
		return NewLookupResolver(cfg.Keys)
	case "hash":
		return NewHashResolver(cfg.Allowed)
	default:
		return noneResolver{}
	}
}
