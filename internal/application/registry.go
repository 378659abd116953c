package application

import (
	"fmt"
	"strings"

	"fxconvert-service/internal/domain"
)

type registration struct {
	meta    domain.ProviderMetadata
	adapter RateProvider
}

// ProviderRegistry maps provider keys to their metadata and adapter. The
// mapping is fixed at registration time; lookups are case-insensitive.
type ProviderRegistry struct {
	providers map[string]registration
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: map[string]registration{}}
}

func (r *ProviderRegistry) Register(meta domain.ProviderMetadata, adapter RateProvider) {
	r.providers[strings.ToLower(meta.Name)] = registration{meta: meta, adapter: adapter}
}

func (r *ProviderRegistry) Resolve(key string) (domain.ProviderMetadata, RateProvider, error) {
	reg, ok := r.providers[strings.ToLower(key)]
	if !ok {
		return domain.ProviderMetadata{}, nil, fmt.Errorf("%w: no metadata registered for %q", ErrUnknownProvider, key)
	}
	return reg.meta, reg.adapter, nil
}

// Adapters returns the registered adapters keyed by provider, for readiness
// probes.
func (r *ProviderRegistry) Adapters() map[string]RateProvider {
	out := make(map[string]RateProvider, len(r.providers))
	for k, reg := range r.providers {
		out[k] = reg.adapter
	}
	return out
}

// Keys lists the registered provider keys, for diagnostics and warmup.
func (r *ProviderRegistry) Keys() []string {
	keys := make([]string, 0, len(r.providers))
	for k := range r.providers {
		keys = append(keys, k)
	}
	return keys
}
