// Package registry maps every domain.ProviderType to its wire-protocol
// adapter. The map is built once at startup, so a provider type without an
// adapter surfaces immediately rather than as a runtime lookup gap.
package registry

import (
	"sms-dispatch-gateway/internal/adapters/provider/awssns"
	"sms-dispatch-gateway/internal/adapters/provider/boomcast"
	"sms-dispatch-gateway/internal/adapters/provider/generichttp"
	"sms-dispatch-gateway/internal/adapters/provider/mimsms"
	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"
)

// Registry resolves provider types to adapters.
type Registry struct {
	adapters map[domain.ProviderType]ports.ProviderAdapter
}

// New builds the full adapter set, one per provider type.
func New() *Registry {
	return &Registry{adapters: map[domain.ProviderType]ports.ProviderAdapter{
		domain.ProviderBoomcast: boomcast.New(),
		domain.ProviderMiMSMS:   mimsms.New(),
		domain.ProviderAWSSNS:   awssns.New(),
		domain.ProviderGeneric:  generichttp.New(),
	}}
}

// NewWith builds a registry from an explicit adapter map. Used in tests.
func NewWith(adapters map[domain.ProviderType]ports.ProviderAdapter) *Registry {
	return &Registry{adapters: adapters}
}

// Lookup returns the adapter for a provider type, or
// domain.ErrUnsupportedType when none is registered.
func (r *Registry) Lookup(t domain.ProviderType) (ports.ProviderAdapter, error) {
	a, ok := r.adapters[t]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return a, nil
}
