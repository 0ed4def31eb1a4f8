// Package providers holds the configured provider set. Providers are created
// and edited by operator configuration, never by the engine; the registry is
// read-only after load and keeps insertion order so priority ties resolve
// deterministically.
package providers

import (
	"encoding/json"
	"fmt"
	"os"

	"sms-dispatch-gateway/internal/domain"
)

// Registry is an immutable, ordered provider set.
type Registry struct {
	all []domain.Provider
}

// New builds a registry from an ordered provider list.
func New(list []domain.Provider) *Registry {
	cp := make([]domain.Provider, len(list))
	copy(cp, list)
	return &Registry{all: cp}
}

// LoadFile reads a JSON array of providers from path.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	var list []domain.Provider
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}

	for i, p := range list {
		if p.ID == "" {
			return nil, fmt.Errorf("provider %d (%q): missing id", i, p.Name)
		}
		switch p.Type {
		case domain.ProviderBoomcast, domain.ProviderMiMSMS, domain.ProviderAWSSNS, domain.ProviderGeneric:
		default:
			return nil, fmt.Errorf("provider %q: unknown type %q", p.ID, p.Type)
		}
	}

	return New(list), nil
}

// All returns every configured provider in insertion order.
func (r *Registry) All() []domain.Provider {
	return r.all
}

// Enabled returns the enabled providers in insertion order.
func (r *Registry) Enabled() []domain.Provider {
	var out []domain.Provider
	for _, p := range r.all {
		if p.Enabled() {
			out = append(out, p)
		}
	}
	return out
}

// Get returns a provider by ID regardless of state.
func (r *Registry) Get(id string) (domain.Provider, bool) {
	for _, p := range r.all {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Provider{}, false
}

// AnyEnabled reports whether at least one provider participates in routing.
func (r *Registry) AnyEnabled() bool {
	for _, p := range r.all {
		if p.Enabled() {
			return true
		}
	}
	return false
}
