// Package llm — Task 2.3: provider registry.
// Registry maps a provider identifier to its adapter. New backends register
// an adapter plus a capability row; the pipeline and router never change.
package llm

import (
	"fmt"
	"sort"
)

// Registry holds the table of available provider adapters.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a Registry with an initial set of providers.
func NewRegistry(providers map[string]Provider) *Registry {
	// defensive copy so the caller cannot mutate the internal map.
	ps := make(map[string]Provider, len(providers))
	for k, v := range providers {
		ps[k] = v
	}
	return &Registry{providers: ps}
}

// Register adds (or replaces) a provider under the given key.
// Useful for dynamic reconfiguration or tests.
func (r *Registry) Register(key string, p Provider) {
	r.providers[key] = p
}

// Get returns the adapter for the given provider identifier.
// Returns an error naming the available keys when the id is not registered.
func (r *Registry) Get(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("llm registry: provider %q not registered (available: %v)", id, r.Keys())
	}
	return p, nil
}

// Keys returns the registered provider identifiers, sorted for stable output.
func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
