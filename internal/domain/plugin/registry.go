// Package plugin — Task 4.2: plugin registry.
package plugin

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownPlugin is returned when toggling a name that was never registered.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Status is one row of the administrative status listing.
type Status struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Registry holds the full candidate plugin set in a fixed registration order
// plus a name→enabled map. Registration order is the scan order of the
// pipeline; because the first applicable plugin wins, two plugins whose
// predicates can both match the same message (a URL that also trips a
// keyword plugin) are a configuration hazard — the earlier-registered one
// always takes the message.
//
// Enable/disable mutations are atomic and linearizable (single RWMutex), so
// the pipeline reads the active set without per-call locking concerns.
type Registry struct {
	mu      sync.RWMutex
	order   []Plugin
	enabled map[string]bool
}

// NewRegistry creates a Registry from the compiled plugin list, in order.
// initial maps name→enabled for plugins that should not start enabled;
// names absent from initial default to enabled.
func NewRegistry(plugins []Plugin, initial map[string]bool) (*Registry, error) {
	r := &Registry{enabled: make(map[string]bool, len(plugins))}
	for _, p := range plugins {
		name := p.Name()
		if _, dup := r.enabled[name]; dup {
			return nil, fmt.Errorf("plugin registry: duplicate name %q", name)
		}
		on, configured := initial[name]
		if !configured {
			on = true
		}
		r.order = append(r.order, p)
		r.enabled[name] = on
	}
	return r, nil
}

// Active returns the enabled subset in registration order. The result is a
// fresh slice; the scan order is deterministic across calls until the
// enabled map changes.
func (r *Registry) Active() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, 0, len(r.order))
	for _, p := range r.order {
		if r.enabled[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// SetEnabled flips one plugin. Unknown names fail with ErrUnknownPlugin.
// The operation is idempotent and immediately effective for later messages.
func (r *Registry) SetEnabled(name string, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enabled[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlugin, name)
	}
	r.enabled[name] = on
	return nil
}

// SetAll enables or disables every registered plugin.
func (r *Registry) SetAll(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range r.enabled {
		r.enabled[name] = on
	}
}

// StatusList returns the enabled flag of every plugin in registration order.
func (r *Registry) StatusList() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, Status{Name: p.Name(), Enabled: r.enabled[p.Name()]})
	}
	return out
}
