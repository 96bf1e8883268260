package bot

import (
	"log/slog"
	"sync"
)

// Registry holds registered modules in registration order.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
	names   map[string]struct{}
}

// NewRegistry creates a new module registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make([]Module, 0),
		names:   make(map[string]struct{}),
	}
}

// Register adds a module to the registry. A module whose name is already
// registered is ignored and false is returned.
func (r *Registry) Register(m Module) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[m.Name()]; ok {
		slog.Warn("ignored duplicate module", "module", m.Name())
		return false
	}
	r.names[m.Name()] = struct{}{}
	r.modules = append(r.modules, m)
	return true
}

// Modules returns a snapshot of all registered modules.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Module, len(r.modules))
	copy(result, r.modules)
	return result
}

// globalRegistry collects modules that register themselves from init().
var globalRegistry = NewRegistry()

// Register adds a module to the global registry.
// This is typically called from module init() functions.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry resets the global registry.
// This is intended for testing purposes only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
