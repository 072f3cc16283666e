// Package actionplugin defines the plugin factory contract concrete
// administrative actions must satisfy, plus the name-keyed registry the
// scheduler facade consults at admission time.
package actionplugin

import (
	"fmt"
	"sync"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

// Factory constructs a concrete action.Stepper for a given description and
// properties blob. results lets the Stepper record a failure outcome
// without holding a back-pointer to the owning Action. Factory is called
// with the registry mutex held by the scheduler, so implementations must
// not block on other maintenance operations — only on their own local
// setup.
type Factory func(ctx action.Context, results action.ResultSetter, description *action.Description, properties map[string]any) (action.Stepper, error)

// Registry is a name-keyed collection of plugin factories. Unlike
// internal/registry.Registry (which tracks live Actions), this registry is
// a static binding of plugin names to constructors and is typically
// populated once at process startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry constructs an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given plugin name. Registering the same
// name twice is an error to catch accidental double-imports.
func (r *Registry) Register(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("actionplugin: nil factory for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("actionplugin: %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Build looks up the factory for description's "name" field and invokes it.
// An unknown name surfaces as CodeBadParameter, matching spec §6's
// constraint on the factory contract.
func (r *Registry) Build(ctx action.Context, results action.ResultSetter, description *action.Description, properties map[string]any) (action.Stepper, error) {
	name, err := description.Name()
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, actionerrors.BadParameter(fmt.Sprintf("no action plugin registered for name %q", name))
	}

	return factory(ctx, results, description, properties)
}

// Names returns the currently registered plugin names, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	return out
}
