package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/suriyel/AgentFramework/pkg/errors"
)

/*
Registry holds tool definitions keyed by name. It is an explicit value that
gets injected into whatever needs tool lookup or invocation; there is no
package-level singleton.
*/
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds or replaces a tool definition.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	r.defs[def.Name] = def
	r.mu.Unlock()
	log.Debug("tool registered", "tool", def.Name)
}

// Unregister removes a tool definition, reporting whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[name]; !ok {
		return false
	}
	delete(r.defs, name)
	return true
}

// Describe implements Lookup.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	return def.Descriptor, ok
}

// Descriptors returns every registered descriptor, sorted by name so output
// such as the planner's tool catalog is stable.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	out := make([]Descriptor, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def.Descriptor)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke implements Invoker by dispatching to the registered handler.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()

	if !ok || def.Handler == nil {
		return nil, errors.Terminal(name, fmt.Errorf("tool not registered"))
	}
	return def.Handler(ctx, args)
}

var (
	_ Lookup  = (*Registry)(nil)
	_ Invoker = (*Registry)(nil)
)
