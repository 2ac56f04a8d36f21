package fieldtype

import (
	"sync"
	"sync/atomic"

	"github.com/facet-orm/facet/internal/orm/fielderr"
)

// Registry stores type definitions and resolves them into effective
// operation sets. Registration happens during startup only; the first
// Resolve call seals the registry, flattening every parent chain
// root-first with child overriding parent. After sealing, resolution is
// lock-free and safe for concurrent use by any number of operations.
type Registry struct {
	mu       sync.Mutex
	defs     map[string]*Definition
	sealed   atomic.Bool
	resolved map[string]*Type
	sealErr  error
}

// NewRegistry creates an empty type registry
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]*Definition),
	}
}

// Register adds a type definition. It fails once the registry has been
// sealed by a Resolve call, and on duplicate names.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" {
		return fielderr.NewConfigurationError("type definition has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return fielderr.NewConfigurationError("registry is sealed; cannot register type %s", def.Name)
	}
	if _, exists := r.defs[def.Name]; exists {
		return fielderr.NewConfigurationError("type %s is already registered", def.Name)
	}

	r.defs[def.Name] = def
	return nil
}

// Resolve returns the effective type for a name. The first call seals
// the registry and flattens all parent chains; an unknown parent or a
// cycle anywhere in the registry fails sealing with a
// ConfigurationError, as does resolving an unregistered name.
func (r *Registry) Resolve(name string) (*Type, error) {
	if !r.sealed.Load() {
		r.seal()
	}

	if r.sealErr != nil {
		return nil, r.sealErr
	}

	t, ok := r.resolved[name]
	if !ok {
		return nil, fielderr.NewConfigurationError("unknown type %s", name)
	}
	return t, nil
}

// Sealed reports whether the registry has been sealed
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// List returns the names of all registered types
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	return names
}

// seal flattens every parent chain into a resolved operation table.
// Called at most once; subsequent resolves read the immutable result.
func (r *Registry) seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return
	}

	resolved := make(map[string]*Type, len(r.defs))
	for name := range r.defs {
		t, err := r.flatten(name, make(map[string]bool))
		if err != nil {
			r.sealErr = err
			break
		}
		resolved[name] = t
	}

	if r.sealErr == nil {
		r.resolved = resolved
	}
	r.sealed.Store(true)
}

// flatten walks the parent chain root-first, merging operations so that
// a child's operation overrides the parent's of the same name.
func (r *Registry) flatten(name string, walking map[string]bool) (*Type, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fielderr.NewConfigurationError("type %s is not registered", name)
	}
	if walking[name] {
		return nil, fielderr.NewConfigurationError("type inheritance cycle through %s", name)
	}

	ops := Ops{}
	if def.From != "" {
		walking[name] = true
		parent, err := r.flatten(def.From, walking)
		if err != nil {
			return nil, err
		}
		delete(walking, name)
		ops = parent.ops
	}

	merge(&ops, def.Ops)
	return &Type{name: name, ops: ops}, nil
}

// merge overlays the child's declared operations onto the inherited set
func merge(base *Ops, child Ops) {
	if child.IsSet != nil {
		base.IsSet = child.IsSet
	}
	if child.Adapt != nil {
		base.Adapt = child.Adapt
	}
	if child.Validate != nil {
		base.Validate = child.Validate
	}
	if child.SQLReference != nil {
		base.SQLReference = child.SQLReference
	}
	if child.SQLDereference != nil {
		base.SQLDereference = child.SQLDereference
	}
	if child.Factory != nil {
		base.Factory = child.Factory
	}
}
