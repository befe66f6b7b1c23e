// Package mechanism provides the registry of membrane mechanisms the
// pipeline recognizes. Each mechanism declares its parameter set and
// default values; validators consult the registry instead of hardcoding
// per-mechanism checks, so new mechanisms can be added without touching
// validator logic.
package mechanism

import "sort"

// Definition describes one membrane mechanism.
type Definition struct {
	// Name is the mechanism identifier used in documents (e.g. "hh").
	Name string

	// Defaults maps recognized parameter names to their default values.
	Defaults map[string]float64

	// Passthrough marks a mechanism that accepts arbitrary parameters.
	// Parameter-name checking is skipped for passthrough mechanisms.
	Passthrough bool
}

// ParamNames returns the recognized parameter names in sorted order.
func (d Definition) ParamNames() []string {
	names := make([]string, 0, len(d.Defaults))
	for name := range d.Defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Recognizes reports whether the parameter name is part of the
// mechanism's declared set. Passthrough mechanisms recognize everything.
func (d Definition) Recognizes(param string) bool {
	if d.Passthrough {
		return true
	}
	_, ok := d.Defaults[param]
	return ok
}

// Registry maps mechanism names to definitions.
type Registry struct {
	defs map[string]Definition
}

// Builtin returns a registry with the standard mechanisms: the
// Hodgkin-Huxley channel set and the passive leak conductance.
func Builtin() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	r.Register(Definition{
		Name: "hh",
		Defaults: map[string]float64{
			"gnabar": 0.12,
			"gkbar":  0.036,
			"gl":     0.0003,
			"el":     -54.3,
		},
	})
	r.Register(Definition{
		Name: "pas",
		Defaults: map[string]float64{
			"g": 0.001,
			"e": -65.0,
		},
	})
	return r
}

// Register adds or replaces a mechanism definition.
func (r *Registry) Register(def Definition) {
	r.defs[def.Name] = def
}

// RegisterPassthrough forward-declares a custom mechanism that accepts
// arbitrary parameters. Used for names listed in environment.mechanisms.
// A mechanism already registered with an explicit parameter set is left
// untouched.
func (r *Registry) RegisterPassthrough(name string) {
	if _, ok := r.defs[name]; ok {
		return
	}
	r.defs[name] = Definition{Name: name, Passthrough: true}
}

// Clone returns an independent copy of the registry. Definitions are
// values, so a shallow copy of the map suffices.
func (r *Registry) Clone() *Registry {
	c := &Registry{defs: make(map[string]Definition, len(r.defs))}
	for name, def := range r.defs {
		c.defs[name] = def
	}
	return c
}

// WithDeclared returns a copy of the registry with the given custom
// mechanism names forward-declared as passthrough. The receiver is
// never mutated, so one base registry can serve concurrent documents.
func (r *Registry) WithDeclared(names []string) *Registry {
	c := r.Clone()
	for _, name := range names {
		c.RegisterPassthrough(name)
	}
	return c
}

// Lookup returns the definition for a mechanism name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Names returns all registered mechanism names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
