package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog lookups.
var (
	// ErrUnknownDistribution indicates a distribution name was not registered.
	ErrUnknownDistribution = errors.New("registry: unknown distribution")
	// ErrUnknownFunction indicates a function name was not registered.
	ErrUnknownFunction = errors.New("registry: unknown function")
	// ErrDuplicateName indicates an attempt to register an already-taken name.
	ErrDuplicateName = errors.New("registry: duplicate registration")
)

// Registry is a name-indexed catalog of distributions and functions. It is
// a plain value the caller owns and threads explicitly (see package doc) —
// never a package-level global.
type Registry struct {
	dists map[string]Distribution
	funcs map[string]Function
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		dists: make(map[string]Distribution),
		funcs: make(map[string]Function),
	}
}

// RegisterDistribution adds d under its own Name(), failing if the name is
// already taken.
func (r *Registry) RegisterDistribution(d Distribution) error {
	if _, exists := r.dists[d.Name()]; exists {
		return fmt.Errorf("RegisterDistribution(%s): %w", d.Name(), ErrDuplicateName)
	}
	r.dists[d.Name()] = d
	return nil
}

// RegisterFunction adds f under its own Name(), failing if the name is
// already taken.
func (r *Registry) RegisterFunction(f Function) error {
	if _, exists := r.funcs[f.Name()]; exists {
		return fmt.Errorf("RegisterFunction(%s): %w", f.Name(), ErrDuplicateName)
	}
	r.funcs[f.Name()] = f
	return nil
}

// Distribution looks up a registered distribution by name.
func (r *Registry) Distribution(name string) (Distribution, error) {
	d, ok := r.dists[name]
	if !ok {
		return nil, fmt.Errorf("Distribution(%s): %w", name, ErrUnknownDistribution)
	}
	return d, nil
}

// Function looks up a registered function by name.
func (r *Registry) Function(name string) (Function, error) {
	f, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("Function(%s): %w", name, ErrUnknownFunction)
	}
	return f, nil
}

// DistributionNames returns the registered distribution names, for
// diagnostics and tests.
func (r *Registry) DistributionNames() []string {
	names := make([]string, 0, len(r.dists))
	for name := range r.dists {
		names = append(names, name)
	}
	return names
}
