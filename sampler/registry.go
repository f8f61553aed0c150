package sampler

import (
	"github.com/arn-lab/gopgm/graph"
)

// Registry tries Factories in configured inverse-priority order — the
// first whose Create reports ok wins — and always falls back to the
// universal prior-mutation factory, which never fails (spec.md §4.3: "A
// universal prior-mutation factory always succeeds last").
type Registry struct {
	factories []Factory
	fallback  Factory
}

// NewRegistry returns a Registry that tries factories (highest priority
// first) before falling back to prior mutation.
func NewRegistry(factories ...Factory) *Registry {
	return &Registry{
		factories: append([]Factory(nil), factories...),
		fallback:  priorMutationFactory{},
	}
}

// Assign proposes a sampler for id, trying each configured factory in
// order and returning the fallback's result if none apply.
func (r *Registry) Assign(g *graph.Graph, id graph.NodeID) NodeSampler {
	for _, f := range r.factories {
		if s, ok := f.Create(g, id); ok {
			return s
		}
	}
	s, _ := r.fallback.Create(g, id)
	return s
}

// Names returns the configured factory names in try order, ending with
// the fallback's name, for diagnostics.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories)+1)
	for _, f := range r.factories {
		out = append(out, f.Name())
	}
	return append(out, r.fallback.Name())
}
