// Package sampler is the node-sampler framework spec.md §4.3 describes:
// a polymorphic per-node sampler contract, a factory-dispatch mechanism
// tried in configured inverse-priority order, and a universal
// prior-mutation fallback that always succeeds last. It deliberately
// avoids the owner/visitor cycle the original `NodeSampler` hierarchy
// has (Design Notes §9, "Cyclic owner/visitor problem"): a sampler
// receives the graph and a value map as plain arguments to Sample
// instead of holding a graph reference itself.
package sampler

import (
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/rng"
)

// Values is the per-particle store of sampled latent-node values a
// NodeSampler reads and writes during one Sample call.
type Values = core.ValueMap[graph.NodeID]

// NodeSampler produces a value for one unobserved stochastic node and
// the log-incremental weight that value contributes to the particle
// (spec.md §4.3).
type NodeSampler interface {
	// Name identifies the sampler, surfaced in diagnostics.
	Name() string

	// Sample draws node id's value into values and returns the
	// log-incremental particle weight. A LogicError aborts the whole
	// iteration; a RuntimeError marks only the calling particle
	// infeasible.
	Sample(g *graph.Graph, id graph.NodeID, values *Values, src *rng.Stream) (logIncrementalWeight float64, err error)
}

// Factory proposes a NodeSampler for a node by inspecting its prior, its
// likelihood children, and their relations (spec.md §4.3). Create
// returns ok==false when the factory does not apply, letting the
// dispatcher move on to the next one.
type Factory interface {
	// Name identifies the factory, used to order and diagnose Registry.
	Name() string

	// Create attempts to build a sampler for id; ok is false when this
	// factory's pattern does not match.
	Create(g *graph.Graph, id graph.NodeID) (s NodeSampler, ok bool)
}

// ParamValues resolves the current values of parents for this particle,
// via ResolveValue (spec.md §3: unobserved values live per particle,
// observed/constant values live on the graph).
func ParamValues(g *graph.Graph, values *Values, parents []graph.NodeID) ([]core.ValArray, error) {
	out := make([]core.ValArray, len(parents))
	for i, p := range parents {
		v, err := ResolveValue(g, values, p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ResolveValue returns node id's current value for this particle: a
// constant's or already-observed node's fixed value, a sampled latent
// stochastic node's recorded value, or — for a logical node not yet
// pinned to a fixed value at Build time — the function evaluated on its
// parents' own resolved values, recursively. A logical node downstream of
// an unobserved stochastic node has no fixed value of its own (Design
// Notes §9 lets logical nodes carry no cached per-particle value; they
// are recomputed on demand instead of threading an evaluation order
// through the caller).
func ResolveValue(g *graph.Graph, values *Values, id graph.NodeID) (core.ValArray, error) {
	n, err := g.Node(id)
	if err != nil {
		return nil, err
	}
	if n.Observed() {
		return n.Value(), nil
	}
	switch n.Kind() {
	case graph.KindStochastic:
		v, ok := values.Get(id)
		if !ok {
			return nil, NewLogic("sampler: node %d not yet sampled", id)
		}
		return v, nil
	case graph.KindLogical:
		parentVals, err := ParamValues(g, values, n.Parents())
		if err != nil {
			return nil, err
		}
		out := core.NewValArray(n.Dim())
		if err := n.Function().Eval(out, parentVals); err != nil {
			return nil, NewRuntime("sampler: evaluating logical node %d: %v", id, err)
		}
		return out, nil
	default:
		return nil, NewLogic("sampler: node %d has no resolvable value", id)
	}
}

// NodeBounds resolves a node's scalar truncation bounds, if any, into a
// registry.Bounds by reading the bound nodes' current values.
func NodeBounds(g *graph.Graph, values *Values, n *graph.Node) (graph.Bounds, error) {
	lowerID, upperID := n.Bounds()
	b := graph.Bounds{}
	if lowerID != nil {
		v, err := resolveScalar(g, values, *lowerID)
		if err != nil {
			return b, err
		}
		b.HasLower = true
		b.Lower = v
	}
	if upperID != nil {
		v, err := resolveScalar(g, values, *upperID)
		if err != nil {
			return b, err
		}
		b.HasUpper = true
		b.Upper = v
	}
	return b, nil
}

func resolveScalar(g *graph.Graph, values *Values, id graph.NodeID) (float64, error) {
	v, err := ResolveValue(g, values, id)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}
