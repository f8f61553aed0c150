package graph

import (
	"fmt"

	"github.com/arn-lab/gopgm/core"
)

// AddConstant appends a constant node holding values, sized per dim, and
// returns its id (spec.md §4.1: add_constant(dim, values) → id).
func (g *Graph) AddConstant(dim core.DimArray, values core.ValArray) (NodeID, error) {
	if g.built {
		return 0, ErrAlreadyBuilt
	}
	if dim.Length() != len(values) {
		return 0, fmt.Errorf("AddConstant: dim length %d != %d values: %w", dim.Length(), len(values), core.ErrDimMismatch)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{
		id:       id,
		kind:     KindConstant,
		dim:      dim.Clone(),
		value:    values.Clone(),
		observed: true,
		discrete: values.AllIntegral(),
	})
	return id, nil
}

// AddLogical appends a deterministic node computed as fn(parents...) and
// returns its id (spec.md §4.1: add_logical(function_handle, parent_ids)
// → id).
func (g *Graph) AddLogical(fn Function, parents []NodeID) (NodeID, error) {
	if g.built {
		return 0, ErrAlreadyBuilt
	}
	parentDims := make([]core.DimArray, len(parents))
	for i, p := range parents {
		if err := g.checkParent(p); err != nil {
			return 0, fmt.Errorf("AddLogical: parent %d: %w", i, err)
		}
		parentDims[i] = g.nodes[p].dim
	}
	if !fn.CheckParamDim(parentDims) {
		return 0, fmt.Errorf("AddLogical(%s): %w", fn.Name(), ErrInvalidDim)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{
		id:       id,
		kind:     KindLogical,
		dim:      fn.Dim(parentDims),
		parents:  append([]NodeID(nil), parents...),
		function: fn,
	})
	return id, nil
}

// AddStochastic appends a random node drawn from prior given parents as
// the distribution's parameters, and returns its id (spec.md §4.1:
// add_stochastic(prior_handle, parent_ids, observed, lower_id?, upper_id?)
// → id). When observed is true the caller must follow with
// SetObservation before Build.
func (g *Graph) AddStochastic(prior Distribution, parents []NodeID, observed bool, lowerID, upperID *NodeID) (NodeID, error) {
	if g.built {
		return 0, ErrAlreadyBuilt
	}
	parentDims := make([]core.DimArray, len(parents))
	for i, p := range parents {
		if err := g.checkParent(p); err != nil {
			return 0, fmt.Errorf("AddStochastic: parent %d: %w", i, err)
		}
		parentDims[i] = g.nodes[p].dim
	}
	if !prior.CheckParamDim(parentDims) {
		return 0, fmt.Errorf("AddStochastic(%s): %w", prior.Name(), ErrInvalidDim)
	}
	if lowerID != nil {
		if err := g.checkParent(*lowerID); err != nil {
			return 0, fmt.Errorf("AddStochastic: lower bound: %w", err)
		}
	}
	if upperID != nil {
		if err := g.checkParent(*upperID); err != nil {
			return 0, fmt.Errorf("AddStochastic: upper bound: %w", err)
		}
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{
		id:      id,
		kind:    KindStochastic,
		dim:     prior.Dim(parentDims),
		parents: append([]NodeID(nil), parents...),
		prior:   prior,
		lowerID: lowerID,
		upperID: upperID,
	})
	if observed {
		// Caller must still call SetObservation; until then the node is
		// unobserved, and Build does not check for a forgotten value.
		g.nodes[id].observed = false
	}
	return id, nil
}

// SetObservation fixes the value of a stochastic node, marking it
// observed (spec.md §4.1: set_observation(id, values)). Valid only
// before Build; post-build mutation goes through ChangeObservation/
// RemoveObservation (the compiler's change_data path), which rerun the
// observation and discreteness propagation over the existing ranks
// without rebuilding the graph.
func (g *Graph) SetObservation(id NodeID, values core.ValArray) error {
	if g.built {
		return ErrAlreadyBuilt
	}
	if err := g.checkParent(id); err != nil {
		return fmt.Errorf("SetObservation: %w", err)
	}
	n := &g.nodes[id]
	if n.kind != KindStochastic {
		return fmt.Errorf("SetObservation: node %d is %s: %w", id, n.kind, ErrWrongKind)
	}
	if n.dim.Length() != len(values) {
		return fmt.Errorf("SetObservation: dim length %d != %d values: %w", n.dim.Length(), len(values), core.ErrDimMismatch)
	}
	n.value = values.Clone()
	n.observed = true
	if allParentsObserved(g, n.parents) {
		// Only a subgraph with every parent already resolved (constants or
		// earlier observations) can be checked now; a node whose prior
		// takes a latent parameter is checked per-particle instead, once
		// the sampler has resolved that parameter's value.
		if !n.prior.CheckParamValue(collectParentValues(g, n.parents)) {
			return fmt.Errorf("SetObservation: %w", ErrInvalidParamValue)
		}
	}
	n.discrete = n.prior.IsDiscreteValued(parentDiscreteness(g, n.parents))
	return nil
}

func allParentsObserved(g *Graph, parents []NodeID) bool {
	for _, p := range parents {
		if !g.nodes[p].observed {
			return false
		}
	}
	return true
}

func collectParentValues(g *Graph, parents []NodeID) []core.ValArray {
	out := make([]core.ValArray, len(parents))
	for i, p := range parents {
		out[i] = g.nodes[p].value
	}
	return out
}

func parentDiscreteness(g *Graph, parents []NodeID) []bool {
	out := make([]bool, len(parents))
	for i, p := range parents {
		out[i] = g.nodes[p].discrete
	}
	return out
}

// Build computes topological ranks, propagates observation and
// discreteness to their fixpoints, and rejects cycles (spec.md §4.1).
// It fails with ErrCycle if the nodes admit no topological order. A node
// declared observed at AddStochastic time that never received
// SetObservation is not detected: Build treats it as latent.
func (g *Graph) Build() error {
	if g.built {
		return ErrAlreadyBuilt
	}
	n := len(g.nodes)
	g.children = make([][]NodeID, n)
	indeg := make([]int, n)
	for id := range g.nodes {
		for _, p := range g.nodes[id].parents {
			g.children[p] = append(g.children[p], NodeID(id))
			indeg[id]++
		}
	}

	order, err := kahnOrder(indeg, g.children)
	if err != nil {
		return err
	}
	for rank, id := range order {
		g.nodes[id].rank = rank
	}

	for id := range g.nodes {
		nd := &g.nodes[id]
		if nd.kind == KindStochastic && !nd.observed {
			// Leave as latent; nothing to validate here. A node that was
			// constructed with observed=true but never given a value via
			// SetObservation is indistinguishable from a legitimate latent
			// node at this point, so the contract is enforced by callers
			// (builder.Model) rather than by Graph itself.
			continue
		}
	}

	g.propagateFixpoints(order)
	g.built = true
	return nil
}

// kahnOrder computes a stable topological order: at each step the
// lowest-id zero-in-degree node is emitted, so repeated compilations of
// the same graph yield identical orders (spec.md §4.1: "ties broken by
// insertion order... an observable of the system").
func kahnOrder(indeg []int, children [][]NodeID) ([]NodeID, error) {
	n := len(indeg)
	remaining := append([]int(nil), indeg...)
	order := make([]NodeID, 0, n)
	ready := make([]bool, n)
	for i, d := range remaining {
		ready[i] = d == 0
	}
	done := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if ready[i] && !done[i] {
				next = i
				break
			}
		}
		if next == -1 {
			return nil, ErrCycle
		}
		done[next] = true
		order = append(order, NodeID(next))
		for _, c := range children[next] {
			remaining[c]--
			if remaining[c] == 0 {
				ready[c] = true
			}
		}
	}
	return order, nil
}

// propagateFixpoints recomputes logical-node values (once all parents are
// observed) and discreteness for every node, in topological order so each
// node's parents are already settled (spec.md §3's observed/discrete
// fixpoint definitions).
func (g *Graph) propagateFixpoints(order []NodeID) {
	for _, id := range order {
		nd := &g.nodes[id]
		switch nd.kind {
		case KindConstant:
			// Already observed and discreteness-tagged at AddConstant time.
		case KindLogical:
			allObserved := true
			for _, p := range nd.parents {
				if !g.nodes[p].observed {
					allObserved = false
					break
				}
			}
			nd.discrete = nd.function.IsDiscreteValued(parentDiscreteness(g, nd.parents))
			if allObserved {
				out := core.NewValArray(nd.dim)
				_ = nd.function.Eval(out, collectParentValues(g, nd.parents))
				nd.value = out
				nd.observed = true
			} else {
				// At the initial Build this runs for every logical node
				// with an unobserved parent, leaving it unobserved with no
				// value; after a post-build data mutation
				// (graph.ChangeObservation / RemoveObservation) it also turns
				// a previously-observed logical descendant back into an
				// unobserved one.
				nd.observed = false
				nd.value = nil
			}
		case KindStochastic:
			if nd.observed {
				nd.discrete = nd.prior.IsDiscreteValued(parentDiscreteness(g, nd.parents))
			}
			// Unobserved stochastic nodes carry no fixed discreteness value
			// here; the finite sampler consults nd.prior directly against
			// the (now-settled) parent discreteness when it needs the
			// oracle, via Node.Prior() and Parents().
		}
	}
}
