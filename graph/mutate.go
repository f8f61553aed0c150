package graph

import (
	"fmt"

	"github.com/arn-lab/gopgm/core"
)

// ChangeObservation overwrites the values of a stochastic node within
// idxRange after Build (spec.md §4.1: "Observation propagation (after
// set_observation or change_data): recompute values of all logical
// descendants, then recompute discreteness of all affected stochastic
// descendants"). It accepts a node that was already observed (a genuine
// data change) or one that was not (spec.md §6's change_data doubling as
// sample_data's write-back path); either way the node is marked observed
// afterward and every fixpoint recomputed.
func (g *Graph) ChangeObservation(id NodeID, idxRange core.IndexRange, values core.ValArray) error {
	if !g.built {
		return ErrNotBuilt
	}
	if err := g.checkParent(id); err != nil {
		return fmt.Errorf("ChangeObservation: %w", err)
	}
	n := &g.nodes[id]
	if n.kind != KindStochastic {
		return fmt.Errorf("ChangeObservation: node %d is %s: %w", id, n.kind, ErrWrongKind)
	}
	if !idxRange.WithinDim(n.dim) {
		return fmt.Errorf("ChangeObservation: range does not fit node dimension: %w", ErrInvalidDim)
	}
	if idxRange.Length() != len(values) {
		return fmt.Errorf("ChangeObservation: range length %d != %d values: %w", idxRange.Length(), len(values), core.ErrDimMismatch)
	}
	if n.value == nil {
		n.value = core.NewValArray(n.dim)
	}
	if err := writeRange(n.value, n.dim, idxRange, values); err != nil {
		return fmt.Errorf("ChangeObservation: %w", err)
	}
	n.observed = true
	g.propagateFixpoints(g.orderByRank())
	return nil
}

// RemoveObservation clears a stochastic node back to latent, for
// spec.md §6's remove_data: the node rejoins the forward schedule's
// candidate set the next time a sampler is built over this graph.
func (g *Graph) RemoveObservation(id NodeID) error {
	if !g.built {
		return ErrNotBuilt
	}
	if err := g.checkParent(id); err != nil {
		return fmt.Errorf("RemoveObservation: %w", err)
	}
	n := &g.nodes[id]
	if n.kind != KindStochastic {
		return fmt.Errorf("RemoveObservation: node %d is %s: %w", id, n.kind, ErrWrongKind)
	}
	n.observed = false
	n.value = nil
	g.propagateFixpoints(g.orderByRank())
	return nil
}

// orderByRank reconstructs the topological order from each node's
// already-computed Rank, avoiding a second Kahn pass for a post-build
// mutation (the edge set itself never changes after Build).
func (g *Graph) orderByRank() []NodeID {
	order := make([]NodeID, len(g.nodes))
	for id := range g.nodes {
		order[g.nodes[id].rank] = NodeID(id)
	}
	return order
}

// writeRange scatters values into v (shaped like dim) at the positions
// idxRange names, in the same column-major traversal order monitor's
// selectRange reads them back out in.
func writeRange(v core.ValArray, dim core.DimArray, idxRange core.IndexRange, values core.ValArray) error {
	idx := idxRange.Lower.Clone()
	pos := 0
	for {
		off, err := core.FlatOffset(dim, idx)
		if err != nil {
			return err
		}
		v[off] = values[pos]
		pos++

		carry := 0
		for carry < len(idx) {
			idx[carry]++
			if idx[carry] <= idxRange.Upper[carry] {
				break
			}
			idx[carry] = idxRange.Lower[carry]
			carry++
		}
		if carry == len(idx) {
			break
		}
	}
	return nil
}
