// Package graph is the DAG of typed nodes spec.md §3/§4.1 describes: an
// arena-indexed store (Design Notes §9: "the graph is a flat vector
// indexed by node id") rather than the visitor-dispatch hierarchy a
// more classically object-oriented port would reach for. Node is a sum
// type over {Constant, Logical, Stochastic} (Design Notes §9), and every
// query that needs type-specific behavior switches on Kind at the call
// site instead of through a virtual table.
package graph

import (
	"errors"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/registry"
)

// NodeID is a dense, zero-based node identifier. The identifier set is
// always contiguous [0, N) after Build (spec.md §3).
type NodeID int

// Kind tags the three node variants.
type Kind int

const (
	// KindConstant is a node whose value is fixed at construction time.
	KindConstant Kind = iota
	// KindLogical is a deterministic function of its parents.
	KindLogical
	// KindStochastic is a random draw from a registered distribution.
	KindStochastic
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindLogical:
		return "logical"
	case KindStochastic:
		return "stochastic"
	default:
		return "unknown"
	}
}

// Sentinel errors for graph construction and compilation.
var (
	// ErrUnknownNode indicates a NodeID outside the current arena.
	ErrUnknownNode = errors.New("graph: unknown node id")
	// ErrWrongKind indicates an operation was applied to a node of the
	// wrong Kind (e.g. SetObservation on a logical node).
	ErrWrongKind = errors.New("graph: operation not valid for node kind")
	// ErrCycle indicates Build found a dependency cycle.
	ErrCycle = errors.New("graph: cycle detected")
	// ErrMissingObservation indicates an observed stochastic node has no
	// value at Build time.
	ErrMissingObservation = errors.New("graph: observed node missing a value")
	// ErrAlreadyBuilt indicates a mutating call was made after Build.
	ErrAlreadyBuilt = errors.New("graph: graph already built")
	// ErrNotBuilt indicates a query that requires ranks was made before Build.
	ErrNotBuilt = errors.New("graph: graph not built")
	// ErrInvertedBounds indicates a truncation lower bound exceeds the upper.
	ErrInvertedBounds = errors.New("graph: truncation lower bound exceeds upper bound")
	// ErrInvalidDim indicates a function/distribution rejected its
	// parents' dimensions.
	ErrInvalidDim = errors.New("graph: invalid parent dimensions")
	// ErrInvalidParamValue indicates a distribution rejected an observed
	// node's value against its parents' values.
	ErrInvalidParamValue = errors.New("graph: invalid parameter value")
)

// Distribution and Function are the graph package's local names for the
// registry's catalog contracts (spec.md §4.2), kept as aliases so
// callers can write graph.Distribution/graph.Function without importing
// registry directly.
type (
	Distribution = registry.Distribution
	Function     = registry.Function
	Bounds       = registry.Bounds
)

// Node is the sum-type record for one arena slot. Not every field is
// meaningful for every Kind; Kind tags which subset applies.
type Node struct {
	id      NodeID
	kind    Kind
	dim     core.DimArray
	parents []NodeID

	// value holds the node's value once known: always set for Constant,
	// set for Stochastic once observed, set for Logical once all parents
	// are observed (recomputed by the observation fixpoint).
	value    core.ValArray
	observed bool
	discrete bool

	// function is populated for Kind==KindLogical.
	function registry.Function

	// prior, lowerID and upperID are populated for Kind==KindStochastic.
	prior   registry.Distribution
	lowerID *NodeID
	upperID *NodeID

	rank int
}

// ID returns the node's identifier.
func (n *Node) ID() NodeID { return n.id }

// Kind returns the node's variant tag.
func (n *Node) Kind() Kind { return n.kind }

// Dim returns the node's declared output dimension.
func (n *Node) Dim() core.DimArray { return n.dim }

// Parents returns the node's parent ids in declaration order.
func (n *Node) Parents() []NodeID { return n.parents }

// Observed reports whether the node currently has a known value.
func (n *Node) Observed() bool { return n.observed }

// Discrete reports whether the node's value is constrained to integers.
func (n *Node) Discrete() bool { return n.discrete }

// Value returns the node's value buffer; callers must check Observed first.
func (n *Node) Value() core.ValArray { return n.value }

// Rank returns the node's position in the topological order; valid only
// after Build.
func (n *Node) Rank() int { return n.rank }

// Prior returns the node's distribution handle; only meaningful for
// Kind==KindStochastic.
func (n *Node) Prior() registry.Distribution { return n.prior }

// Function returns the node's function handle; only meaningful for
// Kind==KindLogical.
func (n *Node) Function() registry.Function { return n.function }

// IsBounded reports whether the node carries scalar truncation bounds.
// The conjugate package excludes bounded priors from conjugacy detection
// per Design Notes §9 ("Truncated priors are explicitly excluded from
// conjugacy detection... Leave this exclusion in place").
func (n *Node) IsBounded() bool { return n.lowerID != nil || n.upperID != nil }

// Bounds returns the truncation bound node ids, if any.
func (n *Node) Bounds() (lower, upper *NodeID) { return n.lowerID, n.upperID }

// Graph is the arena: it exclusively owns every node and its value
// buffer (spec.md §3). Zero value is not usable; construct with New.
type Graph struct {
	nodes    []Node
	children [][]NodeID // populated by Build; children[i] = ids with i as a parent
	built    bool
}

// New returns an empty, mutable Graph.
func New() *Graph {
	return &Graph{}
}

// NumNodes returns the number of nodes currently in the arena.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Node returns a pointer into the arena for id, or an error if id is out
// of range. The pointer is valid for the Graph's lifetime; callers must
// not retain it across a mutation that reallocates the arena slice, a
// risk that ends once Build has run (the arena is immutable thereafter).
func (g *Graph) Node(id NodeID) (*Node, error) {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return nil, ErrUnknownNode
	}
	return &g.nodes[id], nil
}

func (g *Graph) checkParent(id NodeID) error {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return ErrUnknownNode
	}
	return nil
}
