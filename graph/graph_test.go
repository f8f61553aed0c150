package graph_test

import (
	"testing"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/registry"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, registry.LoadBaseModule(r))
	return r
}

func scalarDim(t *testing.T) core.DimArray {
	t.Helper()
	d, err := core.NewDimArray(1)
	require.NoError(t, err)
	return d
}

// buildChain constructs mu ~ dnorm(0, 1); y ~ dnorm(mu, 1), y observed at 2.
func buildChain(t *testing.T) (*graph.Graph, graph.NodeID, graph.NodeID) {
	t.Helper()
	cat := newCatalog(t)
	dnorm, err := cat.Distribution("dnorm")
	require.NoError(t, err)

	g := graph.New()
	dim := scalarDim(t)

	zero, err := g.AddConstant(dim, core.ValArray{0})
	require.NoError(t, err)
	one, err := g.AddConstant(dim, core.ValArray{1})
	require.NoError(t, err)

	mu, err := g.AddStochastic(dnorm, []graph.NodeID{zero, one}, false, nil, nil)
	require.NoError(t, err)

	y, err := g.AddStochastic(dnorm, []graph.NodeID{mu, one}, true, nil, nil)
	require.NoError(t, err)
	require.NoError(t, g.SetObservation(y, core.ValArray{2}))

	require.NoError(t, g.Build())
	return g, mu, y
}

func TestBuild_TopologicalOrderRespectsEdges(t *testing.T) {
	g, mu, y := buildChain(t)
	ids, err := g.SortedIDs()
	require.NoError(t, err)

	muNode, err := g.Node(mu)
	require.NoError(t, err)
	yNode, err := g.Node(y)
	require.NoError(t, err)
	require.Less(t, muNode.Rank(), yNode.Rank())

	seen := map[graph.NodeID]bool{}
	for _, id := range ids {
		for _, p := range mustParents(t, g, id) {
			require.True(t, seen[p], "parent %d must precede child %d", p, id)
		}
		seen[id] = true
	}
}

func mustParents(t *testing.T, g *graph.Graph, id graph.NodeID) []graph.NodeID {
	t.Helper()
	ps, err := g.Parents(id)
	require.NoError(t, err)
	return ps
}

func TestBuild_ObservedFixpoint(t *testing.T) {
	g, mu, y := buildChain(t)
	muObserved, err := g.IsObserved(mu)
	require.NoError(t, err)
	require.False(t, muObserved)

	yObserved, err := g.IsObserved(y)
	require.NoError(t, err)
	require.True(t, yObserved)
}

func TestBuild_AcceptsAcyclicGraph(t *testing.T) {
	cat := newCatalog(t)
	dnorm, err := cat.Distribution("dnorm")
	require.NoError(t, err)
	dim := scalarDim(t)

	g := graph.New()
	one, err := g.AddConstant(dim, core.ValArray{1})
	require.NoError(t, err)
	a, err := g.AddStochastic(dnorm, []graph.NodeID{one, one}, false, nil, nil)
	require.NoError(t, err)

	// fnIdentity(a) as a logical node, then feed it back as a's own
	// parent via direct arena mutation is not expressible through the
	// public API (append-only construction prevents true cycles), so
	// this test instead confirms HasCycle is false on a well-formed
	// graph and that Build succeeds.
	_, err = g.AddLogical(mustIdentity(t, cat), []graph.NodeID{a})
	require.NoError(t, err)
	require.False(t, g.HasCycle())
	require.NoError(t, g.Build())
}

func mustIdentity(t *testing.T, r *registry.Registry) registry.Function {
	t.Helper()
	fn, err := r.Function("identity")
	require.NoError(t, err)
	return fn
}

func TestLikelihoodChildren_StopsAtUnobservedStochastic(t *testing.T) {
	cat := newCatalog(t)
	dnorm, err := cat.Distribution("dnorm")
	require.NoError(t, err)
	identity := mustIdentity(t, cat)
	dim := scalarDim(t)

	g := graph.New()
	zero, _ := g.AddConstant(dim, core.ValArray{0})
	one, _ := g.AddConstant(dim, core.ValArray{1})

	x, err := g.AddStochastic(dnorm, []graph.NodeID{zero, one}, false, nil, nil)
	require.NoError(t, err)

	xCopy, err := g.AddLogical(identity, []graph.NodeID{x})
	require.NoError(t, err)

	yObs, err := g.AddStochastic(dnorm, []graph.NodeID{xCopy, one}, true, nil, nil)
	require.NoError(t, err)
	require.NoError(t, g.SetObservation(yObs, core.ValArray{1.5}))

	zLatent, err := g.AddStochastic(dnorm, []graph.NodeID{xCopy, one}, false, nil, nil)
	require.NoError(t, err)

	require.NoError(t, g.Build())

	children, err := g.LikelihoodChildren(x)
	require.NoError(t, err)
	require.Contains(t, children, yObs)
	require.NotContains(t, children, zLatent)
}

func TestIsBounded(t *testing.T) {
	cat := newCatalog(t)
	dnorm, err := cat.Distribution("dnorm")
	require.NoError(t, err)
	dim := scalarDim(t)

	g := graph.New()
	zero, _ := g.AddConstant(dim, core.ValArray{0})
	one, _ := g.AddConstant(dim, core.ValArray{1})
	x, err := g.AddStochastic(dnorm, []graph.NodeID{zero, one}, false, &zero, &one)
	require.NoError(t, err)

	n, err := g.Node(x)
	require.NoError(t, err)
	require.True(t, n.IsBounded())
}

func TestAddConstant_DimMismatch(t *testing.T) {
	g := graph.New()
	dim, _ := core.NewDimArray(2)
	_, err := g.AddConstant(dim, core.ValArray{1})
	require.ErrorIs(t, err, core.ErrDimMismatch)
}
