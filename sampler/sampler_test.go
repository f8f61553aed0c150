package sampler_test

import (
	"testing"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/registry"
	"github.com/arn-lab/gopgm/rng"
	"github.com/arn-lab/gopgm/sampler"
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

func TestPriorMutation_SampleAndReweight(t *testing.T) {
	cat := newCatalog(t)
	dnorm, err := cat.Distribution("dnorm")
	require.NoError(t, err)
	dim := scalarDim(t)

	g := graph.New()
	zero, _ := g.AddConstant(dim, core.ValArray{0})
	one, _ := g.AddConstant(dim, core.ValArray{1})
	mu, err := g.AddStochastic(dnorm, []graph.NodeID{zero, one}, false, nil, nil)
	require.NoError(t, err)
	y, err := g.AddStochastic(dnorm, []graph.NodeID{mu, one}, true, nil, nil)
	require.NoError(t, err)
	require.NoError(t, g.SetObservation(y, core.ValArray{2}))
	require.NoError(t, g.Build())

	reg := sampler.NewRegistry()
	s := reg.Assign(g, mu)
	require.Equal(t, "prior-mutation", s.Name())

	values := core.NewValueMap[graph.NodeID]()
	src := rng.New(1)
	logw, err := s.Sample(g, mu, values, src)
	require.NoError(t, err)
	require.False(t, logw != logw, "log weight must not be NaN")

	v, ok := values.Get(mu)
	require.True(t, ok)
	require.Len(t, v, 1)
}

func TestRegistry_Names(t *testing.T) {
	reg := sampler.NewRegistry()
	require.Equal(t, []string{"prior-mutation"}, reg.Names())
}

func TestLogicAndRuntimeErrors(t *testing.T) {
	le := sampler.NewLogic("bad: %d", 1)
	require.True(t, sampler.IsLogic(le))
	require.False(t, sampler.IsRuntime(le))

	re := sampler.NewRuntime("bad: %d", 2)
	require.True(t, sampler.IsRuntime(re))
	require.False(t, sampler.IsLogic(re))
}
