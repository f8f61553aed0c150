package compiler_test

import (
	"testing"

	"github.com/arn-lab/gopgm/builder"
	"github.com/arn-lab/gopgm/compiler"
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/registry"
	"github.com/arn-lab/gopgm/smc"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, registry.LoadBaseModule(r))
	return r
}

// buildBetaBernoulli reproduces spec.md §8 scenario (B): p ~ Beta(1,1),
// y_i ~ Bernoulli(p) for i=1..10, 3 ones and 7 zeros.
func buildBetaBernoulli(t *testing.T) *builder.Model {
	t.Helper()
	m := builder.New(newRegistry(t))
	one, err := m.Const(1)
	require.NoError(t, err)
	_, err = m.Beta("p", one, one)
	require.NoError(t, err)
	p, err := m.Lookup("p")
	require.NoError(t, err)
	ones, zeros := 3, 7
	for i := 0; i < ones; i++ {
		_, err := m.BernoulliObs(nameFor("y", i), p, 1)
		require.NoError(t, err)
	}
	for i := 0; i < zeros; i++ {
		_, err := m.BernoulliObs(nameFor("y", ones+i), p, 0)
		require.NoError(t, err)
	}
	return m
}

func nameFor(prefix string, i int) string {
	return prefix + "_" + string(rune('a'+i))
}

func TestConsole_CompileBuildRunLifecycle(t *testing.T) {
	c := compiler.New()
	require.Equal(t, compiler.Uninit, c.State())

	m := buildBetaBernoulli(t)
	require.NoError(t, c.Compile(m))
	require.Equal(t, compiler.Built, c.State())

	require.NoError(t, c.BuildSampler(false))
	require.Equal(t, compiler.Initialized, c.State())

	require.NoError(t, c.SetFilterMonitor("p", core.FullRange(core.DimArray{1})))
	require.True(t, c.IsFilterMonitored("p"))

	policy := smc.Policy{Method: smc.Systematic, ESSThreshold: 0.5}
	require.NoError(t, c.RunForward(200, 1, policy))
	require.Equal(t, compiler.AtEnd, c.State())
	require.True(t, c.ForwardAtEnd())

	lognc, err := c.LogNormConst()
	require.NoError(t, err)
	require.False(t, lognc > 0)

	means, err := c.ExtractFilterStat("p", compiler.StatMean)
	require.NoError(t, err)
	require.Len(t, means, 1)
	require.InDelta(t, 0.4, means[0], 0.2)

	require.NoError(t, c.RunBackward())
	require.Equal(t, compiler.SmootherAtEnd, c.State())

	require.NoError(t, c.SetBackwardSmoothMonitor("p", core.FullRange(core.DimArray{1})))
	bmeans, err := c.ExtractBackwardSmoothStat("p", compiler.StatMean)
	require.NoError(t, err)
	require.Len(t, bmeans, 1)
}

// TestConsole_DataChangeLocksBackward reproduces spec.md §8 scenario (F):
// a data change after a completed forward/backward pass clears the
// sampler, clears every monitor, and locks RunBackward until a fresh
// RunForward completes.
func TestConsole_DataChangeLocksBackward(t *testing.T) {
	c := compiler.New()
	m := buildBetaBernoulli(t)
	require.NoError(t, c.Compile(m))
	require.NoError(t, c.BuildSampler(false))
	require.NoError(t, c.SetFilterMonitor("p", core.FullRange(core.DimArray{1})))

	policy := smc.Policy{Method: smc.Systematic, ESSThreshold: 0.5}
	require.NoError(t, c.RunForward(100, 1, policy))
	require.NoError(t, c.RunBackward())

	idxRange := core.FullRange(core.DimArray{1})
	require.NoError(t, c.ChangeData("y_a", idxRange, core.ValArray{0}))

	require.Equal(t, compiler.Built, c.State())
	require.False(t, c.IsFilterMonitored("p"))

	err := c.RunBackward()
	require.Error(t, err)

	require.NoError(t, c.BuildSampler(false))
	require.NoError(t, c.RunForward(100, 2, policy))
	require.NoError(t, c.RunBackward())
}

// TestConsole_RemoveDataReturnsNodeToLatent reproduces remove_data:
// clearing an observation returns the node to the forward schedule's
// candidate set.
func TestConsole_RemoveDataReturnsNodeToLatent(t *testing.T) {
	c := compiler.New()
	m := buildBetaBernoulli(t)
	require.NoError(t, c.Compile(m))

	require.NoError(t, c.RemoveData("y_a"))
	require.NoError(t, c.BuildSampler(false))

	policy := smc.Policy{Method: smc.Systematic, ESSThreshold: 0.5}
	require.NoError(t, c.RunForward(50, 1, policy))
	require.True(t, c.ForwardAtEnd())
}

// TestConsole_CompileDumpDataCompileIsIdempotent reproduces spec.md §8
// property 6: recompiling the same declared model twice and dumping its
// node table yields identical results both times.
func TestConsole_CompileDumpDataCompileIsIdempotent(t *testing.T) {
	c := compiler.New()
	m1 := buildBetaBernoulli(t)
	require.NoError(t, c.Compile(m1))
	nodes1, err := c.DumpNodes()
	require.NoError(t, err)

	c2 := compiler.New()
	m2 := buildBetaBernoulli(t)
	require.NoError(t, c2.Compile(m2))
	nodes2, err := c2.DumpNodes()
	require.NoError(t, err)

	require.Equal(t, len(nodes1), len(nodes2))
	for i := range nodes1 {
		require.Equal(t, nodes1[i].Name, nodes2[i].Name)
		require.Equal(t, nodes1[i].Kind, nodes2[i].Kind)
		require.Equal(t, nodes1[i].Observed, nodes2[i].Observed)
		require.Equal(t, nodes1[i].Discrete, nodes2[i].Discrete)
	}
}

// TestConsole_ClearMonitorsIsIdempotent reproduces spec.md §8 property 7:
// clearing an empty monitor set, or clearing twice in a row, is a no-op
// rather than an error.
func TestConsole_ClearMonitorsIsIdempotent(t *testing.T) {
	c := compiler.New()
	m := buildBetaBernoulli(t)
	require.NoError(t, c.Compile(m))

	c.ClearFilterMonitors(false)
	c.ClearFilterMonitors(false)
	require.False(t, c.IsFilterMonitored("p"))

	require.NoError(t, c.SetFilterMonitor("p", core.FullRange(core.DimArray{1})))
	c.ClearFilterMonitors(false)
	require.False(t, c.IsFilterMonitored("p"))
	c.ClearFilterMonitors(true)
	require.False(t, c.IsFilterMonitored("p"))
}

func TestConsole_GetLogPriorDensityAndFixedSupport(t *testing.T) {
	c := compiler.New()
	m := buildBetaBernoulli(t)
	require.NoError(t, c.Compile(m))

	density, err := c.GetLogPriorDensity("y_a", core.FullRange(core.DimArray{1}))
	require.NoError(t, err)
	require.False(t, density > 0)

	lower, upper, err := c.GetFixedSupport("y_a")
	require.NoError(t, err)
	require.Equal(t, 0.0, lower)
	require.Equal(t, 1.0, upper)

	_, _, err = c.GetFixedSupport("p")
	require.Error(t, err)
}

func TestConsole_SampleDataDrawsFromPrior(t *testing.T) {
	c := compiler.New()
	m := buildBetaBernoulli(t)
	require.NoError(t, c.Compile(m))

	require.NoError(t, c.RemoveData("y_a"))
	out, err := c.SampleData("y_a", core.FullRange(core.DimArray{1}), 7)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.True(t, out[0] == 0 || out[0] == 1)
}

func TestConsole_LifecycleViolationsAreClassified(t *testing.T) {
	c := compiler.New()
	m := buildBetaBernoulli(t)

	err := c.BuildSampler(false)
	require.Error(t, err)

	require.NoError(t, c.Compile(m))
	err = c.RunBackward()
	require.Error(t, err)
}
