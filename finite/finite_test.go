package finite_test

import (
	"math"
	"testing"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/finite"
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

// buildCatBernoulli reproduces spec.md §8 scenario (D): k ~ Cat(pi) over
// {1,2,3} with pi=(0.2,0.5,0.3), theta=(0.2,0.6,0.9) indexed by k, and
// y ~ Bern(theta_k) observed at obs.
func buildCatBernoulli(t *testing.T, obs float64) (*graph.Graph, graph.NodeID) {
	t.Helper()
	cat := newCatalog(t)
	dcat, err := cat.Distribution("dcat")
	require.NoError(t, err)
	dbern, err := cat.Distribution("dbern")
	require.NoError(t, err)
	index, err := cat.Function("index")
	require.NoError(t, err)

	vec3, err := core.NewDimArray(3)
	require.NoError(t, err)

	g := graph.New()
	pi, _ := g.AddConstant(vec3, core.ValArray{0.2, 0.5, 0.3})
	theta, _ := g.AddConstant(vec3, core.ValArray{0.2, 0.6, 0.9})

	k, err := g.AddStochastic(dcat, []graph.NodeID{pi}, false, nil, nil)
	require.NoError(t, err)

	thetaK, err := g.AddLogical(index, []graph.NodeID{theta, k})
	require.NoError(t, err)

	y, err := g.AddStochastic(dbern, []graph.NodeID{thetaK}, true, nil, nil)
	require.NoError(t, err)
	require.NoError(t, g.SetObservation(y, core.ValArray{obs}))

	require.NoError(t, g.Build())
	return g, k
}

// posteriorCat computes P(k|y) exactly: pi_k * p(y|theta_k) / Z.
func posteriorCat(pi, theta []float64, y float64) []float64 {
	w := make([]float64, len(pi))
	sum := 0.0
	for i := range pi {
		lik := theta[i]
		if y == 0 {
			lik = 1 - theta[i]
		}
		w[i] = pi[i] * lik
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func TestFactory_MatchesFixedSupportTarget(t *testing.T) {
	g, k := buildCatBernoulli(t, 1)
	f := finite.Factory{}
	_, ok := f.Create(g, k)
	require.True(t, ok)
}

func TestSampler_MatchesExactPosterior(t *testing.T) {
	pi := []float64{0.2, 0.5, 0.3}
	theta := []float64{0.2, 0.6, 0.9}

	for _, y := range []float64{0, 1} {
		g, k := buildCatBernoulli(t, y)
		reg := sampler.NewRegistry(finite.Factory{})
		s := reg.Assign(g, k)
		require.Equal(t, "finite-enumeration", s.Name())

		src := rng.New(29)
		const n = 20000
		counts := make([]int, 3)
		for i := 0; i < n; i++ {
			values := core.NewValueMap[graph.NodeID]()
			logw, err := s.Sample(g, k, values, src)
			require.NoError(t, err)
			require.False(t, math.IsNaN(logw))
			v, ok := values.Get(k)
			require.True(t, ok)
			counts[int(v[0])-1]++
		}
		want := posteriorCat(pi, theta, y)
		for i := range want {
			got := float64(counts[i]) / n
			require.InDelta(t, want[i], got, 0.02, "y=%v category %d", y, i+1)
		}
	}
}
