package smc

import (
	"math"
	"testing"

	"github.com/arn-lab/gopgm/conjugate"
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/registry"
	"github.com/arn-lab/gopgm/sampler"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, registry.LoadBaseModule(r))
	return r
}

// buildLinearGaussianHMM reproduces spec.md §8 scenario (A): x0 ~ N(0,1),
// xt ~ N(x_{t-1}, 1) for t=1..T-1, yt ~ N(xt, 0.5) observed at data[t].
func buildLinearGaussianHMM(t *testing.T, data []float64) (*graph.Graph, []graph.NodeID) {
	t.Helper()
	cat := newCatalog(t)
	dnorm, err := cat.Distribution("dnorm")
	require.NoError(t, err)

	dim, err := core.NewDimArray(1)
	require.NoError(t, err)

	g := graph.New()
	zero, _ := g.AddConstant(dim, core.ValArray{0})
	one, _ := g.AddConstant(dim, core.ValArray{1})
	two, _ := g.AddConstant(dim, core.ValArray{2}) // precision 2 = 1/0.5

	xs := make([]graph.NodeID, len(data))
	for i := range data {
		var meanParent graph.NodeID
		if i == 0 {
			meanParent = zero
		} else {
			meanParent = xs[i-1]
		}
		x, err := g.AddStochastic(dnorm, []graph.NodeID{meanParent, one}, false, nil, nil)
		require.NoError(t, err)
		xs[i] = x

		y, err := g.AddStochastic(dnorm, []graph.NodeID{x, two}, true, nil, nil)
		require.NoError(t, err)
		require.NoError(t, g.SetObservation(y, core.ValArray{data[i]}))
	}
	require.NoError(t, g.Build())
	return g, xs
}

// kalmanFilterMeans returns the exact filtering mean of xt for t=0..T-1
// via the textbook scalar Kalman recursion, for a prior N(0,1), unit
// transition variance, and observation variance 0.5 — the same model
// buildLinearGaussianHMM constructs, used as the ground truth scenario
// (A) compares the SMC filtering estimate against.
func kalmanFilterMeans(data []float64) []float64 {
	const transVar = 1.0
	const obsVar = 0.5
	mean, variance := 0.0, 1.0
	out := make([]float64, len(data))
	for t, y := range data {
		predMean, predVar := mean, variance
		if t > 0 {
			predVar = variance + transVar
		}
		gain := predVar / (predVar + obsVar)
		mean = predMean + gain*(y-predMean)
		variance = (1 - gain) * predVar
		out[t] = mean
	}
	return out
}

// weightedMean returns the weighted mean of the particles' scalar value
// at node id using the particles' current (possibly unnormalized)
// log-weights.
func weightedMean(particles []*Particle, id graph.NodeID) float64 {
	logWeights := make([]float64, len(particles))
	for i, p := range particles {
		logWeights[i] = p.LogWeight
	}
	w := normalizeFromLog(logWeights)
	sum := 0.0
	for i, p := range particles {
		v, _ := p.Values.Get(id)
		sum += w[i] * v[0]
	}
	return sum
}

func TestForwardSampler_MatchesKalmanFilterMean(t *testing.T) {
	data := []float64{0.3, 0.7, 0.2, -0.4, 0.9}
	g, xs := buildLinearGaussianHMM(t, data)
	want := kalmanFilterMeans(data)

	reg := sampler.NewRegistry(conjugate.Factories()...)
	s, err := New(g, reg, 4000, 42, Policy{Method: Systematic, ESSThreshold: 0.5})
	require.NoError(t, err)
	require.Equal(t, len(data), s.NumIterations())

	gotMeans := make([]float64, len(data))
	for i := range data {
		require.NoError(t, s.Step())
		gotMeans[i] = weightedMean(s.Particles(), xs[i])
	}
	require.True(t, s.AtEnd())

	for i := range data {
		require.InDelta(t, want[i], gotMeans[i], 0.1, "filtering mean at t=%d", i)
	}
}

func TestSampler_ResampleResetsWeightsToEqual(t *testing.T) {
	data := []float64{5.0, -5.0, 5.0, -5.0} // sharp swings force low ESS
	g, _ := buildLinearGaussianHMM(t, data)

	reg := sampler.NewRegistry(conjugate.Factories()...)
	s, err := New(g, reg, 200, 5, Policy{Method: Multinomial, ESSThreshold: 0.9})
	require.NoError(t, err)

	resampledAtLeastOnce := false
	for !s.AtEnd() {
		require.NoError(t, s.Step())
		if s.ESS()/float64(s.N()) < 0.9 {
			resampledAtLeastOnce = true
			first := s.Particles()[0].LogWeight
			for _, p := range s.Particles() {
				require.InDelta(t, first, p.LogWeight, 1e-9)
			}
		}
	}
	require.True(t, resampledAtLeastOnce, "an ESS threshold of 0.9 over sharply swinging data should force at least one resample")
}

func TestSampler_NoUnobservedNodesCompletesImmediately(t *testing.T) {
	dim, err := core.NewDimArray(1)
	require.NoError(t, err)

	g := graph.New()
	_, _ = g.AddConstant(dim, core.ValArray{1})
	require.NoError(t, g.Build())

	reg := sampler.NewRegistry()
	s, err := New(g, reg, 100, 1, Policy{Method: Multinomial, ESSThreshold: 0.5})
	require.NoError(t, err)
	require.Equal(t, 0, s.NumIterations())
	require.True(t, s.AtEnd())
	require.NoError(t, s.Run())
	require.Equal(t, 0.0, s.LogNormConst())
}

// TestSampler_NonResamplingStepPreservesUnnormalizedWeightSum checks
// spec.md §8's per-step invariant directly: for a step that does not
// resample, Σᵢ wᵢ^{t+1} = Σᵢ wᵢ^{t}·exp(log_incrᵢ) in the unnormalized
// (exponentiated) domain, step by step across the whole run.
func TestSampler_NonResamplingStepPreservesUnnormalizedWeightSum(t *testing.T) {
	data := []float64{0.1, -0.2, 0.3, 0.05, -0.1}
	g, _ := buildLinearGaussianHMM(t, data)

	reg := sampler.NewRegistry(conjugate.Factories()...)
	s, err := New(g, reg, 300, 21, Policy{Method: Multinomial, ESSThreshold: 1e-9}) // never resample
	require.NoError(t, err)

	prevSum := float64(s.N()) // every particle starts at log-weight 0
	for !s.AtEnd() {
		prevWeights := make([]float64, len(s.Particles()))
		for i, p := range s.Particles() {
			prevWeights[i] = p.LogWeight
		}
		require.NoError(t, s.Step())

		gotSum := 0.0
		for _, p := range s.Particles() {
			gotSum += math.Exp(p.LogWeight)
		}
		require.InDelta(t, prevSum, gotSum, 1e-6, "unnormalized weight sum drifted across a non-resampling step")

		wantSum := 0.0
		for i, p := range s.Particles() {
			logIncr := p.LogWeight - prevWeights[i]
			wantSum += math.Exp(prevWeights[i]) * math.Exp(logIncr)
		}
		require.InDelta(t, wantSum, gotSum, 1e-6)
		prevSum = gotSum
	}
}

func TestSampler_LogNormConstWithoutResampleMatchesDirectFormula(t *testing.T) {
	data := []float64{0.1, -0.2, 0.3}
	g, _ := buildLinearGaussianHMM(t, data)

	reg := sampler.NewRegistry(conjugate.Factories()...)
	s, err := New(g, reg, 500, 9, Policy{Method: Multinomial, ESSThreshold: 1e-9}) // effectively never resample
	require.NoError(t, err)
	require.NoError(t, s.Run())

	logWeights := make([]float64, len(s.Particles()))
	for i, p := range s.Particles() {
		logWeights[i] = p.LogWeight
	}
	want := logMeanExp(logWeights)
	require.InDelta(t, want, s.LogNormConst(), 1e-9)
}
