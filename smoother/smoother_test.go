package smoother_test

import (
	"math"
	"testing"

	"github.com/arn-lab/gopgm/conjugate"
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/registry"
	"github.com/arn-lab/gopgm/sampler"
	"github.com/arn-lab/gopgm/smc"
	"github.com/arn-lab/gopgm/smoother"
	"github.com/stretchr/testify/require"
)

// buildLinearGaussianHMM reproduces spec.md §8 scenario (A)/(E): x0 ~
// N(0,1), xt ~ N(x_{t-1}, 1), yt ~ N(xt, 0.5) observed at data[t].
func buildLinearGaussianHMM(t *testing.T, data []float64) (*graph.Graph, []graph.NodeID) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, registry.LoadBaseModule(reg))
	dnorm, err := reg.Distribution("dnorm")
	require.NoError(t, err)

	dim, err := core.NewDimArray(1)
	require.NoError(t, err)

	g := graph.New()
	zero, _ := g.AddConstant(dim, core.ValArray{0})
	one, _ := g.AddConstant(dim, core.ValArray{1})
	two, _ := g.AddConstant(dim, core.ValArray{2})

	xs := make([]graph.NodeID, len(data))
	for i := range data {
		meanParent := zero
		if i > 0 {
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

// kalmanFilter returns the filtering mean/variance of xt for every t,
// for a prior N(0,1), unit transition variance, and observation variance
// 0.5.
func kalmanFilter(data []float64) (means, variances []float64) {
	const transVar = 1.0
	const obsVar = 0.5
	mean, variance := 0.0, 1.0
	means = make([]float64, len(data))
	variances = make([]float64, len(data))
	for t, y := range data {
		predMean, predVar := mean, variance
		if t > 0 {
			predVar = variance + transVar
		}
		gain := predVar / (predVar + obsVar)
		mean = predMean + gain*(y-predMean)
		variance = (1 - gain) * predVar
		means[t] = mean
		variances[t] = variance
	}
	return means, variances
}

// rtsSmoother runs the Rauch-Tung-Striebel backward recursion over the
// Kalman filtering means/variances to produce the exact smoothing means,
// the reference scenario (E) compares against.
func rtsSmoother(filterMeans, filterVars []float64) []float64 {
	const transVar = 1.0
	n := len(filterMeans)
	smoothMeans := make([]float64, n)
	smoothVars := make([]float64, n)
	smoothMeans[n-1] = filterMeans[n-1]
	smoothVars[n-1] = filterVars[n-1]
	for t := n - 2; t >= 0; t-- {
		predVar := filterVars[t] + transVar
		gain := filterVars[t] / predVar
		smoothMeans[t] = filterMeans[t] + gain*(smoothMeans[t+1]-filterMeans[t])
		smoothVars[t] = filterVars[t] + gain*gain*(smoothVars[t+1]-predVar)
	}
	return smoothMeans
}

func weightedMean(values []*sampler.Values, id graph.NodeID, weights []float64) float64 {
	sum := 0.0
	for i, v := range values {
		val, _ := v.Get(id)
		sum += weights[i] * val[0]
	}
	return sum
}

func TestRun_MatchesRTSSmootherMeans(t *testing.T) {
	data := []float64{0.3, 0.7, 0.2, -0.4, 0.9}
	g, xs := buildLinearGaussianHMM(t, data)
	filterMeans, filterVars := kalmanFilter(data)
	wantSmooth := rtsSmoother(filterMeans, filterVars)

	reg := sampler.NewRegistry(conjugate.Factories()...)
	s, err := smc.New(g, reg, 4000, 77, smc.Policy{Method: smc.Systematic, ESSThreshold: 0.5})
	require.NoError(t, err)
	require.NoError(t, s.Run())

	result, err := smoother.Run(g, s.History())
	require.NoError(t, err)
	require.Len(t, result.Weights, len(data))

	history := s.History()
	for t := range data {
		got := weightedMean(history[t].Values, xs[t], result.Weights[t])
		require.InDelta(t, wantSmooth[t], got, 0.1, "smoothed mean at t=%d", t)
	}
}

func TestRun_FinalStepWeightsEqualFilteringWeights(t *testing.T) {
	data := []float64{0.1, -0.2}
	g, _ := buildLinearGaussianHMM(t, data)
	reg := sampler.NewRegistry(conjugate.Factories()...)
	s, err := smc.New(g, reg, 500, 3, smc.Policy{Method: smc.Multinomial, ESSThreshold: 1e-9})
	require.NoError(t, err)
	require.NoError(t, s.Run())

	result, err := smoother.Run(g, s.History())
	require.NoError(t, err)

	history := s.History()
	last := len(history) - 1
	logW := history[last].LogWeight
	maxLog := logW[0]
	for _, lw := range logW {
		if lw > maxLog {
			maxLog = lw
		}
	}
	// The final step's smoothed weights must equal its normalized
	// filtering weights exactly (spec.md §4.7: "the last step's smoothed
	// weights equal its normalized filtering weights").
	total := 0.0
	normalized := make([]float64, len(logW))
	for i, lw := range logW {
		normalized[i] = math.Exp(lw - maxLog)
		total += normalized[i]
	}
	for i := range normalized {
		normalized[i] /= total
	}
	for i := range normalized {
		require.InDelta(t, normalized[i], result.Weights[last][i], 1e-9)
	}
}

func TestRun_EmptyHistoryReturnsEmptyResult(t *testing.T) {
	g, _ := buildLinearGaussianHMM(t, nil)
	result, err := smoother.Run(g, nil)
	require.NoError(t, err)
	require.Empty(t, result.Weights)
}
