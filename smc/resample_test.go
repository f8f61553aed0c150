package smc

import (
	"math"
	"testing"

	"github.com/arn-lab/gopgm/rng"
	"github.com/stretchr/testify/require"
)

func TestResampleAncestors_OrderPreservedAndZeroExcluded(t *testing.T) {
	weights := []float64{0.0, 0.5, 0.0, 0.3, 0.2}
	for _, m := range []Method{Multinomial, Residual, Stratified, Systematic} {
		src := rng.New(7)
		anc := resampleAncestors(m, weights, 10000, src)
		require.Len(t, anc, 10000)
		for i := 1; i < len(anc); i++ {
			require.LessOrEqual(t, anc[i-1], anc[i], "method %v: ancestor order must be non-decreasing", m)
		}
		counts := make(map[int]int)
		for _, a := range anc {
			counts[a]++
		}
		require.Zero(t, counts[0], "method %v: zero-weight particle 0 must never be selected", m)
		require.Zero(t, counts[2], "method %v: zero-weight particle 2 must never be selected", m)
	}
}

func TestResampleAncestors_MatchesWeightsInExpectation(t *testing.T) {
	weights := []float64{0.1, 0.6, 0.3}
	for _, m := range []Method{Multinomial, Residual, Stratified, Systematic} {
		src := rng.New(11)
		const n = 50000
		anc := resampleAncestors(m, weights, n, src)
		counts := make([]int, len(weights))
		for _, a := range anc {
			counts[a]++
		}
		for i, w := range weights {
			got := float64(counts[i]) / n
			require.InDelta(t, w, got, 0.01, "method %v particle %d", m, i)
		}
	}
}

func TestResampleAncestors_SystematicUniformWeightsSelectsEachOnce(t *testing.T) {
	weights := make([]float64, 20)
	for i := range weights {
		weights[i] = 1.0 / 20
	}
	// Uniform weights: systematic resampling should return each index
	// exactly once (its probes are evenly spaced at exactly 1/N).
	src := rng.New(3)
	anc := resampleAncestors(Systematic, weights, 20, src)
	counts := make([]int, 20)
	for _, a := range anc {
		counts[a]++
	}
	for _, c := range counts {
		require.Equal(t, 1, c)
	}
}

func TestLogMeanExp_AllInfeasibleIsNegInf(t *testing.T) {
	x := []float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	require.True(t, math.IsInf(logMeanExp(x), -1))
}

func TestLogMeanExp_MatchesDirectComputation(t *testing.T) {
	x := []float64{-1.0, 0.0, 1.0, 2.0}
	got := logMeanExp(x)
	sum := 0.0
	for _, v := range x {
		sum += math.Exp(v)
	}
	want := math.Log(sum / float64(len(x)))
	require.InDelta(t, want, got, 1e-9)
}

func TestEffectiveSampleSize_UniformWeightsGivesN(t *testing.T) {
	logWeights := make([]float64, 8)
	ess, err := effectiveSampleSize(logWeights)
	require.NoError(t, err)
	require.InDelta(t, 8, ess, 1e-9)
}

func TestEffectiveSampleSize_AllInfeasibleErrors(t *testing.T) {
	logWeights := []float64{math.Inf(-1), math.Inf(-1)}
	_, err := effectiveSampleSize(logWeights)
	require.Error(t, err)
}
