package smc

import (
	"math"
	"sort"

	"github.com/arn-lab/gopgm/rng"
)

// Method identifies one of the four resampling algorithms spec.md §4.6
// names.
type Method int

const (
	// Multinomial draws N indices ~ Categorical(w̃) independently.
	Multinomial Method = iota
	// Residual assigns floor(N*w̃ᵢ) copies deterministically and fills the
	// remainder multinomially from the residual weights.
	Residual
	// Stratified partitions [0,1) into N equal strata and draws one
	// uniform per stratum.
	Stratified
	// Systematic probes a single common offset at u+k/N for k=0..N-1.
	Systematic
)

func (m Method) String() string {
	switch m {
	case Multinomial:
		return "multinomial"
	case Residual:
		return "residual"
	case Stratified:
		return "stratified"
	case Systematic:
		return "systematic"
	default:
		return "unknown"
	}
}

// resampleAncestors returns, for each slot 0..N-1 of the resampled
// generation, the index of the original particle it descends from. The
// result is non-decreasing in the original index (spec.md §4.6: "After
// resampling the order of surviving particles is preserved (no
// shuffle)"), and a particle with exactly zero weight never appears
// (left-continuous CDF inversion never selects a zero-width interval).
func resampleAncestors(method Method, weights []float64, n int, src *rng.Stream) []int {
	var counts []int
	switch method {
	case Residual:
		counts = residualCounts(weights, n, src)
	case Stratified:
		counts = countsFromProbes(weights, stratifiedProbes(n, src))
	case Systematic:
		counts = countsFromProbes(weights, systematicProbes(n, src))
	default:
		counts = countsFromProbes(weights, multinomialProbes(n, src))
	}
	return ancestorsFromCounts(counts)
}

func multinomialProbes(n int, src *rng.Stream) []float64 {
	probes := make([]float64, n)
	for i := range probes {
		probes[i] = src.Float64()
	}
	sort.Float64s(probes)
	return probes
}

func stratifiedProbes(n int, src *rng.Stream) []float64 {
	probes := make([]float64, n)
	for k := 0; k < n; k++ {
		probes[k] = (float64(k) + src.Float64()) / float64(n)
	}
	return probes
}

func systematicProbes(n int, src *rng.Stream) []float64 {
	u := src.Float64() / float64(n)
	probes := make([]float64, n)
	for k := 0; k < n; k++ {
		probes[k] = u + float64(k)/float64(n)
	}
	return probes
}

// countsFromProbes buckets each ascending probe into its left-continuous
// CDF interval over normalized weights (probe < cumulative weight selects
// the bucket), and returns the per-original-particle hit count.
func countsFromProbes(weights []float64, probes []float64) []int {
	counts := make([]int, len(weights))
	cum := 0.0
	j := 0
	for i, w := range weights {
		cum += w
		for j < len(probes) && probes[j] < cum {
			counts[i]++
			j++
		}
	}
	// Floating-point rounding of the final cumulative sum can strand a
	// probe just past 1; it falls to the last nonzero-weight particle.
	if j < len(probes) {
		last := len(weights) - 1
		for ; last > 0 && weights[last] <= 0; last-- {
		}
		counts[last] += len(probes) - j
	}
	return counts
}

// residualCounts implements spec.md §4.6's residual method: floor(N*w̃ᵢ)
// deterministic copies per particle, the shortfall filled by a
// multinomial draw over the residual (fractional) weights.
func residualCounts(weights []float64, n int, src *rng.Stream) []int {
	counts := make([]int, len(weights))
	residual := make([]float64, len(weights))
	used := 0
	for i, w := range weights {
		exact := float64(n) * w
		floor := math.Floor(exact)
		counts[i] = int(floor)
		used += int(floor)
		residual[i] = exact - floor
	}
	remainder := n - used
	if remainder <= 0 {
		return counts
	}
	sum := 0.0
	for _, r := range residual {
		sum += r
	}
	if sum <= 0 {
		for i := len(weights) - 1; i >= 0; i-- {
			if weights[i] > 0 {
				counts[i] += remainder
				return counts
			}
		}
		return counts
	}
	normResidual := make([]float64, len(residual))
	for i, r := range residual {
		normResidual[i] = r / sum
	}
	extra := countsFromProbes(normResidual, multinomialProbes(remainder, src))
	for i, c := range extra {
		counts[i] += c
	}
	return counts
}

// ancestorsFromCounts expands per-particle copy counts into an explicit
// ancestor list, one entry per resampled slot, in ascending original-index
// order.
func ancestorsFromCounts(counts []int) []int {
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make([]int, 0, total)
	for i, c := range counts {
		for k := 0; k < c; k++ {
			out = append(out, i)
		}
	}
	return out
}
