// Package monitor implements the snapshot and accumulator layer spec.md
// §4.8 describes: a monitor addresses a node by range, records its value,
// weight, ESS, discreteness and iteration index at every forward or
// backward step it is attached for, and exposes derived statistics over
// those snapshots. Grounded on the monitor output fields spec.md §4.8/§6
// enumerate, and wired against the same gonum stat cluster conjugate/
// already uses for distribution math (gonum.org/v1/gonum/stat for
// weighted mean/variance/moments/quantiles).
package monitor

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/sampler"
	"github.com/arn-lab/gopgm/smc"
	"github.com/arn-lab/gopgm/smoother"
)

// Kind classifies a monitor's provenance (spec.md §4.8: "monitor type ∈
// {filter, smooth, backward-smooth}").
type Kind int

const (
	Filter Kind = iota
	Smooth
	BackwardSmooth
)

func (k Kind) String() string {
	switch k {
	case Filter:
		return "filter"
	case Smooth:
		return "smooth"
	case BackwardSmooth:
		return "backward-smooth"
	default:
		return "unknown"
	}
}

var (
	// ErrNodeNotScheduled indicates the requested node never appears in
	// the forward schedule the history was recorded from, so it has no
	// snapshots to monitor.
	ErrNodeNotScheduled = errors.New("monitor: node was not sampled in this history")

	// ErrRangeOutOfBounds indicates the requested IndexRange does not fit
	// the node's declared dimension.
	ErrRangeOutOfBounds = errors.New("monitor: index range does not fit node dimension")
)

// Output is the monitor output tensor spec.md §6 describes: for the
// addressed node and range, a particle-indexed value tensor (trailing
// axis = particle), a matching weight tensor, an ESS tensor per time
// step, a discreteness flag, an iteration tensor, the conditioning
// observation set, the range bounds, the monitor name, and its Kind.
type Output struct {
	Name         string
	Kind         Kind
	Node         graph.NodeID
	Range        core.IndexRange
	Values       [][]core.ValArray // Values[t][p] = the range-selected sub-vector for particle p at step t
	Weights      [][]float64       // Weights[t][p], normalized
	ESS          []float64         // ESS[t]
	Discrete     bool
	Iteration    []int        // Iteration[t] = the NodeID sampled at step t (monotone schedule position proxy)
	Conditionals []graph.NodeID
}

// NumSteps returns the number of recorded time steps.
func (o Output) NumSteps() int { return len(o.Values) }

// FromFilter builds a filter-type Output by extracting, from a completed
// smc.Sampler's forward history, every step's snapshot at which target
// was the node just sampled onward (spec.md §4.8: a filter monitor tracks
// a node across every subsequent iteration once it exists, not only the
// iteration it was sampled at, since later iterations' particles still
// carry its value in their cumulative value map). rng selects the
// sub-range of target's value to record; pass core.FullRange(dim) to
// monitor the whole node.
func FromFilter(name string, g *graph.Graph, history []smc.Snapshot, target graph.NodeID, rng core.IndexRange) (Output, error) {
	return build(name, Filter, g, history, target, rng, nil)
}

// FromBackwardSmooth builds a backward-smooth-type Output, pairing the
// same forward history FromFilter would use with the normalized smoothed
// weights smoother.Run computed over it (spec.md §4.7/§4.8).
func FromBackwardSmooth(name string, g *graph.Graph, history []smc.Snapshot, smoothed smoother.Result, target graph.NodeID, rng core.IndexRange) (Output, error) {
	if len(smoothed.Weights) != len(history) {
		return Output{}, fmt.Errorf("monitor: smoothed weights have %d steps, history has %d", len(smoothed.Weights), len(history))
	}
	return build(name, BackwardSmooth, g, history, target, rng, smoothed.Weights)
}

// build is the shared extraction core for FromFilter/FromBackwardSmooth:
// overrideWeights, when non-nil, replaces each step's normalized filtering
// weights with the corresponding pre-normalized backward weights.
func build(name string, kind Kind, g *graph.Graph, history []smc.Snapshot, target graph.NodeID, idxRange core.IndexRange, overrideWeights [][]float64) (Output, error) {
	node, err := g.Node(target)
	if err != nil {
		return Output{}, fmt.Errorf("monitor: %w", err)
	}
	if !idxRange.WithinDim(node.Dim()) {
		return Output{}, ErrRangeOutOfBounds
	}

	startStep := -1
	for t, snap := range history {
		if hasValue(snap.Values, target) {
			startStep = t
			break
		}
	}
	if startStep == -1 {
		return Output{}, ErrNodeNotScheduled
	}

	steps := len(history) - startStep
	values := make([][]core.ValArray, steps)
	weights := make([][]float64, steps)
	ess := make([]float64, steps)
	iteration := make([]int, steps)

	for i := 0; i < steps; i++ {
		snap := history[startStep+i]
		n := len(snap.Values)
		stepValues := make([]core.ValArray, n)
		for p := 0; p < n; p++ {
			v, ok := snap.Values[p].Get(target)
			if !ok {
				return Output{}, fmt.Errorf("monitor: %w", ErrNodeNotScheduled)
			}
			sub, err := selectRange(v, node.Dim(), idxRange)
			if err != nil {
				return Output{}, err
			}
			stepValues[p] = sub
		}
		values[i] = stepValues

		var w []float64
		if overrideWeights != nil {
			w = overrideWeights[startStep+i]
		} else {
			w = normalize(snap.LogWeight)
		}
		weights[i] = w
		ess[i] = effectiveSampleSizeOf(w)
		iteration[i] = int(snap.NodeID)
	}

	return Output{
		Name:         name,
		Kind:         kind,
		Node:         target,
		Range:        idxRange,
		Values:       values,
		Weights:      weights,
		ESS:          ess,
		Discrete:     node.Discrete(),
		Iteration:    iteration,
		Conditionals: conditioningObservations(g, history),
	}, nil
}

func hasValue(values []*sampler.Values, id graph.NodeID) bool {
	if len(values) == 0 {
		return false
	}
	_, ok := values[0].Get(id)
	return ok
}

// selectRange extracts the elements of v named by idxRange out of a
// ValArray shaped like dim, preserving column-major traversal order.
func selectRange(v core.ValArray, dim core.DimArray, idxRange core.IndexRange) (core.ValArray, error) {
	out := make(core.ValArray, 0, idxRange.Length())
	idx := idxRange.Lower.Clone()
	for {
		off, err := core.FlatOffset(dim, idx)
		if err != nil {
			return nil, fmt.Errorf("monitor: %w", err)
		}
		out = append(out, v[off])

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
	return out, nil
}

// conditioningObservations returns the observed nodes whose likelihood
// has already been incorporated into particle weights by the end of the
// recorded history, the "set of conditioning observations" spec.md §4.8's
// output requires: the union, over every node the forward schedule
// sampled, of its likelihood children (spec.md §3/§4.1's observed
// stochastic descendants reachable through logical intermediates only).
func conditioningObservations(g *graph.Graph, history []smc.Snapshot) []graph.NodeID {
	seen := map[graph.NodeID]bool{}
	var out []graph.NodeID
	for _, snap := range history {
		children, err := g.LikelihoodChildren(snap.NodeID)
		if err != nil {
			continue
		}
		for _, c := range children {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

func normalize(logW []float64) []float64 {
	max := math.Inf(-1)
	for _, v := range logW {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logW))
	if math.IsInf(max, -1) {
		return out
	}
	sum := 0.0
	for i, v := range logW {
		e := math.Exp(v - max)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func effectiveSampleSizeOf(w []float64) float64 {
	sumSq := 0.0
	for _, wi := range w {
		sumSq += wi * wi
	}
	if sumSq == 0 {
		return 0
	}
	return 1 / sumSq
}

// Stats holds the derived accumulator statistics spec.md §4.8 names for a
// single monitored component at a single time step: mean, variance and
// higher moments. The equi-width histogram comes from NewHistogram, and
// a quantile sketch is obtained separately via Quantile, since its
// argument (the probability) varies per call.
type Stats struct {
	Mean       float64
	Variance   float64
	Skewness   float64
	ExKurtosis float64
}

// Accumulate computes weighted mean/variance/skewness/excess-kurtosis
// over one time step's particle values for a single scalar component,
// via gonum/stat's weighted moment functions (spec.md §4.8: "mean,
// variance, higher moments"). weights need not be pre-normalized: they
// are rescaled to sum to len(values), since gonum's weighted estimators
// treat weights as frequencies and divide by (Σw - 1); the variance is
// therefore the unbiased estimate with divisor len(values) - 1.
func Accumulate(values []float64, weights []float64) Stats {
	w := append([]float64(nil), weights...)
	normalizeInPlace(w)
	for i := range w {
		w[i] *= float64(len(w))
	}
	mean := stat.Mean(values, w)
	variance := stat.Variance(values, w)
	skew := stat.Skew(values, w)
	kurt := stat.ExKurtosis(values, w)
	return Stats{Mean: mean, Variance: variance, Skewness: skew, ExKurtosis: kurt}
}

// Quantile returns the weighted p-quantile (p in [0,1]) of values using
// gonum/stat's empirical CDF inversion (spec.md §4.8's "quantile
// sketches"), under the default CumulantKind gonum's Quantile documents.
// values and weights are sorted together by value, ascending, as
// stat.Quantile requires.
func Quantile(p float64, values []float64, weights []float64) float64 {
	v := append([]float64(nil), values...)
	w := append([]float64(nil), weights...)
	normalizeInPlace(w)
	sortParallel(v, w)
	return stat.Quantile(p, stat.Empirical, v, w)
}

func normalizeInPlace(w []float64) {
	sum := 0.0
	for _, x := range w {
		sum += x
	}
	if sum == 0 {
		return
	}
	for i := range w {
		w[i] /= sum
	}
}

func sortParallel(v, w []float64) {
	// Simple insertion sort: monitor outputs are per-time-step particle
	// counts, not a hot path, and this keeps the sort stable without
	// reaching for a generic sort.Interface wrapper for a one-off pair.
	for i := 1; i < len(v); i++ {
		vi, wi := v[i], w[i]
		j := i - 1
		for j >= 0 && v[j] > vi {
			v[j+1] = v[j]
			w[j+1] = w[j]
			j--
		}
		v[j+1] = vi
		w[j+1] = wi
	}
}

// Histogram is an equi-width histogram over a single time step's
// (weighted) particle values (spec.md §4.8). No library in the retrieval
// pack provides a streaming equi-width histogram type, so this is
// hand-rolled (see DESIGN.md).
type Histogram struct {
	Lower, Upper float64
	Counts       []float64 // weighted mass per bin
}

// NewHistogram bins values (with their weights) into numBins equal-width
// buckets spanning [min(values), max(values)]. A value exactly at the
// upper edge falls into the last bin.
func NewHistogram(values []float64, weights []float64, numBins int) Histogram {
	if len(values) == 0 || numBins <= 0 {
		return Histogram{}
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	counts := make([]float64, numBins)
	width := hi - lo
	for i, v := range values {
		var bin int
		if width == 0 {
			bin = 0
		} else {
			bin = int((v - lo) / width * float64(numBins))
			if bin >= numBins {
				bin = numBins - 1
			}
		}
		counts[bin] += weights[i]
	}
	return Histogram{Lower: lo, Upper: hi, Counts: counts}
}
