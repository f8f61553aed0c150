// Package smoother implements the backward reweighting pass spec.md §4.7
// describes, run over the forward filtering history smc.Sampler records.
// No file in the retrieval pack's original_source/ implements a backward
// smoother (the kept C++ sources are the forward samplers and the
// compiler console only), so this package is grounded directly on
// spec.md §4.7's formula and the standard particle-smoothing technique it
// describes, expressed in the same log-domain-stable idiom smc/ uses for
// its own weight bookkeeping.
package smoother

import (
	"math"

	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/sampler"
	"github.com/arn-lab/gopgm/smc"
)

// Result holds the backward-smoothed weights for a full forward history:
// Weights[t][i] is the normalized smoothed weight ŵᵢ^t of particle i at
// the t-th scheduled node (spec.md §4.7), aligned index-for-index with
// the smc.Snapshot history that produced it.
type Result struct {
	Weights [][]float64
}

// Run computes the backward-smoothed weights for a complete forward pass
// (spec.md §4.7). The last step's smoothed weights equal its normalized
// filtering weights. Every earlier step t's smoothed weight for particle
// i is proportional to its filtering weight times
// Σⱼ ŵⱼ^{t+1} · p(xⱼ^{t+1} | xᵢ^t, observations), where the transition
// factor is the prior density of the (t+1)-th scheduled node evaluated
// with particle i's own cumulative value map supplying its parents —
// valid because the forward schedule is already topologically ordered,
// so every one of that node's unobserved-stochastic parents was sampled
// at or before step t. Normalization is applied after each step.
func Run(g *graph.Graph, history []smc.Snapshot) (Result, error) {
	steps := len(history)
	weights := make([][]float64, steps)
	if steps == 0 {
		return Result{Weights: weights}, nil
	}

	weights[steps-1] = normalize(history[steps-1].LogWeight)

	for t := steps - 2; t >= 0; t-- {
		cur := history[t]
		next := history[t+1]
		nextNode, err := g.Node(next.NodeID)
		if err != nil {
			return Result{}, err
		}

		smoothedLog := make([]float64, len(cur.Values))
		for i := range cur.Values {
			params, err := sampler.ParamValues(g, cur.Values[i], nextNode.Parents())
			if err != nil {
				return Result{}, err
			}
			bounds, err := sampler.NodeBounds(g, cur.Values[i], nextNode)
			if err != nil {
				return Result{}, err
			}

			logTerms := make([]float64, len(next.Values))
			maxLog := math.Inf(-1)
			for j := range next.Values {
				yVal, ok := next.Values[j].Get(next.NodeID)
				if !ok {
					return Result{}, sampler.NewLogic("smoother: node %d missing value for particle %d", next.NodeID, j)
				}
				lp, err := nextNode.Prior().LogDensity(yVal, params, bounds)
				if err != nil {
					return Result{}, sampler.NewRuntime("smoother: transition density at step %d: %v", t, err)
				}
				logWJNext := math.Log(weights[t+1][j])
				logTerms[j] = logWJNext + lp
				if logTerms[j] > maxLog {
					maxLog = logTerms[j]
				}
			}

			if math.IsInf(maxLog, -1) {
				smoothedLog[i] = math.Inf(-1)
				continue
			}
			sum := 0.0
			for _, lt := range logTerms {
				sum += math.Exp(lt - maxLog)
			}
			smoothedLog[i] = cur.LogWeight[i] + maxLog + math.Log(sum)
		}
		weights[t] = normalize(smoothedLog)
	}

	return Result{Weights: weights}, nil
}

// normalize converts log-weights into normalized linear weights summing
// to 1, via the max-subtraction trick smc/sampler.go's own
// normalizeFromLog uses; an all -Inf input (every particle's transition
// mass vanished) returns the all-zero vector.
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
