// Package finite implements the enumeration sampler spec.md §4.5
// describes: for a target with fixed, finite, bounded support, enumerate
// every candidate value, weight it by prior times likelihood, and draw
// from the resulting discrete distribution exactly rather than by Monte
// Carlo proposal. It is tried after conjugate/ and before the universal
// prior-mutation fallback (spec.md §2: "conjugate analytic sampler,
// finite enumeration, or prior-mutation fallback").
package finite

import (
	"math"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/registry"
	"github.com/arn-lab/gopgm/rng"
	"github.com/arn-lab/gopgm/sampler"
)

// Factory recognizes a scalar stochastic target whose support oracle
// reports SupportFixed. Whether the support can actually be enumerated
// depends on the resolved parameter values (e.g. dbin's upper bound n
// may itself be latent), so Create only checks the structural
// precondition; Sample calls FiniteSupport per particle and fails with a
// RuntimeError if that particle's parameters don't yield a bounded set.
type Factory struct{}

func (Factory) Name() string { return "finite-enumeration" }

func (Factory) Create(g *graph.Graph, id graph.NodeID) (sampler.NodeSampler, bool) {
	n, err := g.Node(id)
	if err != nil || n.Kind() != graph.KindStochastic || n.Observed() {
		return nil, false
	}
	if !n.Dim().IsScalar() {
		return nil, false
	}
	if n.Prior().SupportHint() != registry.SupportFixed {
		return nil, false
	}
	return sampler1{}, true
}

type sampler1 struct{}

func (sampler1) Name() string { return "finite-enumeration" }

// Sample enumerates the target's support, evaluates w(x) = p_prior(x) *
// prod p_like(y_i|x) for each candidate, and draws x* proportional to w
// (spec.md §4.5). It returns log(sum w) as the incremental weight, the
// standard SMC normalization for an exactly-marginalized node.
func (sampler1) Sample(g *graph.Graph, id graph.NodeID, values *sampler.Values, src *rng.Stream) (float64, error) {
	n, err := g.Node(id)
	if err != nil {
		return 0, sampler.NewLogic("finite-enumeration: %v", err)
	}
	params, err := sampler.ParamValues(g, values, n.Parents())
	if err != nil {
		return 0, err
	}
	support, ok := n.Prior().FiniteSupport(params)
	if !ok || len(support) == 0 {
		return 0, sampler.NewRuntime("finite-enumeration: node %d has no enumerable support for these parameters", id)
	}
	bounds, err := sampler.NodeBounds(g, values, n)
	if err != nil {
		return 0, err
	}

	children, err := g.LikelihoodChildren(id)
	if err != nil {
		return 0, sampler.NewLogic("finite-enumeration: %v", err)
	}

	logw := make([]float64, len(support))
	maxLogw := math.Inf(-1)
	for i, x := range support {
		xv := core.ValArray{x}
		lp, err := n.Prior().LogDensity(xv, params, bounds)
		if err != nil {
			return 0, sampler.NewRuntime("finite-enumeration: prior density at %v: %v", x, err)
		}
		values.Set(id, xv)
		for _, c := range children {
			cn, err := g.Node(c)
			if err != nil {
				return 0, sampler.NewLogic("finite-enumeration: %v", err)
			}
			cparams, err := sampler.ParamValues(g, values, cn.Parents())
			if err != nil {
				return 0, err
			}
			cbounds, err := sampler.NodeBounds(g, values, cn)
			if err != nil {
				return 0, err
			}
			clp, err := cn.Prior().LogDensity(cn.Value(), cparams, cbounds)
			if err != nil {
				return 0, sampler.NewRuntime("finite-enumeration: likelihood child %d at %v: %v", c, x, err)
			}
			lp += clp
		}
		logw[i] = lp
		if lp > maxLogw {
			maxLogw = lp
		}
	}
	if math.IsInf(maxLogw, -1) {
		return 0, sampler.NewRuntime("finite-enumeration: node %d has zero weight over its entire support", id)
	}

	sumExp := 0.0
	for _, lp := range logw {
		sumExp += math.Exp(lp - maxLogw)
	}
	logSumW := maxLogw + math.Log(sumExp)

	u := src.Float64() * sumExp
	cum := 0.0
	chosen := len(support) - 1
	for i, lp := range logw {
		cum += math.Exp(lp - maxLogw)
		if u < cum {
			chosen = i
			break
		}
	}
	values.Set(id, core.ValArray{support[chosen]})
	return logSumW, nil
}
