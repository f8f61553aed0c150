// Beta/Binomial and Beta/Bernoulli conjugacy, the "analogous families
// implemented identically in structure" spec.md §4.4 names alongside the
// Normal/Normal family: sufficient-count updates to the Beta prior's
// (alpha, beta) pair.
package conjugate

import (
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/rng"
	"github.com/arn-lab/gopgm/sampler"
	"gonum.org/v1/gonum/stat/distuv"
)

func trials(name string) (isBinomialFamily bool) {
	return name == "dbin" || name == "dbern"
}

// betaBinomialFactory recognizes a Beta-valued target whose likelihood
// children are Binomial or Bernoulli with the target entering their
// success-probability slot exactly (identity, not merely affine — Beta
// conjugacy requires the raw probability).
type betaBinomialFactory struct{}

func (betaBinomialFactory) Name() string { return "conjugate-beta-binomial" }

func (betaBinomialFactory) Create(g *graph.Graph, id graph.NodeID) (sampler.NodeSampler, bool) {
	n, err := g.Node(id)
	if err != nil || n.Kind() != graph.KindStochastic || n.Observed() || n.IsBounded() {
		return nil, false
	}
	if n.Prior().Name() != "dbeta" {
		return nil, false
	}
	children, err := g.LikelihoodChildren(id)
	if err != nil || len(children) == 0 {
		return nil, false
	}
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil || !trials(cn.Prior().Name()) {
			return nil, false
		}
		pSlot, err := ClassifyLinear(g, id, cn.Parents()[0])
		if err != nil {
			return nil, false
		}
		a, b, ok := pSlot.IsScalarAffine()
		if !ok || a != 1 || b != 0 {
			return nil, false
		}
		if cn.Prior().Name() == "dbin" {
			if nSlot, err := ClassifyLinear(g, id, cn.Parents()[1]); err != nil || nSlot.Class != Known {
				return nil, false
			}
		}
	}
	return betaBinomialSampler{}, true
}

type betaBinomialSampler struct{}

func (betaBinomialSampler) Name() string { return "conjugate-beta-binomial" }

func (betaBinomialSampler) Sample(g *graph.Graph, id graph.NodeID, values *sampler.Values, src *rng.Stream) (float64, error) {
	n, err := g.Node(id)
	if err != nil {
		return 0, sampler.NewLogic("conjugate-beta-binomial: %v", err)
	}
	params, err := sampler.ParamValues(g, values, n.Parents())
	if err != nil {
		return 0, err
	}
	a0, b0 := params[0][0], params[1][0]

	children, err := g.LikelihoodChildren(id)
	if err != nil {
		return 0, sampler.NewLogic("conjugate-beta-binomial: %v", err)
	}
	aStar, bStar := a0, b0
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil {
			return 0, sampler.NewLogic("conjugate-beta-binomial: %v", err)
		}
		y := cn.Value()[0]
		trialsN := 1.0
		if cn.Prior().Name() == "dbin" {
			cparams, err := sampler.ParamValues(g, values, cn.Parents())
			if err != nil {
				return 0, err
			}
			trialsN = cparams[1][0]
		}
		aStar += y
		bStar += trialsN - y
	}

	d := distuv.Beta{Alpha: aStar, Beta: bStar, Src: src}
	p := d.Rand()
	values.Set(id, core.ValArray{p})

	lpPrior, err := n.Prior().LogDensity(core.ValArray{p}, params, graph.Bounds{})
	if err != nil {
		return 0, sampler.NewRuntime("conjugate-beta-binomial: prior density: %v", err)
	}
	logw := lpPrior
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil {
			return 0, sampler.NewLogic("conjugate-beta-binomial: %v", err)
		}
		cparams, err := sampler.ParamValues(g, values, cn.Parents())
		if err != nil {
			return 0, err
		}
		lp, err := cn.Prior().LogDensity(cn.Value(), cparams, graph.Bounds{})
		if err != nil {
			return 0, sampler.NewRuntime("conjugate-beta-binomial: likelihood child %d: %v", c, err)
		}
		logw += lp
	}
	logw -= distuv.Beta{Alpha: aStar, Beta: bStar}.LogProb(p)
	return logw, nil
}
