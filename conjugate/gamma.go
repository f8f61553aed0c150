// Gamma/Poisson and Gamma-precision/Normal conjugacy, the remaining
// "analogous families" spec.md §4.4 names: sufficient-statistic updates
// to the Gamma prior's (shape, rate) pair.
package conjugate

import (
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/rng"
	"github.com/arn-lab/gopgm/sampler"
	"gonum.org/v1/gonum/stat/distuv"
)

// gammaPoissonFactory recognizes a Gamma-valued target whose Poisson
// likelihood children carry the target scaled by a KNOWN, strictly
// positive exposure coefficient (rate = a*target, b must be zero — a
// Poisson rate cannot absorb a LINEAR offset and stay conjugate).
type gammaPoissonFactory struct{}

func (gammaPoissonFactory) Name() string { return "conjugate-gamma-poisson" }

func (gammaPoissonFactory) Create(g *graph.Graph, id graph.NodeID) (sampler.NodeSampler, bool) {
	n, err := g.Node(id)
	if err != nil || n.Kind() != graph.KindStochastic || n.Observed() || n.IsBounded() {
		return nil, false
	}
	if n.Prior().Name() != "dgamma" {
		return nil, false
	}
	children, err := g.LikelihoodChildren(id)
	if err != nil || len(children) == 0 {
		return nil, false
	}
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil || cn.Prior().Name() != "dpois" {
			return nil, false
		}
		rateSlot, err := ClassifyLinear(g, id, cn.Parents()[0])
		if err != nil {
			return nil, false
		}
		a, b, ok := rateSlot.IsScalarAffine()
		if !ok || a <= 0 || b != 0 {
			return nil, false
		}
	}
	return gammaPoissonSampler{}, true
}

type gammaPoissonSampler struct{}

func (gammaPoissonSampler) Name() string { return "conjugate-gamma-poisson" }

func (gammaPoissonSampler) Sample(g *graph.Graph, id graph.NodeID, values *sampler.Values, src *rng.Stream) (float64, error) {
	n, err := g.Node(id)
	if err != nil {
		return 0, sampler.NewLogic("conjugate-gamma-poisson: %v", err)
	}
	params, err := sampler.ParamValues(g, values, n.Parents())
	if err != nil {
		return 0, err
	}
	shape0, rate0 := params[0][0], params[1][0]

	children, err := g.LikelihoodChildren(id)
	if err != nil {
		return 0, sampler.NewLogic("conjugate-gamma-poisson: %v", err)
	}
	shapeStar, rateStar := shape0, rate0
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil {
			return 0, sampler.NewLogic("conjugate-gamma-poisson: %v", err)
		}
		rateSlot, err := ClassifyLinear(g, id, cn.Parents()[0])
		if err != nil {
			return 0, sampler.NewLogic("conjugate-gamma-poisson: %v", err)
		}
		a, _, _ := rateSlot.IsScalarAffine()
		shapeStar += cn.Value()[0]
		rateStar += a
	}

	d := distuv.Gamma{Alpha: shapeStar, Beta: rateStar, Src: src}
	lambda := d.Rand()
	values.Set(id, core.ValArray{lambda})

	logw, err := n.Prior().LogDensity(core.ValArray{lambda}, params, graph.Bounds{})
	if err != nil {
		return 0, sampler.NewRuntime("conjugate-gamma-poisson: prior density: %v", err)
	}
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil {
			return 0, sampler.NewLogic("conjugate-gamma-poisson: %v", err)
		}
		cparams, err := sampler.ParamValues(g, values, cn.Parents())
		if err != nil {
			return 0, err
		}
		lp, err := cn.Prior().LogDensity(cn.Value(), cparams, graph.Bounds{})
		if err != nil {
			return 0, sampler.NewRuntime("conjugate-gamma-poisson: likelihood child %d: %v", c, err)
		}
		logw += lp
	}
	logw -= distuv.Gamma{Alpha: shapeStar, Beta: rateStar}.LogProb(lambda)
	return logw, nil
}

// gammaNormalPrecisionFactory recognizes a Gamma-valued target entering a
// Normal likelihood child's precision slot (index 1) affinely through a
// KNOWN positive weight with zero offset, the mean slot held KNOWN.
type gammaNormalPrecisionFactory struct{}

func (gammaNormalPrecisionFactory) Name() string { return "conjugate-gamma-normal-precision" }

func (gammaNormalPrecisionFactory) Create(g *graph.Graph, id graph.NodeID) (sampler.NodeSampler, bool) {
	n, err := g.Node(id)
	if err != nil || n.Kind() != graph.KindStochastic || n.Observed() || n.IsBounded() {
		return nil, false
	}
	if n.Prior().Name() != "dgamma" {
		return nil, false
	}
	children, err := g.LikelihoodChildren(id)
	if err != nil || len(children) == 0 {
		return nil, false
	}
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil || cn.Prior().Name() != "dnorm" {
			return nil, false
		}
		meanSlot, err := ClassifyLinear(g, id, cn.Parents()[0])
		if err != nil || meanSlot.Class != Known {
			return nil, false
		}
		precSlot, err := ClassifyLinear(g, id, cn.Parents()[1])
		if err != nil {
			return nil, false
		}
		a, b, ok := precSlot.IsScalarAffine()
		if !ok || a <= 0 || b != 0 {
			return nil, false
		}
	}
	return gammaNormalPrecisionSampler{}, true
}

type gammaNormalPrecisionSampler struct{}

func (gammaNormalPrecisionSampler) Name() string { return "conjugate-gamma-normal-precision" }

func (gammaNormalPrecisionSampler) Sample(g *graph.Graph, id graph.NodeID, values *sampler.Values, src *rng.Stream) (float64, error) {
	n, err := g.Node(id)
	if err != nil {
		return 0, sampler.NewLogic("conjugate-gamma-normal-precision: %v", err)
	}
	params, err := sampler.ParamValues(g, values, n.Parents())
	if err != nil {
		return 0, err
	}
	shape0, rate0 := params[0][0], params[1][0]

	children, err := g.LikelihoodChildren(id)
	if err != nil {
		return 0, sampler.NewLogic("conjugate-gamma-normal-precision: %v", err)
	}
	shapeStar, rateStar := shape0, rate0
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil {
			return 0, sampler.NewLogic("conjugate-gamma-normal-precision: %v", err)
		}
		precSlot, err := ClassifyLinear(g, id, cn.Parents()[1])
		if err != nil {
			return 0, sampler.NewLogic("conjugate-gamma-normal-precision: %v", err)
		}
		w, _, _ := precSlot.IsScalarAffine()
		cparams, err := sampler.ParamValues(g, values, cn.Parents())
		if err != nil {
			return 0, err
		}
		mu := cparams[0][0]
		y := cn.Value()[0]
		shapeStar += 0.5
		rateStar += 0.5 * w * (y - mu) * (y - mu)
	}

	d := distuv.Gamma{Alpha: shapeStar, Beta: rateStar, Src: src}
	tau := d.Rand()
	values.Set(id, core.ValArray{tau})

	logw, err := n.Prior().LogDensity(core.ValArray{tau}, params, graph.Bounds{})
	if err != nil {
		return 0, sampler.NewRuntime("conjugate-gamma-normal-precision: prior density: %v", err)
	}
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil {
			return 0, sampler.NewLogic("conjugate-gamma-normal-precision: %v", err)
		}
		cparams, err := sampler.ParamValues(g, values, cn.Parents())
		if err != nil {
			return 0, err
		}
		lp, err := cn.Prior().LogDensity(cn.Value(), cparams, graph.Bounds{})
		if err != nil {
			return 0, sampler.NewRuntime("conjugate-gamma-normal-precision: likelihood child %d: %v", c, err)
		}
		logw += lp
	}
	logw -= distuv.Gamma{Alpha: shapeStar, Beta: rateStar}.LogProb(tau)
	return logw, nil
}
