// Scalar Normal/Normal-known-precision conjugacy (spec.md §4.4's
// "Update rule (scalar Normal with known precision)"), grounded on
// original_source/BiipsBase/src/samplers/ConjugateNormal.cpp /
// ConjugateNormalVar.cpp's posterior-precision/mean formulas.
package conjugate

import (
	"math"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/rng"
	"github.com/arn-lab/gopgm/sampler"
	"gonum.org/v1/gonum/stat/distuv"
)

// normalFamily reports whether name is one of the two scalar Normal
// parameterizations this conjugate family recognizes.
func normalFamily(name string) bool {
	return name == "dnorm" || name == "dnormvar"
}

// meanPrecision resolves a scalar Normal node's (mean, precision),
// converting a dnormvar's variance parameter to precision so both
// parameterizations feed the same update formula.
func meanPrecision(g *graph.Graph, values *sampler.Values, id graph.NodeID) (mu, tau float64, err error) {
	n, err := g.Node(id)
	if err != nil {
		return 0, 0, err
	}
	params, err := sampler.ParamValues(g, values, n.Parents())
	if err != nil {
		return 0, 0, err
	}
	mu = params[0][0]
	second := params[1][0]
	if n.Prior().Name() == "dnormvar" {
		tau = 1 / second
	} else {
		tau = second
	}
	return mu, tau, nil
}

func logNormalPrecision(x, mu, tau float64) float64 {
	return 0.5*math.Log(tau/(2*math.Pi)) - 0.5*tau*(x-mu)*(x-mu)
}

// normalNormalFactory recognizes a Normal-valued target all of whose
// likelihood children are Normal-valued with the target entering their
// mean slot affinely.
type normalNormalFactory struct{}

func (normalNormalFactory) Name() string { return "conjugate-normal-normal" }

func (f normalNormalFactory) Create(g *graph.Graph, id graph.NodeID) (sampler.NodeSampler, bool) {
	n, err := g.Node(id)
	if err != nil || n.Kind() != graph.KindStochastic || n.Observed() || n.IsBounded() {
		return nil, false
	}
	if !normalFamily(n.Prior().Name()) {
		return nil, false
	}
	children, err := g.LikelihoodChildren(id)
	if err != nil || len(children) == 0 {
		return nil, false
	}
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil || !normalFamily(cn.Prior().Name()) {
			return nil, false
		}
		meanSlot, err := ClassifyLinear(g, id, cn.Parents()[0])
		if err != nil {
			return nil, false
		}
		if _, _, ok := meanSlot.IsScalarAffine(); !ok && meanSlot.Class != Known {
			return nil, false
		}
		precSlot, err := ClassifyLinear(g, id, cn.Parents()[1])
		if err != nil || precSlot.Class != Known {
			return nil, false
		}
	}
	return normalNormalSampler{}, true
}

type normalNormalSampler struct{}

func (normalNormalSampler) Name() string { return "conjugate-normal-normal" }

func (normalNormalSampler) Sample(g *graph.Graph, id graph.NodeID, values *sampler.Values, src *rng.Stream) (float64, error) {
	mu0, tau0, err := meanPrecision(g, values, id)
	if err != nil {
		return 0, sampler.NewLogic("conjugate-normal-normal: %v", err)
	}

	children, err := g.LikelihoodChildren(id)
	if err != nil {
		return 0, sampler.NewLogic("conjugate-normal-normal: %v", err)
	}

	tauStar := tau0
	num := tau0 * mu0
	type obs struct{ a, b, tau, y float64 }
	obsList := make([]obs, 0, len(children))
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil {
			return 0, sampler.NewLogic("conjugate-normal-normal: %v", err)
		}
		meanSlot, err := ClassifyLinear(g, id, cn.Parents()[0])
		if err != nil {
			return 0, sampler.NewLogic("conjugate-normal-normal: %v", err)
		}
		var a, b float64
		if meanSlot.Class == Known {
			a, b = 0, meanSlot.Value[0]
		} else {
			a, b, _ = meanSlot.IsScalarAffine()
		}
		_, tauI, err := meanPrecision(g, values, c)
		if err != nil {
			return 0, sampler.NewLogic("conjugate-normal-normal: %v", err)
		}
		y := cn.Value()[0]
		tauStar += a * a * tauI
		num += a * tauI * (y - b)
		obsList = append(obsList, obs{a, b, tauI, y})
	}
	muStar := num / tauStar

	d := distuv.Normal{Mu: muStar, Sigma: 1 / math.Sqrt(tauStar), Src: src}
	x := d.Rand()
	values.Set(id, core.ValArray{x})

	logw := logNormalPrecision(x, mu0, tau0)
	for _, o := range obsList {
		logw += logNormalPrecision(o.y, o.a*x+o.b, o.tau)
	}
	logw -= logNormalPrecision(x, muStar, tauStar)
	return logw, nil
}
