package sampler

import (
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/rng"
)

// priorMutationFactory always succeeds; it is the universal fallback
// every Registry appends after the caller's conjugate/finite factories
// (spec.md §4.3, Glossary: "Prior mutation").
type priorMutationFactory struct{}

func (priorMutationFactory) Name() string { return "prior-mutation" }

func (priorMutationFactory) Create(g *graph.Graph, id graph.NodeID) (NodeSampler, bool) {
	return priorMutationSampler{}, true
}

type priorMutationSampler struct{}

func (priorMutationSampler) Name() string { return "prior-mutation" }

// Sample draws x from the prior and reweights by the log-likelihood of
// id's observed likelihood children given x (spec.md §4.3's universal
// fallback rule).
func (priorMutationSampler) Sample(g *graph.Graph, id graph.NodeID, values *Values, src *rng.Stream) (float64, error) {
	n, err := g.Node(id)
	if err != nil {
		return 0, NewLogic("prior-mutation: %v", err)
	}
	params, err := ParamValues(g, values, n.Parents())
	if err != nil {
		return 0, err
	}
	bounds, err := NodeBounds(g, values, n)
	if err != nil {
		return 0, err
	}
	out := core.NewValArray(n.Dim())
	if err := n.Prior().Sample(out, params, bounds, src); err != nil {
		return 0, NewRuntime("prior-mutation: sample node %d: %v", id, err)
	}
	values.Set(id, out)

	children, err := g.LikelihoodChildren(id)
	if err != nil {
		return 0, NewLogic("prior-mutation: %v", err)
	}
	logw := 0.0
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil {
			return 0, NewLogic("prior-mutation: %v", err)
		}
		cparams, err := ParamValues(g, values, cn.Parents())
		if err != nil {
			return 0, err
		}
		cbounds, err := NodeBounds(g, values, cn)
		if err != nil {
			return 0, err
		}
		lp, err := cn.Prior().LogDensity(cn.Value(), cparams, cbounds)
		if err != nil {
			return 0, NewRuntime("prior-mutation: likelihood child %d: %v", c, err)
		}
		logw += lp
	}
	return logw, nil
}
