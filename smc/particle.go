package smc

import (
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/sampler"
)

// Particle owns one particle's node-value map and scalar log-weight
// (spec.md §3: "A particle owns: (a) its node-value map for the
// unobserved-stochastic subset sampled so far... (c) a scalar
// log-weight"). The sampled-flags bitset spec.md §3 also names lives
// inside Values itself (core.ValueMap tracks IsSampled per id), so
// Particle does not carry a separate bitset field.
type Particle struct {
	Values    *sampler.Values
	LogWeight float64
}

// newParticle returns a fresh particle with an empty value map and
// log-weight 0, the forward sampler's initialization state (spec.md
// §4.6: "all particles start with log-weight 0 and empty value maps").
func newParticle() *Particle {
	return &Particle{Values: core.NewValueMap[graph.NodeID](), LogWeight: 0}
}

// Clone returns an independent copy of p, used when resampling
// duplicates a surviving particle's value map wholesale (spec.md §3:
// "overwritten wholesale on each resample").
func (p *Particle) Clone() *Particle {
	return &Particle{Values: p.Values.Clone(), LogWeight: p.LogWeight}
}
