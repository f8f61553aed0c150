// Package smc is the forward sequential Monte Carlo sampler spec.md §4.6
// describes: particle storage, per-iteration weight bookkeeping,
// effective-sample-size-triggered resampling, and log normalizing-constant
// accumulation. It is grounded on the three-phase forward-pass structure
// original_source/test/src/HmmNormalLinear.cpp exercises (build, sample
// node-by-node, monitor), generalized here from that test's fixed HMM
// shape into a schedule driven by whatever unobserved stochastic nodes
// the graph actually contains.
package smc

import (
	"math"

	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/rng"
	"github.com/arn-lab/gopgm/sampler"
)

// Policy configures resampling: which method to use, and the effective
// sample size threshold (as a fraction of N) below which a resample
// triggers (spec.md §4.6).
type Policy struct {
	Method       Method
	ESSThreshold float64 // tau in (0, 1]
}

// Snapshot freezes one forward iteration's particle cloud at the node it
// just advanced: every particle's cumulative value map (so a later
// transition-density evaluation can resolve arbitrary upstream
// parameters, not just this node's own value) and its filtering
// log-weight immediately after that iteration's update, before any
// subsequent resample reset (spec.md §4.8: a monitor "snapshots, per
// particle and per time step, the particle values [and] weights" — the
// backward smoother, smoother.Run, consumes exactly this record).
type Snapshot struct {
	NodeID    graph.NodeID
	Values    []*sampler.Values
	LogWeight []float64
}

// Sampler runs one forward SMC pass over a built graph's unobserved
// stochastic nodes, in topological order (spec.md §4.6).
type Sampler struct {
	g        *graph.Graph
	reg      *sampler.Registry
	schedule []graph.NodeID
	samplers []sampler.NodeSampler

	particles []*Particle
	policy    Policy
	src       *rng.Stream

	t            int
	logNormConst float64
	prevLogMean  float64
	lastESS      float64
	lastESSFrac  float64
	resampled    []bool // resampled[t] records whether iteration t resampled
	history      []Snapshot
}

// New builds a Sampler: it computes the schedule (the graph's unobserved
// stochastic nodes in topological rank order) and assigns each one a
// sampler by querying reg once, then allocates n particles, all at
// log-weight 0 with empty value maps (spec.md §4.6: "Initialization...
// the schedule and sampler assignment are computed once by querying
// factories in configured order").
func New(g *graph.Graph, reg *sampler.Registry, n int, seed uint64, policy Policy) (*Sampler, error) {
	if !g.Built() {
		return nil, graph.ErrNotBuilt
	}
	order, err := g.SortedIDs()
	if err != nil {
		return nil, err
	}
	var schedule []graph.NodeID
	for _, id := range order {
		nd, err := g.Node(id)
		if err != nil {
			return nil, err
		}
		if nd.Kind() == graph.KindStochastic && !nd.Observed() {
			schedule = append(schedule, id)
		}
	}
	samplers := make([]sampler.NodeSampler, len(schedule))
	for i, id := range schedule {
		samplers[i] = reg.Assign(g, id)
	}

	particles := make([]*Particle, n)
	for i := range particles {
		particles[i] = newParticle()
	}

	return &Sampler{
		g:           g,
		reg:         reg,
		schedule:    schedule,
		samplers:    samplers,
		particles:   particles,
		policy:      policy,
		src:         rng.New(seed),
		prevLogMean: 0,
	}, nil
}

// N returns the particle count.
func (s *Sampler) N() int { return len(s.particles) }

// NumIterations returns the schedule length (the number of unobserved
// stochastic nodes to sample).
func (s *Sampler) NumIterations() int { return len(s.schedule) }

// Iteration returns the number of iterations already advanced.
func (s *Sampler) Iteration() int { return s.t }

// AtEnd reports whether every scheduled node has been sampled.
func (s *Sampler) AtEnd() bool { return s.t >= len(s.schedule) }

// Particles returns the current particle generation. Callers must not
// retain the slice or its elements across a call to Step, which replaces
// both on resample.
func (s *Sampler) Particles() []*Particle { return s.particles }

// ESS returns the effective sample size computed after the most recent
// Step call.
func (s *Sampler) ESS() float64 { return s.lastESS }

// LogNormConst returns the accumulated log normalizing constant (spec.md
// §4.6, testable property 5).
func (s *Sampler) LogNormConst() float64 { return s.logNormConst }

// History returns the recorded forward-pass snapshots, one per completed
// iteration, for the backward smoother to consume.
func (s *Sampler) History() []Snapshot { return s.history }

// Schedule returns the unobserved stochastic nodes in the fixed order
// they are (or will be) sampled, computed once at New (spec.md §4.6:
// "the schedule... is fixed at BuildSampler time and survives all
// subsequent iterations").
func (s *Sampler) Schedule() []graph.NodeID { return s.schedule }

// SamplerNames returns the name of the sampler assigned to each
// scheduled node, parallel to Schedule() (spec.md §6: dump_node_samplers).
func (s *Sampler) SamplerNames() []string {
	out := make([]string, len(s.samplers))
	for i, sm := range s.samplers {
		out[i] = sm.Name()
	}
	return out
}

// Step advances every particle through the next scheduled node, updates
// ESS and the log normalizing constant, and resamples when
// ESS/N < policy.ESSThreshold (spec.md §4.6). A LogicError from any
// particle's assigned sampler aborts the whole step and is returned
// directly; a RuntimeError marks only that particle infeasible (its
// log-weight becomes -Inf) and the step continues for the rest.
func (s *Sampler) Step() error {
	if s.AtEnd() {
		return nil
	}
	id := s.schedule[s.t]
	nsampler := s.samplers[s.t]

	for _, p := range s.particles {
		logIncr, err := nsampler.Sample(s.g, id, p.Values, s.src)
		if err != nil {
			if sampler.IsLogic(err) {
				return err
			}
			logIncr = math.Inf(-1)
		}
		p.LogWeight += logIncr
	}
	s.t++

	logWeights := make([]float64, len(s.particles))
	for i, p := range s.particles {
		logWeights[i] = p.LogWeight
	}
	logMean := logMeanExp(logWeights)
	s.logNormConst += logMean - s.prevLogMean
	s.prevLogMean = logMean

	snapValues := make([]*sampler.Values, len(s.particles))
	snapWeights := make([]float64, len(s.particles))
	for i, p := range s.particles {
		snapValues[i] = p.Values.Clone()
		snapWeights[i] = p.LogWeight
	}
	s.history = append(s.history, Snapshot{NodeID: id, Values: snapValues, LogWeight: snapWeights})

	ess, err := effectiveSampleSize(logWeights)
	if err != nil {
		return err
	}
	s.lastESS = ess
	n := float64(len(s.particles))
	essFrac := ess / n
	s.lastESSFrac = essFrac

	didResample := false
	if essFrac < s.policy.ESSThreshold {
		s.resample(logWeights, logMean)
		didResample = true
	}
	s.resampled = append(s.resampled, didResample)
	return nil
}

// Run advances Step until the schedule is exhausted or an error occurs.
func (s *Sampler) Run() error {
	for !s.AtEnd() {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// resample replaces the particle generation with N copies drawn according
// to policy.Method, then resets every surviving copy's log-weight to
// logMean so unnormalized sums are preserved (spec.md §4.6, point 3).
func (s *Sampler) resample(logWeights []float64, logMean float64) {
	n := len(s.particles)
	weights := normalizeFromLog(logWeights)
	ancestors := resampleAncestors(s.policy.Method, weights, n, s.src)

	next := make([]*Particle, n)
	for i, a := range ancestors {
		next[i] = s.particles[a].Clone()
		next[i].LogWeight = logMean
	}
	s.particles = next
}

// logMeanExp returns log(mean(exp(x))) computed stably via the
// max-subtraction trick; -Inf terms (infeasible particles) contribute
// zero to the mean as expected.
func logMeanExp(x []float64) float64 {
	max := math.Inf(-1)
	for _, v := range x {
		if v > max {
			max = v
		}
	}
	if math.IsInf(max, -1) {
		return math.Inf(-1)
	}
	sum := 0.0
	for _, v := range x {
		sum += math.Exp(v - max)
	}
	return max + math.Log(sum/float64(len(x)))
}

// normalizeFromLog returns normalized linear weights w̃ᵢ summing to 1 from
// log-weights, computed via the same max-subtraction trick.
func normalizeFromLog(logWeights []float64) []float64 {
	max := math.Inf(-1)
	for _, v := range logWeights {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logWeights))
	if math.IsInf(max, -1) {
		return out
	}
	sum := 0.0
	for i, v := range logWeights {
		e := math.Exp(v - max)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// effectiveSampleSize computes ESS = (Σwᵢ)² / Σwᵢ² on the unnormalized
// weights exp(logWeights), equivalently 1/Σw̃ᵢ² on normalized weights
// (spec.md §4.6, point 1). Returns a RuntimeError if every particle is
// infeasible (all weights zero), since ESS is then undefined.
func effectiveSampleSize(logWeights []float64) (float64, error) {
	w := normalizeFromLog(logWeights)
	sumSq := 0.0
	anyFinite := false
	for _, wi := range w {
		if wi > 0 {
			anyFinite = true
		}
		sumSq += wi * wi
	}
	if !anyFinite {
		return 0, sampler.NewRuntime("smc: every particle is infeasible (zero weight)")
	}
	return 1 / sumSq, nil
}
