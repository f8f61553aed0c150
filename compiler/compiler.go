// Package compiler is the orchestrating façade spec.md §6 names as the
// driver-facing control surface: check_model, compile, build_sampler,
// run_forward, run_backward, get_log_norm_const, extract_stat, extract_pdf,
// change_data, sample_data, remove_data, set/clear monitors, dump_node_*,
// get_log_prior_density, get_fixed_support. Grounded on
// original_source/src/compiler/Console.cpp, whose method list maps
// directly onto Console below; C++ exceptions become classified errors
// (errs.Kind, spec.md §7) and the implicit lifecycle Console.cpp tracks
// through pModel_/SamplerBuilt/AtEnd/lockBackward_ becomes an explicit
// State enum (spec.md §4.8/§4.9).
package compiler

import (
	"fmt"

	"github.com/arn-lab/gopgm/builder"
	"github.com/arn-lab/gopgm/conjugate"
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/errs"
	"github.com/arn-lab/gopgm/finite"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/monitor"
	"github.com/arn-lab/gopgm/rng"
	"github.com/arn-lab/gopgm/sampler"
	"github.com/arn-lab/gopgm/smc"
	"github.com/arn-lab/gopgm/smoother"
)

// State is the sampler lifecycle spec.md §4.8 enumerates:
// Uninit -> Built -> Initialized -> Iterating -> AtEnd ->
// [SmootherInit -> Smoothing -> SmootherAtEnd]. Any data mutation jumps
// back to Built (Console.cpp's ChangeData/SampleData/RemoveData clearing
// the sampler and setting lockBackward_).
type State int

const (
	Uninit State = iota
	Built
	Initialized
	Iterating
	AtEnd
	SmootherInit
	Smoothing
	SmootherAtEnd
)

func (s State) String() string {
	switch s {
	case Uninit:
		return "Uninit"
	case Built:
		return "Built"
	case Initialized:
		return "Initialized"
	case Iterating:
		return "Iterating"
	case AtEnd:
		return "AtEnd"
	case SmootherInit:
		return "SmootherInit"
	case Smoothing:
		return "Smoothing"
	case SmootherAtEnd:
		return "SmootherAtEnd"
	default:
		return "Unknown"
	}
}

// MonitorRequest names the node and sub-range a filter or backward-smooth
// monitor addresses (spec.md §6: "a particle-indexed value tensor... the
// node-array range bounds, the monitor name").
type MonitorRequest struct {
	Node  graph.NodeID
	Range core.IndexRange
}

// StatTag selects which derived statistic ExtractFilterStat/
// ExtractBackwardSmoothStat returns (spec.md §6: extract_stat(name,
// stat_tag)).
type StatTag int

const (
	StatMean StatTag = iota
	StatVariance
	StatSkewness
	StatExKurtosis
)

// Console is the single-model driver facade: it owns the compiled graph,
// the assigned node-sampler registry, the forward/backward passes, and
// the set of registered monitors, and enforces State's transitions
// (spec.md §4.9).
type Console struct {
	model *builder.Model

	nodeReg   *sampler.Registry
	priorOnly bool

	fwd      *smc.Sampler
	smoothed *smoother.Result

	state        State
	lockBackward bool

	filterMonitors   map[string]MonitorRequest
	backwardMonitors map[string]MonitorRequest
}

// New returns a Console with no compiled model (State Uninit).
func New() *Console {
	return &Console{
		state:            Uninit,
		filterMonitors:   make(map[string]MonitorRequest),
		backwardMonitors: make(map[string]MonitorRequest),
	}
}

// State returns the current lifecycle state.
func (c *Console) State() State { return c.state }

// Model returns the compiled model, or nil before Compile.
func (c *Console) Model() *builder.Model { return c.model }

func (c *Console) lifecycleErr(op string, want State) error {
	return errs.Newf(errs.LifecycleViolation, "compiler: %s requires state %s, got %s", op, want, c.state)
}

// CheckModel validates a model under construction before it is handed to
// Compile: spec.md §6's check_model(source) reframed over an
// already-assembled builder.Model, since the BUGS text parser stays out
// of scope (spec.md §1 Non-goals) and its role is played here by
// builder.Model itself. Only structural checks that don't require a full
// Build are performed (cycle detection); dimension/value checks surface
// naturally as errors from the builder's own Stochastic/Logical calls.
func (c *Console) CheckModel(m *builder.Model) error {
	if m.Graph().HasCycle() {
		return errs.New(errs.ModelInvalid, graph.ErrCycle)
	}
	return nil
}

// Compile accepts a fully-declared, not-yet-built model, builds its
// graph (topological sort, cycle/dimension checks, discreteness
// fixpoint), discards any previously compiled model and its sampler/
// monitors, and transitions to Built (Console::Compile, simplified: data
// generation and the separate data-graph compile pass are the external
// parser/Compiler's job in the source, out of scope here since the
// builder DSL already emits a single assembled graph per spec.md §4.10).
func (c *Console) Compile(m *builder.Model) error {
	if m.Graph().Built() {
		return errs.Newf(errs.LifecycleViolation, "compiler: Compile requires an unbuilt model")
	}
	if err := m.Build(); err != nil {
		return errs.New(errs.ModelInvalid, err)
	}
	c.reset()
	c.model = m
	c.state = Built
	return nil
}

// reset clears every piece of state downstream of the compiled graph
// itself (Console::ClearModel's effect on the sampler/monitors, applied
// here both at Compile and after any data mutation).
func (c *Console) reset() {
	c.nodeReg = nil
	c.priorOnly = false
	c.fwd = nil
	c.smoothed = nil
	c.lockBackward = false
	c.filterMonitors = make(map[string]MonitorRequest)
	c.backwardMonitors = make(map[string]MonitorRequest)
}

// BuildSampler assigns a node sampler to every unobserved stochastic node
// (spec.md §6: build_sampler(prior_only)). priorOnly disables the
// conjugate and finite-enumeration factories, forcing every node through
// the universal prior-mutation fallback (Console::BuildSampler: "set all
// NodeSampler factories inactive if prior is true").
func (c *Console) BuildSampler(priorOnly bool) error {
	if c.state != Built {
		return c.lifecycleErr("BuildSampler", Built)
	}
	var factories []sampler.Factory
	if !priorOnly {
		factories = append(factories, conjugate.Factories()...)
		factories = append(factories, finite.Factory{})
	}
	c.nodeReg = sampler.NewRegistry(factories...)
	c.priorOnly = priorOnly
	c.state = Initialized
	return nil
}

// RunForward builds and runs the forward SMC sampler to completion
// (spec.md §4.6; Console::RunForwardSampler runs every iteration within
// one call, there being no suspension points per spec.md §5). On success
// it clears lockBackward_ so RunBackward becomes available again.
func (c *Console) RunForward(n int, seed uint64, policy smc.Policy) error {
	if c.state != Initialized {
		return c.lifecycleErr("RunForward", Initialized)
	}
	fwd, err := smc.New(c.model.Graph(), c.nodeReg, n, seed, policy)
	if err != nil {
		return errs.New(errs.ModelInvalid, err)
	}
	c.fwd = fwd
	c.state = Iterating
	if err := fwd.Run(); err != nil {
		return classifySamplerErr(err)
	}
	c.lockBackward = false
	c.state = AtEnd
	return nil
}

func classifySamplerErr(err error) error {
	if sampler.IsLogic(err) || sampler.IsRuntime(err) {
		return errs.New(errs.NumericFailure, err)
	}
	return errs.New(errs.NumericFailure, err)
}

// ForwardAtEnd reports whether the forward sampler has completed every
// scheduled iteration (Console::ForwardSamplerAtEnd).
func (c *Console) ForwardAtEnd() bool { return c.fwd != nil && c.fwd.AtEnd() }

// LogNormConst returns the accumulated log normalizing constant
// (Console::GetLogNormConst; spec.md §8 property 5).
func (c *Console) LogNormConst() (float64, error) {
	if !c.ForwardAtEnd() {
		return 0, errs.Newf(errs.LifecycleViolation, "compiler: forward sampler has not completed")
	}
	return c.fwd.LogNormConst(), nil
}

// RunBackward runs the full reverse-pass reweighting (spec.md §4.7;
// Console::RunBackwardSmoother runs every backward step within one call).
// It requires a completed, unlocked forward pass: lockBackward_ is set
// whenever a data mutation invalidates the forward cloud the backward
// pass would otherwise reweight (spec.md §8 scenario F).
func (c *Console) RunBackward() error {
	if !c.ForwardAtEnd() {
		return errs.Newf(errs.LifecycleViolation, "compiler: RunBackward requires a completed forward pass")
	}
	if c.lockBackward {
		return errs.Newf(errs.LifecycleViolation, "compiler: backward pass locked by a data change; rerun RunForward first")
	}
	c.state = SmootherInit
	result, err := smoother.Run(c.model.Graph(), c.fwd.History())
	if err != nil {
		return errs.New(errs.NumericFailure, err)
	}
	c.smoothed = &result
	c.state = SmootherAtEnd
	return nil
}

// SetFilterMonitor registers name (looked up in the compiled model) to be
// tracked across every forward iteration from the step it first exists
// onward (spec.md §6: set_filter_monitor(name, range?); pass
// core.FullRange(dim) for the omitted-range case).
func (c *Console) SetFilterMonitor(name string, idxRange core.IndexRange) error {
	id, node, err := c.lookupNode(name)
	if err != nil {
		return err
	}
	if !idxRange.WithinDim(node.Dim()) {
		return errs.New(errs.DataError, monitor.ErrRangeOutOfBounds)
	}
	c.filterMonitors[name] = MonitorRequest{Node: id, Range: idxRange}
	return nil
}

// SetBackwardSmoothMonitor registers name for extraction from the
// backward-smoothed cloud (spec.md §6: set_backward_smooth_monitor).
func (c *Console) SetBackwardSmoothMonitor(name string, idxRange core.IndexRange) error {
	id, node, err := c.lookupNode(name)
	if err != nil {
		return err
	}
	if !idxRange.WithinDim(node.Dim()) {
		return errs.New(errs.DataError, monitor.ErrRangeOutOfBounds)
	}
	c.backwardMonitors[name] = MonitorRequest{Node: id, Range: idxRange}
	return nil
}

// IsFilterMonitored reports whether name has a registered filter monitor.
func (c *Console) IsFilterMonitored(name string) bool {
	_, ok := c.filterMonitors[name]
	return ok
}

// IsBackwardSmoothMonitored reports whether name has a registered
// backward-smooth monitor.
func (c *Console) IsBackwardSmoothMonitored(name string) bool {
	_, ok := c.backwardMonitors[name]
	return ok
}

// ClearFilterMonitors drops every registered filter monitor.
// releaseOnly is accepted for parity with Console::ClearFilterMonitors'
// two-phase release/clear but has no separate effect here: this
// implementation holds no cached extraction state beyond the request
// itself, so "release" and "clear" coincide (documented in DESIGN.md).
func (c *Console) ClearFilterMonitors(releaseOnly bool) {
	c.filterMonitors = make(map[string]MonitorRequest)
}

// ClearBackwardSmoothMonitors drops every registered backward-smooth
// monitor; see ClearFilterMonitors for the releaseOnly note.
func (c *Console) ClearBackwardSmoothMonitors(releaseOnly bool) {
	c.backwardMonitors = make(map[string]MonitorRequest)
}

// FilterOutput builds the monitor.Output for a registered filter monitor
// from the current forward history.
func (c *Console) FilterOutput(name string) (monitor.Output, error) {
	req, ok := c.filterMonitors[name]
	if !ok {
		return monitor.Output{}, errs.Newf(errs.DataError, "compiler: no filter monitor named %q", name)
	}
	if c.fwd == nil {
		return monitor.Output{}, errs.Newf(errs.LifecycleViolation, "compiler: forward sampler has not run")
	}
	out, err := monitor.FromFilter(name, c.model.Graph(), c.fwd.History(), req.Node, req.Range)
	if err != nil {
		return monitor.Output{}, errs.New(errs.DataError, err)
	}
	return out, nil
}

// BackwardOutput builds the monitor.Output for a registered backward-
// smooth monitor from the current smoothed result.
func (c *Console) BackwardOutput(name string) (monitor.Output, error) {
	req, ok := c.backwardMonitors[name]
	if !ok {
		return monitor.Output{}, errs.Newf(errs.DataError, "compiler: no backward-smooth monitor named %q", name)
	}
	if c.smoothed == nil {
		return monitor.Output{}, errs.Newf(errs.LifecycleViolation, "compiler: backward smoother has not run")
	}
	out, err := monitor.FromBackwardSmooth(name, c.model.Graph(), c.fwd.History(), *c.smoothed, req.Node, req.Range)
	if err != nil {
		return monitor.Output{}, errs.New(errs.DataError, err)
	}
	return out, nil
}

// ExtractFilterStat computes tag over every time step of a registered
// filter monitor (spec.md §6: extract_stat(name, stat_tag)). Scoped to
// single-component ranges; a multi-component range is Unsupported (see
// DESIGN.md).
func (c *Console) ExtractFilterStat(name string, tag StatTag) ([]float64, error) {
	out, err := c.FilterOutput(name)
	if err != nil {
		return nil, err
	}
	return extractStat(out, tag)
}

// ExtractBackwardSmoothStat is ExtractFilterStat's backward-smooth
// counterpart.
func (c *Console) ExtractBackwardSmoothStat(name string, tag StatTag) ([]float64, error) {
	out, err := c.BackwardOutput(name)
	if err != nil {
		return nil, err
	}
	return extractStat(out, tag)
}

func extractStat(out monitor.Output, tag StatTag) ([]float64, error) {
	if out.Range.Length() != 1 {
		return nil, errs.Newf(errs.Unsupported, "compiler: extract_stat only supports single-component ranges, got length %d", out.Range.Length())
	}
	result := make([]float64, out.NumSteps())
	for t := 0; t < out.NumSteps(); t++ {
		values := make([]float64, len(out.Values[t]))
		for p, v := range out.Values[t] {
			values[p] = v[0]
		}
		stats := monitor.Accumulate(values, out.Weights[t])
		switch tag {
		case StatMean:
			result[t] = stats.Mean
		case StatVariance:
			result[t] = stats.Variance
		case StatSkewness:
			result[t] = stats.Skewness
		case StatExKurtosis:
			result[t] = stats.ExKurtosis
		default:
			return nil, errs.Newf(errs.Unsupported, "compiler: unknown stat tag %d", tag)
		}
	}
	return result, nil
}

// ExtractFilterPdf returns an equi-width histogram per time step of a
// registered filter monitor (spec.md §6: extract_pdf(name, num_bins,
// cache_fraction)). cache_fraction has no counterpart here: this
// implementation always recomputes from the live history rather than
// maintaining a partial cache (documented in DESIGN.md).
func (c *Console) ExtractFilterPdf(name string, numBins int) ([]monitor.Histogram, error) {
	out, err := c.FilterOutput(name)
	if err != nil {
		return nil, err
	}
	return extractPdf(out, numBins)
}

// ExtractBackwardSmoothPdf is ExtractFilterPdf's backward-smooth
// counterpart.
func (c *Console) ExtractBackwardSmoothPdf(name string, numBins int) ([]monitor.Histogram, error) {
	out, err := c.BackwardOutput(name)
	if err != nil {
		return nil, err
	}
	return extractPdf(out, numBins)
}

func extractPdf(out monitor.Output, numBins int) ([]monitor.Histogram, error) {
	if out.Range.Length() != 1 {
		return nil, errs.Newf(errs.Unsupported, "compiler: extract_pdf only supports single-component ranges, got length %d", out.Range.Length())
	}
	result := make([]monitor.Histogram, out.NumSteps())
	for t := 0; t < out.NumSteps(); t++ {
		values := make([]float64, len(out.Values[t]))
		for p, v := range out.Values[t] {
			values[p] = v[0]
		}
		result[t] = monitor.NewHistogram(values, out.Weights[t], numBins)
	}
	return result, nil
}

// ChangeData overwrites the values of an already-compiled variable within
// idxRange (spec.md §6: change_data(name, range, values, mcmc?); mcmc is
// not applicable here, there being no MCMC backend in this engine). Per
// spec.md §4.8, this clears the built sampler and every monitor, locks
// the backward pass, and returns the model to Built.
func (c *Console) ChangeData(name string, idxRange core.IndexRange, values core.ValArray) error {
	id, _, err := c.lookupNode(name)
	if err != nil {
		return err
	}
	if c.fwd != nil && !c.fwd.AtEnd() {
		return errs.Newf(errs.LifecycleViolation, "compiler: can't change data while the forward sampler is running")
	}
	if err := c.model.Graph().ChangeObservation(id, idxRange, values); err != nil {
		return errs.New(errs.DataError, err)
	}
	c.invalidateAfterDataChange()
	return nil
}

// SampleData redraws variable from its prior (given its already-resolved
// parents) and writes the draw back as its new observation (spec.md §6:
// sample_data(name, range, seed)), scoped to whole-node ranges: a scalar
// distribution's Sample writes its node's full dimension, not an
// arbitrary sub-range (documented in DESIGN.md).
func (c *Console) SampleData(name string, idxRange core.IndexRange, seed uint64) (core.ValArray, error) {
	id, node, err := c.lookupNode(name)
	if err != nil {
		return nil, err
	}
	if node.Kind() != graph.KindStochastic {
		return nil, errs.Newf(errs.DataError, "compiler: %q is not a stochastic node", name)
	}
	if !idxRange.Dim().Equal(node.Dim()) {
		return nil, errs.Newf(errs.Unsupported, "compiler: sample_data only supports whole-node ranges")
	}
	empty := core.NewValueMap[graph.NodeID]()
	params, perr := sampler.ParamValues(c.model.Graph(), empty, node.Parents())
	if perr != nil {
		return nil, errs.New(errs.Unsupported, fmt.Errorf("sample_data: %q has unresolved parents: %w", name, perr))
	}
	bounds, berr := sampler.NodeBounds(c.model.Graph(), empty, node)
	if berr != nil {
		return nil, errs.New(errs.Unsupported, berr)
	}
	out := core.NewValArray(node.Dim())
	src := rng.New(seed)
	if err := node.Prior().Sample(out, params, bounds, src); err != nil {
		return nil, errs.New(errs.NumericFailure, err)
	}
	if err := c.model.Graph().ChangeObservation(id, idxRange, out); err != nil {
		return nil, errs.New(errs.DataError, err)
	}
	c.invalidateAfterDataChange()
	return out, nil
}

// RemoveData clears variable back to latent (spec.md §6: remove_data).
func (c *Console) RemoveData(name string) error {
	id, _, err := c.lookupNode(name)
	if err != nil {
		return err
	}
	if err := c.model.Graph().RemoveObservation(id); err != nil {
		return errs.New(errs.DataError, err)
	}
	c.invalidateAfterDataChange()
	return nil
}

func (c *Console) invalidateAfterDataChange() {
	c.fwd = nil
	c.smoothed = nil
	c.nodeReg = nil
	c.filterMonitors = make(map[string]MonitorRequest)
	c.backwardMonitors = make(map[string]MonitorRequest)
	c.lockBackward = true
	c.state = Built
}

// NodeInfo is one row of the dump_node_* family spec.md §6 lists
// separately (dump_node_ids/names/types/observed/discrete/iterations):
// bundled here since a Go caller can just select the field it wants.
type NodeInfo struct {
	ID        graph.NodeID
	Name      string // "" if unnamed (e.g. a builder.Model.Const)
	Kind      graph.Kind
	Observed  bool
	Discrete  bool
	Iteration int // schedule position, or -1 if never scheduled (observed, or forward pass not run)
}

// DumpNodes returns one NodeInfo per node in topological order
// (spec.md §6's dump_node_ids/names/types/observed/discrete/iterations,
// unified into a single call).
func (c *Console) DumpNodes() ([]NodeInfo, error) {
	if c.model == nil {
		return nil, errs.Newf(errs.LifecycleViolation, "compiler: no compiled model")
	}
	order, err := c.model.Graph().SortedIDs()
	if err != nil {
		return nil, errs.New(errs.LifecycleViolation, err)
	}
	iteration := make(map[graph.NodeID]int)
	if c.fwd != nil {
		for i, id := range c.fwd.Schedule() {
			iteration[id] = i
		}
	}
	out := make([]NodeInfo, len(order))
	for i, id := range order {
		node, err := c.model.Graph().Node(id)
		if err != nil {
			return nil, errs.New(errs.DataError, err)
		}
		name, _ := c.model.Name(id)
		it, scheduled := iteration[id]
		if !scheduled {
			it = -1
		}
		out[i] = NodeInfo{ID: id, Name: name, Kind: node.Kind(), Observed: node.Observed(), Discrete: node.Discrete(), Iteration: it}
	}
	return out, nil
}

// GetLogPriorDensity returns the log density of variable's current value
// under its prior, given its already-resolved parents (spec.md §6:
// get_log_prior_density(var, range)).
func (c *Console) GetLogPriorDensity(name string, idxRange core.IndexRange) (float64, error) {
	id, node, err := c.lookupNode(name)
	if err != nil {
		return 0, err
	}
	if node.Kind() != graph.KindStochastic {
		return 0, errs.Newf(errs.DataError, "compiler: %q is not a stochastic node", name)
	}
	if !node.Observed() {
		return 0, errs.Newf(errs.DataError, "compiler: %q has no current value", name)
	}
	sub, err := selectRange(node.Value(), node.Dim(), idxRange)
	if err != nil {
		return 0, errs.New(errs.DataError, err)
	}
	empty := core.NewValueMap[graph.NodeID]()
	params, perr := sampler.ParamValues(c.model.Graph(), empty, node.Parents())
	if perr != nil {
		return 0, errs.New(errs.Unsupported, fmt.Errorf("get_log_prior_density: %q has unresolved parents: %w", name, perr))
	}
	bounds, berr := sampler.NodeBounds(c.model.Graph(), empty, node)
	if berr != nil {
		return 0, errs.New(errs.Unsupported, berr)
	}
	_ = id
	density, err := node.Prior().LogDensity(sub, params, bounds)
	if err != nil {
		return 0, errs.New(errs.NumericFailure, err)
	}
	return density, nil
}

// GetFixedSupport returns variable's enumerable support bounds
// [min, max] when its prior's SupportHint is registry.SupportFixed
// (spec.md §6: get_fixed_support(var, range)); any other support hint is
// Unsupported here, since this engine has no general interval-bound
// oracle beyond the finite sampler's enumeration (documented in
// DESIGN.md).
func (c *Console) GetFixedSupport(name string) (lower, upper float64, err error) {
	_, node, err := c.lookupNode(name)
	if err != nil {
		return 0, 0, err
	}
	if node.Kind() != graph.KindStochastic {
		return 0, 0, errs.Newf(errs.DataError, "compiler: %q is not a stochastic node", name)
	}
	empty := core.NewValueMap[graph.NodeID]()
	params, perr := sampler.ParamValues(c.model.Graph(), empty, node.Parents())
	if perr != nil {
		return 0, 0, errs.New(errs.Unsupported, fmt.Errorf("get_fixed_support: %q has unresolved parents: %w", name, perr))
	}
	values, ok := node.Prior().FiniteSupport(params)
	if !ok {
		return 0, 0, errs.Newf(errs.Unsupported, "compiler: %q has no enumerable fixed support", name)
	}
	lower, upper = values[0], values[0]
	for _, v := range values {
		if v < lower {
			lower = v
		}
		if v > upper {
			upper = v
		}
	}
	return lower, upper, nil
}

func (c *Console) lookupNode(name string) (graph.NodeID, *graph.Node, error) {
	if c.model == nil {
		return 0, nil, errs.Newf(errs.LifecycleViolation, "compiler: no compiled model")
	}
	id, err := c.model.Lookup(name)
	if err != nil {
		return 0, nil, errs.New(errs.DataError, err)
	}
	node, err := c.model.Graph().Node(id)
	if err != nil {
		return 0, nil, errs.New(errs.DataError, err)
	}
	return id, node, nil
}

// selectRange extracts the sub-vector idxRange names out of v, shaped
// like dim, in column-major order (the same odometer monitor.selectRange
// uses internally; duplicated here since monitor does not export it and
// this is a one-off model-level read, not a per-particle hot path).
func selectRange(v core.ValArray, dim core.DimArray, idxRange core.IndexRange) (core.ValArray, error) {
	out := make(core.ValArray, 0, idxRange.Length())
	idx := idxRange.Lower.Clone()
	for {
		off, err := core.FlatOffset(dim, idx)
		if err != nil {
			return nil, err
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
