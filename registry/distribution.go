// Package registry is the distribution and function catalog external
// collaborator named in spec.md §4.2/§6. It is process-wide immutable
// after LoadBaseModule runs (Design Notes §9: "Treat as a process-wide
// registry with explicit load_base_module(catalog) at startup; pass the
// catalog by reference to the compiler. No hidden global.") — there is no
// package-level singleton here; callers construct a *Registry and pass it
// around explicitly.
package registry

import (
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/rng"
)

// Support classifies the support of a distribution, used by the finite
// sampler and by conjugate factories to reject truncated/unbounded
// mismatches (spec.md §4.2).
type Support int

const (
	// SupportFixed is a distribution with fixed, enumerable support (e.g.
	// a Bernoulli or a categorical over a known number of categories).
	SupportFixed Support = iota
	// SupportPositive is a distribution supported on (0, +inf).
	SupportPositive
	// SupportUnbounded is a distribution supported on all of R (or R^n).
	SupportUnbounded
	// SupportInterval is a distribution supported on a closed interval
	// whose bounds are themselves parameters (e.g. a Uniform).
	SupportInterval
)

// Bounds carries optional scalar truncation bounds T(lo, hi) (spec.md §6).
type Bounds struct {
	HasLower bool
	Lower    float64
	HasUpper bool
	Upper    float64
}

// Unbounded is the zero-value Bounds: no truncation.
var Unbounded = Bounds{}

// Distribution is the per-distribution contract spec.md §4.2/§6 requires
// of an external catalog entry: arity, parameter checks, output shape,
// sampling and density primitives, support hints, and a discreteness
// oracle.
type Distribution interface {
	// Name is the registered catalog name, e.g. "dnorm".
	Name() string

	// NParam returns the distribution's parameter arity.
	NParam() int

	// CheckParamDim reports whether the given parameter dimensions are
	// admissible for this distribution.
	CheckParamDim(dims []core.DimArray) bool

	// CheckParamValue reports whether the given parameter values are
	// admissible (e.g. a Beta's alpha, beta must both be positive).
	CheckParamValue(params []core.ValArray) bool

	// Dim returns the output dimension given the parameter dimensions.
	Dim(dims []core.DimArray) core.DimArray

	// Sample draws a value into out given params, optional truncation
	// bounds, and the sampler's RNG stream.
	Sample(out core.ValArray, params []core.ValArray, bounds Bounds, src *rng.Stream) error

	// LogDensity returns the log density of x given params and bounds.
	// Returns math.Inf(-1) when x is out of support, NaN only on genuine
	// numeric failure.
	LogDensity(x core.ValArray, params []core.ValArray, bounds Bounds) (float64, error)

	// SupportHint classifies the distribution's support.
	SupportHint() Support

	// IsDiscreteValued reports whether the distribution only ever
	// produces integral outcomes given that its parameters have the
	// listed discreteness (spec.md §3's discreteness fixpoint rule (b)).
	IsDiscreteValued(paramDiscrete []bool) bool

	// FiniteSupport returns the enumerable support {x_1...x_k} when
	// SupportHint()==SupportFixed and the parameters fix a bounded set
	// (used by the finite sampler, spec.md §4.5). ok is false when the
	// support cannot be enumerated from these params.
	FiniteSupport(params []core.ValArray) (values []float64, ok bool)
}

// Function is the per-function contract for deterministic (logical) nodes.
type Function interface {
	// Name is the registered catalog name, e.g. "add".
	Name() string

	// Arity returns the number of parents this function expects, or -1
	// for variadic functions.
	Arity() int

	// CheckParamDim reports whether the given parameter dims are
	// admissible.
	CheckParamDim(dims []core.DimArray) bool

	// Dim returns the output dimension given parameter dims.
	Dim(dims []core.DimArray) core.DimArray

	// Eval evaluates the function into out given parameter values.
	Eval(out core.ValArray, params []core.ValArray) error

	// IsDiscreteValued reports whether the function preserves
	// discreteness given the listed parent discreteness (spec.md §3's
	// discreteness rule (c)).
	IsDiscreteValued(paramDiscrete []bool) bool
}
