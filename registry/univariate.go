// Univariate scalar distributions, each delegating sampling and density to
// a gonum.org/v1/gonum/stat/distuv type the way the pack's own PGM example
// wraps distuv (other_examples/89d7956c_rlouf-gmc__model.go.go embeds
// distuv.Normal/distuv.StudentsT-shaped fields) and the way
// other_examples/b0b68255_stockparfait-stockparfait__stats-distribution.go.go
// wraps distuv.StudentsT behind its own Distribution interface.
package registry

import (
	"math"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/rng"
	"gonum.org/v1/gonum/stat/distuv"
)

func scalar(v core.ValArray) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return v[0]
}

func dimScalar() core.DimArray { d, _ := core.NewDimArray(1); return d }

func applyTruncation(logp float64, x float64, b Bounds) float64 {
	if b.HasLower && x < b.Lower {
		return math.Inf(-1)
	}
	if b.HasUpper && x > b.Upper {
		return math.Inf(-1)
	}
	return logp
}

// dNorm is dnorm(mu, tau): a Normal parameterized by mean and precision,
// the BUGS convention (original_source/base/include/distributions/
// DNormVar.hpp distinguishes this precision form from its variance
// sibling dnormvar below).
type dNorm struct{}

func (dNorm) Name() string { return "dnorm" }
func (dNorm) NParam() int  { return 2 }
func (dNorm) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsScalar()
}
func (dNorm) CheckParamValue(params []core.ValArray) bool {
	return scalar(params[1]) > 0
}
func (dNorm) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (dNorm) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	mu, tau := scalar(params[0]), scalar(params[1])
	sigma := 1 / math.Sqrt(tau)
	d := distuv.Normal{Mu: mu, Sigma: sigma, Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dNorm) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	mu, tau := scalar(params[0]), scalar(params[1])
	sigma := 1 / math.Sqrt(tau)
	d := distuv.Normal{Mu: mu, Sigma: sigma}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dNorm) SupportHint() Support { return SupportUnbounded }
func (dNorm) IsDiscreteValued([]bool) bool { return false }
func (dNorm) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dNormVar is dnormvar(mu, sigma2): variance-parameterized Normal.
type dNormVar struct{}

func (dNormVar) Name() string { return "dnormvar" }
func (dNormVar) NParam() int  { return 2 }
func (dNormVar) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsScalar()
}
func (dNormVar) CheckParamValue(params []core.ValArray) bool { return scalar(params[1]) > 0 }
func (dNormVar) Dim([]core.DimArray) core.DimArray           { return dimScalar() }
func (dNormVar) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	mu, sigma2 := scalar(params[0]), scalar(params[1])
	d := distuv.Normal{Mu: mu, Sigma: math.Sqrt(sigma2), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dNormVar) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	mu, sigma2 := scalar(params[0]), scalar(params[1])
	d := distuv.Normal{Mu: mu, Sigma: math.Sqrt(sigma2)}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dNormVar) SupportHint() Support                         { return SupportUnbounded }
func (dNormVar) IsDiscreteValued([]bool) bool                 { return false }
func (dNormVar) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dBeta is dbeta(alpha, beta).
type dBeta struct{}

func (dBeta) Name() string { return "dbeta" }
func (dBeta) NParam() int  { return 2 }
func (dBeta) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsScalar()
}
func (dBeta) CheckParamValue(params []core.ValArray) bool {
	return scalar(params[0]) > 0 && scalar(params[1]) > 0
}
func (dBeta) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (dBeta) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d := distuv.Beta{Alpha: scalar(params[0]), Beta: scalar(params[1]), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dBeta) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d := distuv.Beta{Alpha: scalar(params[0]), Beta: scalar(params[1])}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dBeta) SupportHint() Support                         { return SupportInterval }
func (dBeta) IsDiscreteValued([]bool) bool                 { return false }
func (dBeta) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dGamma is dgamma(shape, rate).
type dGamma struct{}

func (dGamma) Name() string { return "dgamma" }
func (dGamma) NParam() int  { return 2 }
func (dGamma) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsScalar()
}
func (dGamma) CheckParamValue(params []core.ValArray) bool {
	return scalar(params[0]) > 0 && scalar(params[1]) > 0
}
func (dGamma) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (dGamma) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d := distuv.Gamma{Alpha: scalar(params[0]), Beta: scalar(params[1]), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dGamma) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d := distuv.Gamma{Alpha: scalar(params[0]), Beta: scalar(params[1])}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dGamma) SupportHint() Support                         { return SupportPositive }
func (dGamma) IsDiscreteValued([]bool) bool                 { return false }
func (dGamma) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dPois is dpois(lambda).
type dPois struct{}

func (dPois) Name() string { return "dpois" }
func (dPois) NParam() int  { return 1 }
func (dPois) CheckParamDim(dims []core.DimArray) bool { return len(dims) == 1 && dims[0].IsScalar() }
func (dPois) CheckParamValue(params []core.ValArray) bool { return scalar(params[0]) > 0 }
func (dPois) Dim([]core.DimArray) core.DimArray           { return dimScalar() }
func (dPois) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d := distuv.Poisson{Lambda: scalar(params[0]), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dPois) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d := distuv.Poisson{Lambda: scalar(params[0])}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dPois) SupportHint() Support { return SupportPositive }
func (dPois) IsDiscreteValued([]bool) bool { return true }
func (dPois) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dBin is dbin(p, n): a Binomial with n trials, the BUGS parameter order
// (probability first).
type dBin struct{}

func (dBin) Name() string { return "dbin" }
func (dBin) NParam() int  { return 2 }
func (dBin) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsScalar()
}
func (dBin) CheckParamValue(params []core.ValArray) bool {
	p, n := scalar(params[0]), scalar(params[1])
	return p >= 0 && p <= 1 && n >= 1 && n == math.Trunc(n)
}
func (dBin) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (dBin) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d := distuv.Binomial{N: scalar(params[1]), P: scalar(params[0]), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dBin) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d := distuv.Binomial{N: scalar(params[1]), P: scalar(params[0])}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dBin) SupportHint() Support { return SupportFixed }
func (dBin) IsDiscreteValued([]bool) bool { return true }
func (dBin) FiniteSupport(params []core.ValArray) ([]float64, bool) {
	n := int(scalar(params[1]))
	vals := make([]float64, n+1)
	for i := range vals {
		vals[i] = float64(i)
	}
	return vals, true
}

// dBern is dbern(p), the n=1 special case of dBin.
type dBern struct{}

func (dBern) Name() string { return "dbern" }
func (dBern) NParam() int  { return 1 }
func (dBern) CheckParamDim(dims []core.DimArray) bool { return len(dims) == 1 && dims[0].IsScalar() }
func (dBern) CheckParamValue(params []core.ValArray) bool {
	p := scalar(params[0])
	return p >= 0 && p <= 1
}
func (dBern) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (dBern) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d := distuv.Bernoulli{P: scalar(params[0]), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dBern) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d := distuv.Bernoulli{P: scalar(params[0])}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dBern) SupportHint() Support { return SupportFixed }
func (dBern) IsDiscreteValued([]bool) bool { return true }
func (dBern) FiniteSupport([]core.ValArray) ([]float64, bool) { return []float64{0, 1}, true }

// dUnif is dunif(lo, hi).
type dUnif struct{}

func (dUnif) Name() string { return "dunif" }
func (dUnif) NParam() int  { return 2 }
func (dUnif) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsScalar()
}
func (dUnif) CheckParamValue(params []core.ValArray) bool {
	return scalar(params[0]) < scalar(params[1])
}
func (dUnif) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (dUnif) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d := distuv.Uniform{Min: scalar(params[0]), Max: scalar(params[1]), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dUnif) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d := distuv.Uniform{Min: scalar(params[0]), Max: scalar(params[1])}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dUnif) SupportHint() Support { return SupportInterval }
func (dUnif) IsDiscreteValued([]bool) bool { return false }
func (dUnif) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dExp is dexp(rate).
type dExp struct{}

func (dExp) Name() string { return "dexp" }
func (dExp) NParam() int  { return 1 }
func (dExp) CheckParamDim(dims []core.DimArray) bool { return len(dims) == 1 && dims[0].IsScalar() }
func (dExp) CheckParamValue(params []core.ValArray) bool { return scalar(params[0]) > 0 }
func (dExp) Dim([]core.DimArray) core.DimArray           { return dimScalar() }
func (dExp) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d := distuv.Exponential{Rate: scalar(params[0]), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dExp) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d := distuv.Exponential{Rate: scalar(params[0])}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dExp) SupportHint() Support { return SupportPositive }
func (dExp) IsDiscreteValued([]bool) bool { return false }
func (dExp) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dLnorm is dlnorm(mu, tau): log-scale precision-parameterized lognormal.
type dLnorm struct{}

func (dLnorm) Name() string { return "dlnorm" }
func (dLnorm) NParam() int  { return 2 }
func (dLnorm) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsScalar()
}
func (dLnorm) CheckParamValue(params []core.ValArray) bool { return scalar(params[1]) > 0 }
func (dLnorm) Dim([]core.DimArray) core.DimArray           { return dimScalar() }
func (dLnorm) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	mu, tau := scalar(params[0]), scalar(params[1])
	d := distuv.LogNormal{Mu: mu, Sigma: 1 / math.Sqrt(tau), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dLnorm) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	mu, tau := scalar(params[0]), scalar(params[1])
	d := distuv.LogNormal{Mu: mu, Sigma: 1 / math.Sqrt(tau)}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dLnorm) SupportHint() Support                         { return SupportPositive }
func (dLnorm) IsDiscreteValued([]bool) bool                 { return false }
func (dLnorm) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dChisqr is dchisqr(k).
type dChisqr struct{}

func (dChisqr) Name() string { return "dchisqr" }
func (dChisqr) NParam() int  { return 1 }
func (dChisqr) CheckParamDim(dims []core.DimArray) bool { return len(dims) == 1 && dims[0].IsScalar() }
func (dChisqr) CheckParamValue(params []core.ValArray) bool { return scalar(params[0]) > 0 }
func (dChisqr) Dim([]core.DimArray) core.DimArray           { return dimScalar() }
func (dChisqr) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d := distuv.ChiSquared{K: scalar(params[0]), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dChisqr) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d := distuv.ChiSquared{K: scalar(params[0])}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dChisqr) SupportHint() Support                         { return SupportPositive }
func (dChisqr) IsDiscreteValued([]bool) bool                 { return false }
func (dChisqr) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dT is dt(mu, tau, k): a location-scale Student's t with location mu,
// precision tau and k degrees of freedom.
type dT struct{}

func (dT) Name() string { return "dt" }
func (dT) NParam() int  { return 3 }
func (dT) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 3 && dims[0].IsScalar() && dims[1].IsScalar() && dims[2].IsScalar()
}
func (dT) CheckParamValue(params []core.ValArray) bool {
	return scalar(params[1]) > 0 && scalar(params[2]) > 0
}
func (dT) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (dT) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	mu, tau, k := scalar(params[0]), scalar(params[1]), scalar(params[2])
	d := distuv.StudentsT{Mu: mu, Sigma: 1 / math.Sqrt(tau), Nu: k, Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dT) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	mu, tau, k := scalar(params[0]), scalar(params[1]), scalar(params[2])
	d := distuv.StudentsT{Mu: mu, Sigma: 1 / math.Sqrt(tau), Nu: k}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dT) SupportHint() Support                         { return SupportUnbounded }
func (dT) IsDiscreteValued([]bool) bool                 { return false }
func (dT) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dWeib is dweib(shape, lambda).
type dWeib struct{}

func (dWeib) Name() string { return "dweib" }
func (dWeib) NParam() int  { return 2 }
func (dWeib) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsScalar()
}
func (dWeib) CheckParamValue(params []core.ValArray) bool {
	return scalar(params[0]) > 0 && scalar(params[1]) > 0
}
func (dWeib) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (dWeib) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d := distuv.Weibull{K: scalar(params[0]), Lambda: scalar(params[1]), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dWeib) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d := distuv.Weibull{K: scalar(params[0]), Lambda: scalar(params[1])}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dWeib) SupportHint() Support                         { return SupportPositive }
func (dWeib) IsDiscreteValued([]bool) bool                 { return false }
func (dWeib) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dF is df(d1, d2): an F distribution built from the ratio of two
// chi-squared draws scaled by their degrees of freedom — implemented
// directly rather than via a gonum type, since distuv has no F
// distribution (DESIGN.md: stdlib/gonum-primitive justified fallback).
type dF struct{}

func (dF) Name() string { return "df" }
func (dF) NParam() int  { return 2 }
func (dF) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsScalar()
}
func (dF) CheckParamValue(params []core.ValArray) bool {
	return scalar(params[0]) > 0 && scalar(params[1]) > 0
}
func (dF) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (dF) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d1, d2 := scalar(params[0]), scalar(params[1])
	c1 := distuv.ChiSquared{K: d1, Src: src}
	c2 := distuv.ChiSquared{K: d2, Src: src}
	f := func() float64 {
		return (c1.Rand() / d1) / (c2.Rand() / d2)
	}
	out[0] = sampleTruncated(f, b)
	return nil
}
func (dF) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d1, d2 := scalar(params[0]), scalar(params[1])
	xv := scalar(x)
	if xv <= 0 {
		return math.Inf(-1), nil
	}
	// log f(x; d1,d2) = log[ sqrt((d1*x)^d1 * d2^d2 / (d1*x+d2)^(d1+d2)) / (x*B(d1/2,d2/2)) ]
	lg := func(v float64) float64 { r, _ := math.Lgamma(v); return r }
	logBeta := lg(d1/2) + lg(d2/2) - lg((d1+d2)/2)
	num := 0.5*d1*math.Log(d1) + 0.5*d2*math.Log(d2) + (0.5*d1-1)*math.Log(xv)
	den := logBeta + 0.5*(d1+d2)*math.Log(d2+d1*xv)
	return applyTruncation(num-den, xv, b), nil
}
func (dF) SupportHint() Support                         { return SupportPositive }
func (dF) IsDiscreteValued([]bool) bool                 { return false }
func (dF) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dPar is dpar(alpha, c): a Pareto distribution. Registered with NO
// "dbinom" alias — Design Notes §9 flags the source's DPar alias as
// almost certainly a typo; we do not replicate it.
type dPar struct{}

func (dPar) Name() string { return "dpar" }
func (dPar) NParam() int  { return 2 }
func (dPar) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsScalar()
}
func (dPar) CheckParamValue(params []core.ValArray) bool {
	return scalar(params[0]) > 0 && scalar(params[1]) > 0
}
func (dPar) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (dPar) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	d := distuv.Pareto{Xm: scalar(params[1]), Alpha: scalar(params[0]), Src: src}
	out[0] = sampleTruncated(func() float64 { return d.Rand() }, b)
	return nil
}
func (dPar) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	d := distuv.Pareto{Xm: scalar(params[1]), Alpha: scalar(params[0])}
	return applyTruncation(d.LogProb(scalar(x)), scalar(x), b), nil
}
func (dPar) SupportHint() Support                         { return SupportPositive }
func (dPar) IsDiscreteValued([]bool) bool                 { return false }
func (dPar) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// sampleTruncated performs rejection sampling against draw until the
// result satisfies bounds b. Truncated conjugacy detection is excluded
// per Design Notes §9, but truncation itself remains a general sampling
// feature available outside conjugate contexts.
func sampleTruncated(draw func() float64, b Bounds) float64 {
	if !b.HasLower && !b.HasUpper {
		return draw()
	}
	const maxAttempts = 10000
	for i := 0; i < maxAttempts; i++ {
		x := draw()
		if b.HasLower && x < b.Lower {
			continue
		}
		if b.HasUpper && x > b.Upper {
			continue
		}
		return x
	}
	return math.NaN()
}
