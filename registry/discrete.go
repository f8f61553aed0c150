package registry

import (
	"math"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/rng"
)

// dCat is dcat(pi): a categorical distribution over {1..len(pi)} with
// probabilities pi, implemented directly (not via gonum/distuv, which has
// no Categorical type) by cumulative-sum inversion — the same technique
// the forward-SMC resampling methods use for CDF inversion (smc package),
// so the idiom is carried consistently across the module.
type dCat struct{}

func (dCat) Name() string { return "dcat" }
func (dCat) NParam() int  { return 1 }
func (dCat) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 1 && dims[0].IsVector()
}
func (dCat) CheckParamValue(params []core.ValArray) bool {
	sum := 0.0
	for _, p := range params[0] {
		if p < 0 {
			return false
		}
		sum += p
	}
	return math.Abs(sum-1) < 1e-6
}
func (dCat) Dim([]core.DimArray) core.DimArray { return dimScalar() }

func (dCat) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	cat := sampleCategorical(params[0], src)
	out[0] = float64(cat + 1) // BUGS categories are 1-indexed
	return nil
}

func (dCat) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	k := int(x[0]) - 1
	if k < 0 || k >= len(params[0]) {
		return math.Inf(-1), nil
	}
	p := params[0][k]
	if p <= 0 {
		return math.Inf(-1), nil
	}
	return math.Log(p), nil
}

func (dCat) SupportHint() Support       { return SupportFixed }
func (dCat) IsDiscreteValued([]bool) bool { return true }
func (dCat) FiniteSupport(params []core.ValArray) ([]float64, bool) {
	vals := make([]float64, len(params[0]))
	for i := range vals {
		vals[i] = float64(i + 1)
	}
	return vals, true
}

// sampleCategorical draws a 0-indexed category from weights pi (assumed
// to sum to 1) via inverse-CDF, left-continuous: the first index whose
// cumulative weight exceeds the drawn uniform is selected.
func sampleCategorical(pi core.ValArray, src *rng.Stream) int {
	u := src.Float64()
	cum := 0.0
	for i, p := range pi {
		cum += p
		if u < cum {
			return i
		}
	}
	return len(pi) - 1
}

// dMulti is dmulti(pi, n): a Multinomial distribution over counts in
// {0..n}^k summing to n, sampled as n independent categorical draws
// (original_source/base/include/distributions/DMulti.hpp).
type dMulti struct{}

func (dMulti) Name() string { return "dmulti" }
func (dMulti) NParam() int  { return 2 }
func (dMulti) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsVector() && dims[1].IsScalar()
}
func (dMulti) CheckParamValue(params []core.ValArray) bool {
	return dCat{}.CheckParamValue(params[:1]) && params[1][0] >= 1
}
func (dMulti) Dim(dims []core.DimArray) core.DimArray {
	out, _ := core.NewDimArray(dims[0][0])
	return out
}
func (dMulti) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	n := int(params[1][0])
	for i := range out {
		out[i] = 0
	}
	for i := 0; i < n; i++ {
		cat := sampleCategorical(params[0], src)
		out[cat]++
	}
	return nil
}
func (dMulti) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	n := int(params[1][0])
	total := 0
	logp := lgammaInt(n + 1)
	for i, count := range x {
		c := int(count)
		total += c
		if c < 0 {
			return math.Inf(-1), nil
		}
		if c > 0 {
			if params[0][i] <= 0 {
				return math.Inf(-1), nil
			}
			logp += float64(c)*math.Log(params[0][i]) - lgammaInt(c+1)
		}
	}
	if total != n {
		return math.Inf(-1), nil
	}
	return logp, nil
}
func (dMulti) SupportHint() Support       { return SupportFixed }
func (dMulti) IsDiscreteValued([]bool) bool { return true }
func (dMulti) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

func lgammaInt(n int) float64 {
	v, _ := math.Lgamma(float64(n))
	return v
}

// dInterval is dinterval(t, cutpoints): a deterministic censoring
// indicator used for interval-censored observations. Given the
// continuous parent t and an ascending vector of cutpoints, its value is
// the index of the interval t falls into: 0 if t <= cutpoints[0], i if
// cutpoints[i-1] < t <= cutpoints[i], len(cutpoints) if t exceeds all
// cutpoints (original_source/base/include/distributions/DInterval.hpp).
// It is discrete and has fixed, finite support {0..len(cutpoints)}.
type dInterval struct{}

func (dInterval) Name() string { return "dinterval" }
func (dInterval) NParam() int  { return 2 }
func (dInterval) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar() && dims[1].IsVector()
}
func (dInterval) CheckParamValue(params []core.ValArray) bool {
	cuts := params[1]
	for i := 1; i < len(cuts); i++ {
		if cuts[i] < cuts[i-1] {
			return false
		}
	}
	return true
}
func (dInterval) Dim([]core.DimArray) core.DimArray { return dimScalar() }

func intervalOf(t float64, cuts core.ValArray) int {
	for i, c := range cuts {
		if t <= c {
			return i
		}
	}
	return len(cuts)
}

func (dInterval) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	out[0] = float64(intervalOf(params[0][0], params[1]))
	return nil
}
func (dInterval) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	want := intervalOf(params[0][0], params[1])
	if int(x[0]) == want {
		return 0, nil
	}
	return math.Inf(-1), nil
}
func (dInterval) SupportHint() Support       { return SupportFixed }
func (dInterval) IsDiscreteValued([]bool) bool { return true }
func (dInterval) FiniteSupport(params []core.ValArray) ([]float64, bool) {
	k := len(params[1])
	vals := make([]float64, k+1)
	for i := range vals {
		vals[i] = float64(i)
	}
	return vals, true
}
