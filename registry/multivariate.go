package registry

import (
	"math"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/rng"
	"gonum.org/v1/gonum/mat"
)

// vecDim returns the dimension of a length-n vector parameter.
func vecDim(d core.DimArray) (int, bool) {
	if d.IsVector() {
		return d[0], true
	}
	return 0, false
}

// dMNormBase factors the shared machinery of dmnorm (precision-
// parameterized) and dmnormvar (covariance-parameterized): both need a
// Cholesky factorization of a symmetric matrix to sample and to evaluate
// the log density, mirroring the gain/posterior computation the
// conjugate package performs for ConjugateMNormalLinear
// (original_source/BiipsBase/src/samplers/ConjugateMNormalLinear.cpp).
type dMNormBase struct {
	name          string
	secondIsPrec bool // true: second param is precision Λ; false: covariance Σ
}

func (d dMNormBase) Name() string { return d.name }
func (d dMNormBase) NParam() int  { return 2 }

func (d dMNormBase) CheckParamDim(dims []core.DimArray) bool {
	if len(dims) != 2 {
		return false
	}
	n, ok := vecDim(dims[0])
	if !ok {
		return false
	}
	return dims[1].IsMatrix() && dims[1][0] == n && dims[1][1] == n
}

func (d dMNormBase) CheckParamValue(params []core.ValArray) bool {
	n := len(params[0])
	sym := mat.NewSymDense(n, params[1])
	var chol mat.Cholesky
	return chol.Factorize(sym)
}

func (d dMNormBase) Dim(dims []core.DimArray) core.DimArray {
	n, _ := vecDim(dims[0])
	out, _ := core.NewDimArray(n)
	return out
}

// covFromParam returns the covariance matrix, inverting the precision
// matrix via Cholesky when secondIsPrec is set.
func (d dMNormBase) covFromParam(n int, second core.ValArray) (*mat.SymDense, error) {
	sym := mat.NewSymDense(n, second)
	if !d.secondIsPrec {
		return sym, nil
	}
	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return nil, errNotPSD
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, errNotPSD
	}
	return &cov, nil
}

func (d dMNormBase) Sample(out core.ValArray, params []core.ValArray, b Bounds, src *rng.Stream) error {
	n := len(params[0])
	cov, err := d.covFromParam(n, params[1])
	if err != nil {
		return err
	}
	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		return errNotPSD
	}
	z := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		z.SetVec(i, src.NormFloat64())
	}
	var lz mat.VecDense
	var lower mat.TriDense
	chol.LTo(&lower)
	lz.MulVec(&lower, z)
	for i := 0; i < n; i++ {
		out[i] = params[0][i] + lz.AtVec(i)
	}
	return nil
}

func (d dMNormBase) LogDensity(x core.ValArray, params []core.ValArray, b Bounds) (float64, error) {
	n := len(params[0])
	cov, err := d.covFromParam(n, params[1])
	if err != nil {
		return math.NaN(), err
	}
	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		return math.NaN(), errNotPSD
	}
	diff := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		diff.SetVec(i, x[i]-params[0][i])
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, diff); err != nil {
		return math.NaN(), errNotPSD
	}
	quad := mat.Dot(diff, &sol)
	logDet := chol.LogDet()
	logp := -0.5*quad - 0.5*logDet - float64(n)/2*math.Log(2*math.Pi)
	return logp, nil
}

func (d dMNormBase) SupportHint() Support                           { return SupportUnbounded }
func (d dMNormBase) IsDiscreteValued([]bool) bool                   { return false }
func (d dMNormBase) FiniteSupport([]core.ValArray) ([]float64, bool) { return nil, false }

// dmnorm is dmnorm(mu, precision): a multivariate Normal parameterized by
// mean vector and precision matrix.
func newDMNorm() Distribution { return dMNormBase{name: "dmnorm", secondIsPrec: true} }

// dmnormvar is dmnormvar(mu, covariance): a multivariate Normal
// parameterized by mean vector and covariance matrix.
func newDMNormVar() Distribution { return dMNormBase{name: "dmnormvar", secondIsPrec: false} }
