// Multivariate Normal conjugacy with a linear mean, grounded on
// original_source/BiipsBase/src/samplers/ConjugateMNormalLinear.cpp's
// gain/posterior-covariance computation. Per the Redesign Flags, this
// sampler preserves that source's block-diagonal-independence
// simplification — each likelihood child updates the running posterior
// in turn rather than solving one jointly-correlated observation block —
// and uses the numerically safer Joseph-form covariance update
// (I-KA)Σ(I-KA)ᵀ + KΛ_y⁻¹Kᵀ in place of the source's (I-KA)Σ.
package conjugate

import (
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/rng"
	"github.com/arn-lab/gopgm/sampler"
	"gonum.org/v1/gonum/mat"
)

func mnormFamily(name string) bool { return name == "dmnorm" || name == "dmnormvar" }

// denseFromColumnMajor converts a column-major ValArray (the LinearForm
// convention) into a row-major gonum Dense matrix.
func denseFromColumnMajor(rows, cols int, colMajor core.ValArray) *mat.Dense {
	d := mat.NewDense(rows, cols, nil)
	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			d.Set(row, col, colMajor[col*rows+row])
		}
	}
	return d
}

// covarianceOf returns node id's covariance matrix, inverting its
// precision parameter via Cholesky when its prior is dmnorm.
func covarianceOf(g *graph.Graph, values *sampler.Values, id graph.NodeID) (*mat.SymDense, core.ValArray, error) {
	n, err := g.Node(id)
	if err != nil {
		return nil, nil, err
	}
	params, err := sampler.ParamValues(g, values, n.Parents())
	if err != nil {
		return nil, nil, err
	}
	dim := len(params[0])
	sym := mat.NewSymDense(dim, append(core.ValArray(nil), params[1]...))
	if n.Prior().Name() == "dmnormvar" {
		return sym, params[0], nil
	}
	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return nil, nil, sampler.NewLogic("not positive-semidefinite")
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, nil, sampler.NewLogic("not positive-semidefinite")
	}
	return &cov, params[0], nil
}

// mnormalLinearFactory recognizes a multivariate-Normal target all of
// whose likelihood children are multivariate-Normal with the target
// entering their mean slot affinely and a KNOWN covariance/precision.
type mnormalLinearFactory struct{}

func (mnormalLinearFactory) Name() string { return "conjugate-mnormal-linear" }

func (mnormalLinearFactory) Create(g *graph.Graph, id graph.NodeID) (sampler.NodeSampler, bool) {
	n, err := g.Node(id)
	if err != nil || n.Kind() != graph.KindStochastic || n.Observed() || n.IsBounded() {
		return nil, false
	}
	if !mnormFamily(n.Prior().Name()) {
		return nil, false
	}
	children, err := g.LikelihoodChildren(id)
	if err != nil || len(children) == 0 {
		return nil, false
	}
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil || !mnormFamily(cn.Prior().Name()) {
			return nil, false
		}
		meanSlot, err := ClassifyLinear(g, id, cn.Parents()[0])
		if err != nil || meanSlot.Class != Linear || meanSlot.InDim != n.Dim().Length() {
			return nil, false
		}
		precSlot, err := ClassifyLinear(g, id, cn.Parents()[1])
		if err != nil || precSlot.Class != Known {
			return nil, false
		}
	}
	return mnormalLinearSampler{}, true
}

type mnormalLinearSampler struct{}

func (mnormalLinearSampler) Name() string { return "conjugate-mnormal-linear" }

func (mnormalLinearSampler) Sample(g *graph.Graph, id graph.NodeID, values *sampler.Values, src *rng.Stream) (float64, error) {
	n, err := g.Node(id)
	if err != nil {
		return 0, sampler.NewLogic("mnormal-linear: %v", err)
	}
	dim := n.Dim().Length()
	prior, err := sampler.ParamValues(g, values, n.Parents())
	if err != nil {
		return 0, err
	}
	cov, mu, err := covarianceOf(g, values, id)
	if err != nil {
		return 0, err
	}
	muVec := mat.NewVecDense(dim, append([]float64(nil), mu...))
	sigma := mat.NewSymDense(dim, nil)
	sigma.CopySym(cov)

	children, err := g.LikelihoodChildren(id)
	if err != nil {
		return 0, sampler.NewLogic("mnormal-linear: %v", err)
	}

	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil {
			return 0, sampler.NewLogic("mnormal-linear: %v", err)
		}
		meanSlot, err := ClassifyLinear(g, id, cn.Parents()[0])
		if err != nil {
			return 0, sampler.NewLogic("mnormal-linear: %v", err)
		}
		k := meanSlot.OutDim
		A := denseFromColumnMajor(k, dim, meanSlot.A)
		b := mat.NewVecDense(k, append([]float64(nil), meanSlot.B...))

		obsCov, _, err := covarianceOf(g, values, c)
		if err != nil {
			return 0, err
		}
		y := mat.NewVecDense(k, append([]float64(nil), cn.Value()...))

		var sigmaAt mat.Dense
		sigmaAt.Mul(sigma, A.T())
		var innov mat.Dense
		innov.Mul(A, &sigmaAt)
		innov.Add(&innov, obsCov)
		var innovSym mat.SymDense
		symmetrize(&innovSym, &innov, k)

		var innovChol mat.Cholesky
		if !innovChol.Factorize(&innovSym) {
			return 0, sampler.NewLogic("not positive-semidefinite")
		}
		// Kalman gain K = Σ Aᵀ S⁻¹.
		var sInv mat.SymDense
		if err := innovChol.InverseTo(&sInv); err != nil {
			return 0, sampler.NewLogic("not positive-semidefinite")
		}
		var KGain mat.Dense
		KGain.Mul(&sigmaAt, &sInv)

		var pred mat.VecDense
		pred.MulVec(A, muVec)
		pred.AddVec(&pred, b)
		var innovation mat.VecDense
		innovation.SubVec(y, &pred)
		var delta mat.VecDense
		delta.MulVec(&KGain, &innovation)
		muVec.AddVec(muVec, &delta)

		var KA mat.Dense
		KA.Mul(&KGain, A)
		ident := mat.NewDense(dim, dim, nil)
		for i := 0; i < dim; i++ {
			ident.Set(i, i, 1)
		}
		var imKA mat.Dense
		imKA.Sub(ident, &KA)
		var term1 mat.Dense
		term1.Mul(&imKA, sigma)
		var term1b mat.Dense
		term1b.Mul(&term1, imKA.T())
		var term2 mat.Dense
		term2.Mul(&KGain, obsCov)
		var term2b mat.Dense
		term2b.Mul(&term2, KGain.T())
		var newSigma mat.Dense
		newSigma.Add(&term1b, &term2b)
		symmetrize(sigma, &newSigma, dim)
	}

	var chol mat.Cholesky
	if !chol.Factorize(sigma) {
		return 0, sampler.NewLogic("not positive-semidefinite")
	}
	z := mat.NewVecDense(dim, nil)
	for i := 0; i < dim; i++ {
		z.SetVec(i, src.NormFloat64())
	}
	var lower mat.TriDense
	chol.LTo(&lower)
	var lz mat.VecDense
	lz.MulVec(&lower, z)
	x := make(core.ValArray, dim)
	for i := 0; i < dim; i++ {
		x[i] = muVec.AtVec(i) + lz.AtVec(i)
	}
	values.Set(id, x)

	logw, err := n.Prior().LogDensity(x, prior, graph.Bounds{})
	if err != nil {
		return 0, sampler.NewRuntime("mnormal-linear: prior density: %v", err)
	}
	for _, c := range children {
		cn, err := g.Node(c)
		if err != nil {
			return 0, sampler.NewLogic("mnormal-linear: %v", err)
		}
		cparams, err := sampler.ParamValues(g, values, cn.Parents())
		if err != nil {
			return 0, err
		}
		lp, err := cn.Prior().LogDensity(cn.Value(), cparams, graph.Bounds{})
		if err != nil {
			return 0, sampler.NewRuntime("mnormal-linear: likelihood child %d: %v", c, err)
		}
		logw += lp
	}
	postDensity, err := distributionLogDensity(x, muVec, sigma)
	if err != nil {
		return 0, sampler.NewRuntime("mnormal-linear: posterior density: %v", err)
	}
	logw -= postDensity
	return logw, nil
}

// symmetrize copies src's average with its transpose into dst, guarding
// against floating-point asymmetry introduced by the matrix chain above.
func symmetrize(dst *mat.SymDense, src mat.Matrix, n int) {
	*dst = *mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := (src.At(i, j) + src.At(j, i)) / 2
			dst.SetSym(i, j, v)
		}
	}
}

// distributionLogDensity evaluates the log density of a multivariate
// Normal with mean mu and covariance sigma at x, used for the posterior
// term of the incremental weight since the posterior is synthesized
// in-line rather than registered as a graph node.
func distributionLogDensity(x core.ValArray, mu *mat.VecDense, sigma *mat.SymDense) (float64, error) {
	n := len(x)
	var chol mat.Cholesky
	if !chol.Factorize(sigma) {
		return 0, sampler.NewLogic("not positive-semidefinite")
	}
	diff := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		diff.SetVec(i, x[i]-mu.AtVec(i))
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, diff); err != nil {
		return 0, err
	}
	quad := mat.Dot(diff, &sol)
	logDet := chol.LogDet()
	const log2pi = 1.8378770664093453
	return -0.5*quad - 0.5*logDet - float64(n)/2*log2pi, nil
}
