// Deterministic (logical-node) functions. The affine subset registered
// here {identity, add, subtract, negate, scalarMultiply, matMultiply,
// transpose, index} is exactly the closed set the conjugate package's
// linear-transform classifier recognizes (Design Notes §9 / spec.md §4.4),
// grounded on original_source/base/include/samplers/
// GetLinearTransformVisitor.hpp. sum/prod/logistic/logit supplement the
// set with the deterministic gates the pack's PGM example wires up
// (other_examples/89d7956c_rlouf-gmc__model.go.go: SumGate, ProdGate,
// LogisticGate, LogitGate), and Prod mirrors
// original_source/include/base/functions/Prod.hpp.
package registry

import (
	"errors"
	"fmt"
	"math"

	"github.com/arn-lab/gopgm/core"
)

// ErrFunctionArity indicates a function was evaluated with the wrong
// number of parameters.
var ErrFunctionArity = errors.New("registry: wrong function arity")

// ErrFunctionDim indicates a function's parameter dimensions are
// incompatible.
var ErrFunctionDim = errors.New("registry: incompatible function dimensions")

type fnIdentity struct{}

func (fnIdentity) Name() string                         { return "identity" }
func (fnIdentity) Arity() int                            { return 1 }
func (fnIdentity) CheckParamDim(dims []core.DimArray) bool { return len(dims) == 1 }
func (fnIdentity) Dim(dims []core.DimArray) core.DimArray { return dims[0].Clone() }
func (fnIdentity) Eval(out core.ValArray, params []core.ValArray) error {
	copy(out, params[0])
	return nil
}
func (fnIdentity) IsDiscreteValued(pd []bool) bool { return pd[0] }

type fnAdd struct{}

func (fnAdd) Name() string                         { return "add" }
func (fnAdd) Arity() int                            { return 2 }
func (fnAdd) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].Equal(dims[1])
}
func (fnAdd) Dim(dims []core.DimArray) core.DimArray { return dims[0].Clone() }
func (fnAdd) Eval(out core.ValArray, params []core.ValArray) error {
	for i := range out {
		out[i] = params[0][i] + params[1][i]
	}
	return nil
}
func (fnAdd) IsDiscreteValued(pd []bool) bool { return pd[0] && pd[1] }

type fnSubtract struct{}

func (fnSubtract) Name() string                         { return "subtract" }
func (fnSubtract) Arity() int                            { return 2 }
func (fnSubtract) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].Equal(dims[1])
}
func (fnSubtract) Dim(dims []core.DimArray) core.DimArray { return dims[0].Clone() }
func (fnSubtract) Eval(out core.ValArray, params []core.ValArray) error {
	for i := range out {
		out[i] = params[0][i] - params[1][i]
	}
	return nil
}
func (fnSubtract) IsDiscreteValued(pd []bool) bool { return pd[0] && pd[1] }

type fnNegate struct{}

func (fnNegate) Name() string                         { return "negate" }
func (fnNegate) Arity() int                            { return 1 }
func (fnNegate) CheckParamDim(dims []core.DimArray) bool { return len(dims) == 1 }
func (fnNegate) Dim(dims []core.DimArray) core.DimArray { return dims[0].Clone() }
func (fnNegate) Eval(out core.ValArray, params []core.ValArray) error {
	for i := range out {
		out[i] = -params[0][i]
	}
	return nil
}
func (fnNegate) IsDiscreteValued(pd []bool) bool { return pd[0] }

// fnScalarMultiply is scalarMultiply(a, x): a is a scalar, x arbitrary
// shape.
type fnScalarMultiply struct{}

func (fnScalarMultiply) Name() string { return "scalarMultiply" }
func (fnScalarMultiply) Arity() int   { return 2 }
func (fnScalarMultiply) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsScalar()
}
func (fnScalarMultiply) Dim(dims []core.DimArray) core.DimArray { return dims[1].Clone() }
func (fnScalarMultiply) Eval(out core.ValArray, params []core.ValArray) error {
	a := params[0][0]
	for i := range out {
		out[i] = a * params[1][i]
	}
	return nil
}
func (fnScalarMultiply) IsDiscreteValued(pd []bool) bool { return pd[0] && pd[1] }

// fnMatMultiply is matMultiply(A, x): A an (m x n) matrix, x a length-n
// vector, output a length-m vector.
type fnMatMultiply struct{}

func (fnMatMultiply) Name() string { return "matMultiply" }
func (fnMatMultiply) Arity() int   { return 2 }
func (fnMatMultiply) CheckParamDim(dims []core.DimArray) bool {
	if len(dims) != 2 || !dims[0].IsMatrix() || !dims[1].IsVector() {
		return false
	}
	return dims[0][1] == dims[1][0]
}
func (fnMatMultiply) Dim(dims []core.DimArray) core.DimArray {
	out, _ := core.NewDimArray(dims[0][0])
	return out
}
func (fnMatMultiply) Eval(out core.ValArray, params []core.ValArray) error {
	// params[0] is column-major m x n, params[1] is length n.
	m, n := len(out), len(params[1])
	for i := 0; i < m; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += params[0][j*m+i] * params[1][j]
		}
		out[i] = sum
	}
	return nil
}
func (fnMatMultiply) IsDiscreteValued(pd []bool) bool { return pd[0] && pd[1] }

// fnTranspose is transpose(A): a square (n x n) matrix to its transpose.
// The Function interface evaluates by value alone (no dims argument), so
// a generic rectangular transpose would need the original row/column
// split carried alongside the flat buffer; the node graph only ever
// feeds transpose the square gain/precision matrices the conjugate
// package builds, so the restriction costs nothing in practice.
type fnTranspose struct{}

func (fnTranspose) Name() string { return "transpose" }
func (fnTranspose) Arity() int   { return 1 }
func (fnTranspose) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 1 && dims[0].IsSquared()
}
func (fnTranspose) Dim(dims []core.DimArray) core.DimArray { return dims[0].Clone() }
func (fnTranspose) Eval(out core.ValArray, params []core.ValArray) error {
	a := params[0]
	n := int(math.Round(math.Sqrt(float64(len(a)))))
	if n*n != len(a) {
		return fmt.Errorf("transpose: non-square length %d: %w", len(a), ErrFunctionDim)
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			out[i*n+j] = a[j*n+i]
		}
	}
	return nil
}
func (fnTranspose) IsDiscreteValued(pd []bool) bool { return pd[0] }

// fnIndex is index(x, i): select a single element of vector x at
// 1-based position i.
type fnIndex struct{}

func (fnIndex) Name() string { return "index" }
func (fnIndex) Arity() int   { return 2 }
func (fnIndex) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && dims[0].IsVector() && dims[1].IsScalar()
}
func (fnIndex) Dim([]core.DimArray) core.DimArray { return dimScalar() }
func (fnIndex) Eval(out core.ValArray, params []core.ValArray) error {
	i := int(params[1][0]) - 1
	if i < 0 || i >= len(params[0]) {
		return fmt.Errorf("index: position %d: %w", i+1, ErrFunctionDim)
	}
	out[0] = params[0][i]
	return nil
}
func (fnIndex) IsDiscreteValued(pd []bool) bool { return pd[0] }

// fnSum is sum(x): reduce a vector to its total.
type fnSum struct{}

func (fnSum) Name() string                         { return "sum" }
func (fnSum) Arity() int                            { return 1 }
func (fnSum) CheckParamDim(dims []core.DimArray) bool { return len(dims) == 1 }
func (fnSum) Dim([]core.DimArray) core.DimArray      { return dimScalar() }
func (fnSum) Eval(out core.ValArray, params []core.ValArray) error {
	out[0] = params[0].Sum()
	return nil
}
func (fnSum) IsDiscreteValued(pd []bool) bool { return pd[0] }

// fnProd is prod(x, y): elementwise (or scalar) product, ported from
// original_source/include/base/functions/Prod.hpp.
type fnProd struct{}

func (fnProd) Name() string { return "prod" }
func (fnProd) Arity() int   { return 2 }
func (fnProd) CheckParamDim(dims []core.DimArray) bool {
	return len(dims) == 2 && (dims[0].IsScalar() || dims[1].IsScalar() || dims[0].Equal(dims[1]))
}
func (fnProd) Dim(dims []core.DimArray) core.DimArray {
	if dims[0].IsScalar() {
		return dims[1].Clone()
	}
	return dims[0].Clone()
}
func (fnProd) Eval(out core.ValArray, params []core.ValArray) error {
	x, y := params[0], params[1]
	switch {
	case len(x) == 1:
		for i := range out {
			out[i] = x[0] * y[i]
		}
	case len(y) == 1:
		for i := range out {
			out[i] = x[i] * y[0]
		}
	default:
		for i := range out {
			out[i] = x[i] * y[i]
		}
	}
	return nil
}
func (fnProd) IsDiscreteValued(pd []bool) bool { return pd[0] && pd[1] }

// fnLogistic is logistic(x) = 1/(1+exp(-x)), the logistic-link gate the
// pack's PGM example wires (rlouf-gmc's LogisticGate).
type fnLogistic struct{}

func (fnLogistic) Name() string                         { return "logistic" }
func (fnLogistic) Arity() int                            { return 1 }
func (fnLogistic) CheckParamDim(dims []core.DimArray) bool { return len(dims) == 1 }
func (fnLogistic) Dim(dims []core.DimArray) core.DimArray { return dims[0].Clone() }
func (fnLogistic) Eval(out core.ValArray, params []core.ValArray) error {
	for i := range out {
		out[i] = 1 / (1 + math.Exp(-params[0][i]))
	}
	return nil
}
func (fnLogistic) IsDiscreteValued(pd []bool) bool { return false }

// fnLogit is logit(p) = log(p/(1-p)), the inverse of logistic.
type fnLogit struct{}

func (fnLogit) Name() string                         { return "logit" }
func (fnLogit) Arity() int                            { return 1 }
func (fnLogit) CheckParamDim(dims []core.DimArray) bool { return len(dims) == 1 }
func (fnLogit) Dim(dims []core.DimArray) core.DimArray { return dims[0].Clone() }
func (fnLogit) Eval(out core.ValArray, params []core.ValArray) error {
	for i := range out {
		p := params[0][i]
		out[i] = math.Log(p / (1 - p))
	}
	return nil
}
func (fnLogit) IsDiscreteValued(pd []bool) bool { return false }
