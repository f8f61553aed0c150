// Package conjugate implements the closed-form posterior-update sampler
// family spec.md §4.4 describes: pattern detectors that recognize a
// conjugate prior/likelihood pairing around an unobserved stochastic
// node, and the posterior samplers themselves. The affine classifier
// here replaces the source's GetLinearTransformVisitor
// (original_source/base/include/samplers/GetLinearTransformVisitor.hpp):
// a recursive walk, memoized per call, that recognizes the closed set of
// functions spec.md §4.4 allows between a conjugate parameter slot and
// its target node.
package conjugate

import (
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
)

// Class tags how a node's value relates to the classification target.
type Class int

const (
	// Known means the node's value does not depend on the target.
	Known Class = iota
	// Linear means the node's value is an affine function of the target:
	// value = A*target + b.
	Linear
	// Other means the relation could not be recognized as affine.
	Other
)

// LinearForm is the result of classifying one node against a target:
// either a concrete Known value, an affine A/B pair, or Other.
type LinearForm struct {
	Class Class

	// Value holds the node's value when Class==Known.
	Value core.ValArray

	// A is the outDim x inDim matrix (column-major) and B the length-
	// outDim offset of value = A*target + b, meaningful when
	// Class==Linear.
	A      core.ValArray
	B      core.ValArray
	OutDim int
	InDim  int
}

// ClassifyLinear classifies node id's value as KNOWN, LINEAR or OTHER
// with respect to target, per spec.md §4.4's recursive visitor. Results
// are memoized within one call so shared sub-expressions are visited
// once.
func ClassifyLinear(g *graph.Graph, target, id graph.NodeID) (LinearForm, error) {
	cache := make(map[graph.NodeID]LinearForm)
	return classify(g, target, id, cache)
}

func classify(g *graph.Graph, target, id graph.NodeID, cache map[graph.NodeID]LinearForm) (LinearForm, error) {
	if lf, ok := cache[id]; ok {
		return lf, nil
	}
	n, err := g.Node(id)
	if err != nil {
		return LinearForm{}, err
	}

	var lf LinearForm
	switch {
	case id == target:
		dim := n.Dim().Length()
		lf = identityForm(dim)
	case n.Kind() == graph.KindConstant:
		lf = knownForm(n.Value())
	case n.Kind() == graph.KindStochastic:
		if n.Observed() {
			lf = knownForm(n.Value())
		} else {
			lf = LinearForm{Class: Other}
		}
	case n.Kind() == graph.KindLogical:
		lf, err = classifyLogical(g, target, n, cache)
		if err != nil {
			return LinearForm{}, err
		}
	}
	cache[id] = lf
	return lf, nil
}

func identityForm(dim int) LinearForm {
	a := make(core.ValArray, dim*dim)
	for i := 0; i < dim; i++ {
		a[i*dim+i] = 1
	}
	return LinearForm{Class: Linear, A: a, B: make(core.ValArray, dim), OutDim: dim, InDim: dim}
}

func knownForm(v core.ValArray) LinearForm {
	return LinearForm{Class: Known, Value: v.Clone()}
}

// classifyLogical dispatches on the logical node's function name, only
// recognizing the closed affine set spec.md §4.4 names: identity, add,
// subtract, negate, scalarMultiply (by a KNOWN scalar), matMultiply (by
// a KNOWN matrix), transpose (of a KNOWN matrix), and index (by a KNOWN
// position).
func classifyLogical(g *graph.Graph, target graph.NodeID, n *graph.Node, cache map[graph.NodeID]LinearForm) (LinearForm, error) {
	parents := n.Parents()
	sub := make([]LinearForm, len(parents))
	for i, p := range parents {
		lf, err := classify(g, target, p, cache)
		if err != nil {
			return LinearForm{}, err
		}
		sub[i] = lf
	}

	switch n.Function().Name() {
	case "identity":
		return sub[0], nil
	case "add":
		return combineAdd(sub[0], sub[1], 1, 1), nil
	case "subtract":
		return combineAdd(sub[0], sub[1], 1, -1), nil
	case "negate":
		return scaleForm(sub[0], -1), nil
	case "scalarMultiply":
		if sub[0].Class != Known || len(sub[0].Value) != 1 {
			return LinearForm{Class: Other}, nil
		}
		return scaleForm(sub[1], sub[0].Value[0]), nil
	case "matMultiply":
		if sub[0].Class != Known {
			return LinearForm{Class: Other}, nil
		}
		return matComposeForm(sub[0].Value, sub[1]), nil
	case "transpose":
		if sub[0].Class != Known {
			return LinearForm{Class: Other}, nil
		}
		return knownForm(transposeSquare(sub[0].Value)), nil
	case "index":
		if sub[1].Class != Known || len(sub[1].Value) != 1 {
			return LinearForm{Class: Other}, nil
		}
		return indexForm(sub[0], int(sub[1].Value[0])-1), nil
	default:
		return LinearForm{Class: Other}, nil
	}
}

func transposeSquare(v core.ValArray) core.ValArray {
	n := 1
	for n*n < len(v) {
		n++
	}
	out := make(core.ValArray, len(v))
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			out[i*n+j] = v[j*n+i]
		}
	}
	return out
}

// combineAdd forms ca*sub0 + cb*sub1, propagating Other if either side is
// Other, and producing Known only when both sides are Known.
func combineAdd(a, b LinearForm, ca, cb float64) LinearForm {
	if a.Class == Other || b.Class == Other {
		return LinearForm{Class: Other}
	}
	if a.Class == Known && b.Class == Known {
		out := make(core.ValArray, len(a.Value))
		for i := range out {
			out[i] = ca*a.Value[i] + cb*b.Value[i]
		}
		return knownForm(out)
	}
	// Promote any Known side to a zero-slope Linear form sharing the
	// other (genuinely Linear) side's dims before combining.
	n, m := linearDims(a, b)
	al, bl := toLinear(a, n, m), toLinear(b, n, m)
	outA := make(core.ValArray, n*m)
	for i := range outA {
		outA[i] = ca*al.A[i] + cb*bl.A[i]
	}
	outB := make(core.ValArray, n)
	for i := range outB {
		outB[i] = ca*al.B[i] + cb*bl.B[i]
	}
	return LinearForm{Class: Linear, A: outA, B: outB, OutDim: n, InDim: m}
}

func linearDims(a, b LinearForm) (outDim, inDim int) {
	if a.Class == Linear {
		return a.OutDim, a.InDim
	}
	return b.OutDim, b.InDim
}

func toLinear(f LinearForm, outDim, inDim int) LinearForm {
	if f.Class == Linear {
		return f
	}
	return LinearForm{Class: Linear, A: make(core.ValArray, outDim*inDim), B: f.Value.Clone(), OutDim: outDim, InDim: inDim}
}

func scaleForm(f LinearForm, c float64) LinearForm {
	switch f.Class {
	case Known:
		out := make(core.ValArray, len(f.Value))
		for i := range out {
			out[i] = c * f.Value[i]
		}
		return knownForm(out)
	case Linear:
		a := make(core.ValArray, len(f.A))
		for i := range a {
			a[i] = c * f.A[i]
		}
		b := make(core.ValArray, len(f.B))
		for i := range b {
			b[i] = c * f.B[i]
		}
		return LinearForm{Class: Linear, A: a, B: b, OutDim: f.OutDim, InDim: f.InDim}
	default:
		return LinearForm{Class: Other}
	}
}

// matComposeForm computes mat (an m x k KNOWN matrix, column-major) times
// sub (a k-dimensional form), producing an m-dimensional form.
func matComposeForm(mat core.ValArray, sub LinearForm) LinearForm {
	switch sub.Class {
	case Known:
		k := len(sub.Value)
		m := len(mat) / k
		out := make(core.ValArray, m)
		for i := 0; i < m; i++ {
			s := 0.0
			for j := 0; j < k; j++ {
				s += mat[j*m+i] * sub.Value[j]
			}
			out[i] = s
		}
		return knownForm(out)
	case Linear:
		k := sub.OutDim
		m := len(mat) / k
		n := sub.InDim
		outA := make(core.ValArray, m*n)
		for i := 0; i < m; i++ {
			for col := 0; col < n; col++ {
				s := 0.0
				for j := 0; j < k; j++ {
					s += mat[j*m+i] * sub.A[col*k+j]
				}
				outA[col*m+i] = s
			}
		}
		outB := make(core.ValArray, m)
		for i := 0; i < m; i++ {
			s := 0.0
			for j := 0; j < k; j++ {
				s += mat[j*m+i] * sub.B[j]
			}
			outB[i] = s
		}
		return LinearForm{Class: Linear, A: outA, B: outB, OutDim: m, InDim: n}
	default:
		return LinearForm{Class: Other}
	}
}

func indexForm(sub LinearForm, idx int) LinearForm {
	switch sub.Class {
	case Known:
		if idx < 0 || idx >= len(sub.Value) {
			return LinearForm{Class: Other}
		}
		return knownForm(core.ValArray{sub.Value[idx]})
	case Linear:
		if idx < 0 || idx >= sub.OutDim {
			return LinearForm{Class: Other}
		}
		n := sub.InDim
		a := make(core.ValArray, n)
		for col := 0; col < n; col++ {
			a[col] = sub.A[col*sub.OutDim+idx]
		}
		return LinearForm{Class: Linear, A: a, B: core.ValArray{sub.B[idx]}, OutDim: 1, InDim: n}
	default:
		return LinearForm{Class: Other}
	}
}

// IsScalarAffine reports whether f is a Linear form on a 1-dimensional
// target with a 1-dimensional output, and returns the scalar (a, b) such
// that value = a*target + b.
func (f LinearForm) IsScalarAffine() (a, b float64, ok bool) {
	if f.Class != Linear || f.OutDim != 1 || f.InDim != 1 {
		return 0, 0, false
	}
	return f.A[0], f.B[0], true
}
