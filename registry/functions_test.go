package registry

import (
	"testing"

	"github.com/arn-lab/gopgm/core"
	"github.com/stretchr/testify/require"
)

func TestFnAdd_Eval(t *testing.T) {
	f := fnAdd{}
	out := make(core.ValArray, 2)
	require.NoError(t, f.Eval(out, []core.ValArray{vec(1, 2), vec(3, 4)}))
	require.Equal(t, core.ValArray{4, 6}, out)
}

func TestFnScalarMultiply_Eval(t *testing.T) {
	f := fnScalarMultiply{}
	out := make(core.ValArray, 3)
	require.NoError(t, f.Eval(out, []core.ValArray{vec(2), vec(1, 2, 3)}))
	require.Equal(t, core.ValArray{2, 4, 6}, out)
}

func TestFnMatMultiply_Eval(t *testing.T) {
	f := fnMatMultiply{}
	// column-major 2x2 identity times [1, 2] = [1, 2]
	a := vec(1, 0, 0, 1)
	x := vec(1, 2)
	out := make(core.ValArray, 2)
	require.NoError(t, f.Eval(out, []core.ValArray{a, x}))
	require.Equal(t, core.ValArray{1, 2}, out)
}

func TestFnTranspose_Eval(t *testing.T) {
	f := fnTranspose{}
	// column-major 2x2 [[1,3],[2,4]] transposed is [[1,2],[3,4]]
	a := vec(1, 2, 3, 4)
	out := make(core.ValArray, 4)
	require.NoError(t, f.Eval(out, []core.ValArray{a}))
	require.Equal(t, core.ValArray{1, 3, 2, 4}, out)
}

func TestFnTranspose_RejectsNonSquare(t *testing.T) {
	f := fnTranspose{}
	dims := []core.DimArray{}
	d1, _ := core.NewDimArray(2, 3)
	dims = append(dims, d1)
	require.False(t, f.CheckParamDim(dims))
}

func TestFnIndex_Eval(t *testing.T) {
	f := fnIndex{}
	out := make(core.ValArray, 1)
	require.NoError(t, f.Eval(out, []core.ValArray{vec(10, 20, 30), vec(2)}))
	require.Equal(t, 20.0, out[0])
}

func TestFnIndex_OutOfRange(t *testing.T) {
	f := fnIndex{}
	out := make(core.ValArray, 1)
	err := f.Eval(out, []core.ValArray{vec(10, 20), vec(5)})
	require.ErrorIs(t, err, ErrFunctionDim)
}

func TestFnSum_Eval(t *testing.T) {
	f := fnSum{}
	out := make(core.ValArray, 1)
	require.NoError(t, f.Eval(out, []core.ValArray{vec(1, 2, 3)}))
	require.Equal(t, 6.0, out[0])
}

func TestFnProd_ScalarBroadcast(t *testing.T) {
	f := fnProd{}
	out := make(core.ValArray, 3)
	require.NoError(t, f.Eval(out, []core.ValArray{vec(2), vec(1, 2, 3)}))
	require.Equal(t, core.ValArray{2, 4, 6}, out)
}

func TestFnLogisticLogit_Roundtrip(t *testing.T) {
	logistic := fnLogistic{}
	logit := fnLogit{}
	x := vec(0.5)
	mid := make(core.ValArray, 1)
	require.NoError(t, logistic.Eval(mid, []core.ValArray{x}))
	back := make(core.ValArray, 1)
	require.NoError(t, logit.Eval(back, []core.ValArray{mid}))
	require.InDelta(t, 0.5, back[0], 1e-9)
}
