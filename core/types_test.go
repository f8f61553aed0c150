package core_test

import (
	"testing"

	"github.com/arn-lab/gopgm/core"
	"github.com/stretchr/testify/require"
)

func TestDimArray_Length(t *testing.T) {
	tests := []struct {
		name string
		dims []int
		want int
	}{
		{"scalar", []int{1}, 1},
		{"vector", []int{5}, 5},
		{"matrix", []int{3, 4}, 12},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d core.DimArray
			var err error
			if tt.dims != nil {
				d, err = core.NewDimArray(tt.dims...)
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, d.Length())
		})
	}
}

func TestDimArray_Shapes(t *testing.T) {
	scalar, err := core.NewDimArray(1)
	require.NoError(t, err)
	require.True(t, scalar.IsScalar())
	require.True(t, scalar.IsVector())
	require.False(t, scalar.IsMatrix())

	vec, err := core.NewDimArray(3)
	require.NoError(t, err)
	require.False(t, vec.IsScalar())
	require.True(t, vec.IsVector())

	mat, err := core.NewDimArray(2, 2)
	require.NoError(t, err)
	require.True(t, mat.IsMatrix())
	require.True(t, mat.IsSquared())

	rect, err := core.NewDimArray(2, 3)
	require.NoError(t, err)
	require.False(t, rect.IsSquared())
}

func TestNewDimArray_RejectsNonPositive(t *testing.T) {
	_, err := core.NewDimArray(2, 0)
	require.ErrorIs(t, err, core.ErrEmptyDim)
}

func TestValArray_AllIntegral(t *testing.T) {
	require.True(t, core.ValArray{1, 2, 3}.AllIntegral())
	require.False(t, core.ValArray{1, 2.5, 3}.AllIntegral())
}

func TestValArray_SumScale(t *testing.T) {
	v := core.ValArray{1, 2, 3}
	require.Equal(t, 6.0, v.Sum())
	v.Scale(2)
	require.Equal(t, core.ValArray{2, 4, 6}, v)
}

func TestIndexRange_ContainsAndLength(t *testing.T) {
	lower, _ := core.NewDimArray(0, 0)
	upper, _ := core.NewDimArray(1, 2)
	r, err := core.NewIndexRange(lower, upper)
	require.NoError(t, err)
	require.Equal(t, 6, r.Length())

	idxIn, _ := core.NewDimArray(1, 1)
	require.True(t, r.Contains(idxIn))

	idxOut, _ := core.NewDimArray(2, 1)
	require.False(t, r.Contains(idxOut))
}

func TestNewIndexRange_RejectsInverted(t *testing.T) {
	lower, _ := core.NewDimArray(2, 0)
	upper, _ := core.NewDimArray(1, 2)
	_, err := core.NewIndexRange(lower, upper)
	require.ErrorIs(t, err, core.ErrRangeOutOfBounds)
}

func TestFlatOffset_ColumnMajor(t *testing.T) {
	dim, _ := core.NewDimArray(2, 3)
	// column-major: left-most index moves fastest
	off, err := core.FlatOffset(dim, core.DimArray{1, 0})
	require.NoError(t, err)
	require.Equal(t, 1, off)

	off, err = core.FlatOffset(dim, core.DimArray{0, 1})
	require.NoError(t, err)
	require.Equal(t, 2, off)
}

func TestFlatOffset_OutOfBounds(t *testing.T) {
	dim, _ := core.NewDimArray(2, 3)
	_, err := core.FlatOffset(dim, core.DimArray{2, 0})
	require.ErrorIs(t, err, core.ErrRangeOutOfBounds)
}
