package registry

import (
	"math"
	"testing"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/rng"
	"github.com/stretchr/testify/require"
)

func TestDCat_SampleWithinSupport(t *testing.T) {
	d := dCat{}
	pi := vec(0.2, 0.3, 0.5)
	src := rng.New(1)
	out := make(core.ValArray, 1)
	for i := 0; i < 100; i++ {
		require.NoError(t, d.Sample(out, []core.ValArray{pi}, Unbounded, src))
		require.GreaterOrEqual(t, out[0], 1.0)
		require.LessOrEqual(t, out[0], 3.0)
	}
}

func TestDCat_LogDensity(t *testing.T) {
	d := dCat{}
	pi := vec(0.2, 0.3, 0.5)
	lp, err := d.LogDensity(vec(2), []core.ValArray{pi}, Unbounded)
	require.NoError(t, err)
	require.InDelta(t, math.Log(0.3), lp, 1e-9)
}

func TestDCat_CheckParamValue(t *testing.T) {
	d := dCat{}
	require.True(t, d.CheckParamValue([]core.ValArray{vec(0.5, 0.5)}))
	require.False(t, d.CheckParamValue([]core.ValArray{vec(0.5, 0.4)}))
}

func TestDMulti_SampleSumsToN(t *testing.T) {
	d := dMulti{}
	pi := vec(0.2, 0.3, 0.5)
	src := rng.New(3)
	out := make(core.ValArray, 3)
	require.NoError(t, d.Sample(out, []core.ValArray{pi, vec(20)}, Unbounded, src))
	total := 0.0
	for _, v := range out {
		total += v
	}
	require.Equal(t, 20.0, total)
}

func TestDMulti_LogDensityRejectsWrongTotal(t *testing.T) {
	d := dMulti{}
	pi := vec(0.5, 0.5)
	lp, err := d.LogDensity(vec(1, 1), []core.ValArray{pi, vec(5)}, Unbounded)
	require.NoError(t, err)
	require.True(t, math.IsInf(lp, -1))
}

func TestDInterval_SampleAndDensity(t *testing.T) {
	d := dInterval{}
	cuts := vec(1, 2, 3)
	out := make(core.ValArray, 1)
	require.NoError(t, d.Sample(out, []core.ValArray{vec(1.5), cuts}, Unbounded, nil))
	require.Equal(t, 1.0, out[0])

	lp, err := d.LogDensity(vec(1), []core.ValArray{vec(1.5), cuts}, Unbounded)
	require.NoError(t, err)
	require.Equal(t, 0.0, lp)

	lp, err = d.LogDensity(vec(0), []core.ValArray{vec(1.5), cuts}, Unbounded)
	require.NoError(t, err)
	require.True(t, math.IsInf(lp, -1))
}

func TestDInterval_FiniteSupport(t *testing.T) {
	d := dInterval{}
	vals, ok := d.FiniteSupport([]core.ValArray{nil, vec(1, 2, 3)})
	require.True(t, ok)
	require.Equal(t, []float64{0, 1, 2, 3}, vals)
}
