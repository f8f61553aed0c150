package registry

import (
	"math"
	"testing"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/rng"
	"github.com/stretchr/testify/require"
)

func vec(vs ...float64) core.ValArray { return core.ValArray(vs) }

func TestDNorm_LogDensityMatchesKnownValue(t *testing.T) {
	d := dNorm{}
	// standard normal at 0: log(1/sqrt(2*pi))
	lp, err := d.LogDensity(vec(0), []core.ValArray{vec(0), vec(1)}, Unbounded)
	require.NoError(t, err)
	require.InDelta(t, -0.5*math.Log(2*math.Pi), lp, 1e-9)
}

func TestDNorm_SampleRespectsTruncation(t *testing.T) {
	d := dNorm{}
	src := rng.New(42)
	b := Bounds{HasLower: true, Lower: 0}
	out := make(core.ValArray, 1)
	for i := 0; i < 50; i++ {
		require.NoError(t, d.Sample(out, []core.ValArray{vec(0), vec(1)}, b, src))
		require.GreaterOrEqual(t, out[0], 0.0)
	}
}

func TestDBeta_CheckParamValue(t *testing.T) {
	d := dBeta{}
	require.True(t, d.CheckParamValue([]core.ValArray{vec(2), vec(3)}))
	require.False(t, d.CheckParamValue([]core.ValArray{vec(-1), vec(3)}))
}

func TestDBern_FiniteSupport(t *testing.T) {
	d := dBern{}
	vals, ok := d.FiniteSupport(nil)
	require.True(t, ok)
	require.Equal(t, []float64{0, 1}, vals)
}

func TestDBin_LogDensity_OutOfSupport(t *testing.T) {
	d := dBin{}
	lp, err := d.LogDensity(vec(5), []core.ValArray{vec(0.5), vec(3)}, Unbounded)
	require.NoError(t, err)
	require.True(t, math.IsInf(lp, -1))
}

func TestDPar_NoDbinomAlias(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterDistribution(dPar{}))
	_, err := r.Distribution("dbinom")
	require.ErrorIs(t, err, ErrUnknownDistribution)
}

func TestDF_LogDensityFiniteAndPositive(t *testing.T) {
	d := dF{}
	lp, err := d.LogDensity(vec(1.0), []core.ValArray{vec(5), vec(5)}, Unbounded)
	require.NoError(t, err)
	require.False(t, math.IsNaN(lp))
	require.False(t, math.IsInf(lp, 0))
}

func TestDF_LogDensityNegativeSupport(t *testing.T) {
	d := dF{}
	lp, err := d.LogDensity(vec(-1.0), []core.ValArray{vec(5), vec(5)}, Unbounded)
	require.NoError(t, err)
	require.True(t, math.IsInf(lp, -1))
}

func TestSampleTruncated_GivesUpGracefully(t *testing.T) {
	always5 := func() float64 { return 5 }
	b := Bounds{HasUpper: true, Upper: 1}
	got := sampleTruncated(always5, b)
	require.True(t, math.IsNaN(got))
}
