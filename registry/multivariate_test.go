package registry

import (
	"testing"

	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/rng"
	"github.com/stretchr/testify/require"
)

func TestDMNorm_SampleAndDensityConsistentShape(t *testing.T) {
	d := newDMNorm()
	mu := vec(0, 0)
	prec := core.ValArray{2, 0, 0, 2} // 2x2 identity*2, column-major
	src := rng.New(7)
	out := make(core.ValArray, 2)
	require.NoError(t, d.Sample(out, []core.ValArray{mu, prec}, Unbounded, src))
	require.Len(t, out, 2)

	lp, err := d.LogDensity(mu, []core.ValArray{mu, prec}, Unbounded)
	require.NoError(t, err)
	require.False(t, lp != lp) // not NaN
}

func TestDMNormVar_RejectsNonPSD(t *testing.T) {
	d := newDMNormVar()
	mu := vec(0, 0)
	badCov := core.ValArray{1, 2, 2, 1} // not PSD (det = 1-4 = -3)
	require.False(t, d.CheckParamValue([]core.ValArray{mu, badCov}))
}

func TestDMNorm_PrecisionInvertedToCovariance(t *testing.T) {
	d := dMNormBase{name: "dmnorm", secondIsPrec: true}
	cov, err := d.covFromParam(2, core.ValArray{2, 0, 0, 2})
	require.NoError(t, err)
	require.InDelta(t, 0.5, cov.At(0, 0), 1e-9)
	require.InDelta(t, 0.5, cov.At(1, 1), 1e-9)
}
