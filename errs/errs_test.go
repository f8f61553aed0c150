package errs_test

import (
	"errors"
	"testing"

	"github.com/arn-lab/gopgm/errs"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	require.Equal(t, "ModelInvalid", errs.ModelInvalid.String())
	require.Equal(t, "NumericFailure", errs.NumericFailure.String())
	require.Equal(t, "Unsupported", errs.Unsupported.String())
}

func TestIs(t *testing.T) {
	base := errors.New("boom")
	wrapped := errs.New(errs.DataError, base)
	require.True(t, errs.Is(wrapped, errs.DataError))
	require.False(t, errs.Is(wrapped, errs.ModelInvalid))
	require.ErrorIs(t, wrapped, base)
}

func TestNewf(t *testing.T) {
	err := errs.Newf(errs.LifecycleViolation, "bad state %s", "Built")
	require.True(t, errs.Is(err, errs.LifecycleViolation))
	require.Contains(t, err.Error(), "bad state Built")
}
