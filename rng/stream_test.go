package rng_test

import (
	"testing"

	"github.com/arn-lab/gopgm/rng"
	"github.com/stretchr/testify/require"
)

func TestNew_Deterministic(t *testing.T) {
	a := rng.New(42)
	b := rng.New(42)
	for i := 0; i < 10; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestClone_Independent(t *testing.T) {
	a := rng.New(1)
	b := a.Clone()
	// b is seeded from a value drawn off a, so its draws differ from a's
	// own continuing draws.
	want := rng.New(1)
	_ = a.Float64()
	_ = want.Float64()
	bv := b.Float64()
	av := a.Float64()
	require.NotEqual(t, bv, av)
}
