package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadBaseModule_RegistersExpectedNames(t *testing.T) {
	r := New()
	require.NoError(t, LoadBaseModule(r))

	want := []string{
		"dnorm", "dnormvar", "dmnorm", "dmnormvar", "dbeta", "dgamma",
		"dpois", "dbin", "dbern", "dunif", "dexp", "dlnorm", "dchisqr",
		"dt", "dweib", "df", "dpar", "dcat", "dmulti", "dinterval",
	}
	for _, name := range want {
		_, err := r.Distribution(name)
		require.NoErrorf(t, err, "distribution %s should be registered", name)
	}

	_, err := r.Distribution("dbinom")
	require.ErrorIs(t, err, ErrUnknownDistribution, "dpar must not register a dbinom alias")

	for _, name := range []string{"identity", "add", "subtract", "negate",
		"scalarMultiply", "matMultiply", "transpose", "index", "sum", "prod",
		"logistic", "logit"} {
		_, err := r.Function(name)
		require.NoErrorf(t, err, "function %s should be registered", name)
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterDistribution(dNorm{}))
	err := r.RegisterDistribution(dNorm{})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestRegistry_UnknownLookup(t *testing.T) {
	r := New()
	_, err := r.Distribution("nope")
	require.ErrorIs(t, err, ErrUnknownDistribution)
	_, err = r.Function("nope")
	require.ErrorIs(t, err, ErrUnknownFunction)
}
