package conjugate

import "github.com/arn-lab/gopgm/sampler"

// Factories returns every conjugate sampler.Factory this package
// implements, in the priority order a caller should try them, multivariate
// first. The multivariate and scalar Normal factories match disjoint
// prior names (dmnorm/dmnormvar versus dnorm/dnormvar), so that order
// does not decide between them.
func Factories() []sampler.Factory {
	return []sampler.Factory{
		mnormalLinearFactory{},
		normalNormalFactory{},
		betaBinomialFactory{},
		gammaPoissonFactory{},
		gammaNormalPrecisionFactory{},
	}
}
