package registry

// LoadBaseModule registers the full built-in catalog of distributions and
// functions into r, mirroring the set BUGSModule/ObjectFactories wires
// into the original compiler's base module
// (original_source/base/src/BiipsBase.cpp). Call it once per fresh
// Registry before handing it to a builder.Model or graph compilation;
// it fails fast on the first duplicate or nil factory.
func LoadBaseModule(r *Registry) error {
	dists := []Distribution{
		dNorm{},
		dNormVar{},
		newDMNorm(),
		newDMNormVar(),
		dBeta{},
		dGamma{},
		dPois{},
		dBin{},
		dBern{},
		dUnif{},
		dExp{},
		dLnorm{},
		dChisqr{},
		dT{},
		dWeib{},
		dF{},
		dPar{},
		dCat{},
		dMulti{},
		dInterval{},
	}
	for _, d := range dists {
		if err := r.RegisterDistribution(d); err != nil {
			return err
		}
	}

	funcs := []Function{
		fnIdentity{},
		fnAdd{},
		fnSubtract{},
		fnNegate{},
		fnScalarMultiply{},
		fnMatMultiply{},
		fnTranspose{},
		fnIndex{},
		fnSum{},
		fnProd{},
		fnLogistic{},
		fnLogit{},
	}
	for _, f := range funcs {
		if err := r.RegisterFunction(f); err != nil {
			return err
		}
	}
	return nil
}
