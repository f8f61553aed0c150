package registry

import "errors"

// errNotPSD signals that a covariance/precision matrix failed Cholesky
// factorization, i.e. was not positive semi-definite.
var errNotPSD = errors.New("registry: matrix is not positive semi-definite")
