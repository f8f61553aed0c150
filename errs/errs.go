// Package errs implements the cross-cutting error taxonomy of spec.md §7:
// ModelInvalid, NumericFailure, LifecycleViolation, DataError and
// Unsupported. Leaf packages still raise their own sentinel errors (the
// teacher's per-package convention, e.g. graph.ErrCycle); this package
// wraps them into one classified error at package boundaries so a driver
// can switch on Kind without importing every leaf package's sentinels.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a gopgm error per spec.md §7.
type Kind int

const (
	// ModelInvalid: cycles, dimension mismatch, undefined variable,
	// duplicate definition, lower > upper in truncation, non-observed
	// parent of observed node in the data-generating subgraph.
	ModelInvalid Kind = iota
	// NumericFailure: non-PSD Cholesky target, NaN/-Inf log-density where
	// finite is required, prior/likelihood/posterior mutually incompatible.
	NumericFailure
	// LifecycleViolation: operation called in the wrong sampler state.
	LifecycleViolation
	// DataError: variable not declared, range out of bounds, dim mismatch
	// when setting data.
	DataError
	// Unsupported: distribution/function not registered, unsupported
	// truncation on a conjugate pattern, finite sampler on unbounded
	// support.
	Unsupported
)

// String renders the Kind's name.
func (k Kind) String() string {
	switch k {
	case ModelInvalid:
		return "ModelInvalid"
	case NumericFailure:
		return "NumericFailure"
	case LifecycleViolation:
		return "LifecycleViolation"
	case DataError:
		return "DataError"
	case Unsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// Error is a classified error wrapping an inner cause.
type Error struct {
	Kind  Kind
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

// Unwrap exposes the inner cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// New classifies cause under kind.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Newf classifies a formatted error under kind.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
