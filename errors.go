package densegp

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFit is returned when a query needs a factorization but no
	// successful call to Fit has been made.
	ErrNotFit = errors.New("densegp: emulator has not been fit")

	// ErrNotImplemented is returned for declared but unsupported
	// capabilities, such as the Hessian of the log-posterior.
	ErrNotImplemented = errors.New("densegp: not implemented")

	// ErrNotPositiveDefinite is returned when the covariance matrix
	// cannot be Cholesky factorized, including after adaptive nugget
	// escalation has exhausted its retries.
	ErrNotPositiveDefinite = errors.New("densegp: covariance matrix not positive definite")

	// ErrShape is returned for dimension mismatches in construction or
	// call arguments.
	ErrShape = errors.New("densegp: dimension mismatch")
)

// opErr attaches the failing operation to an error so callers can
// diagnose which entry point rejected them.
func opErr(op string, err error) error {
	return fmt.Errorf("densegp: %s: %w", op, err)
}

// shapeErr builds an ErrShape with a description of the offending
// argument.
func shapeErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrShape, fmt.Sprintf(format, args...))
}
