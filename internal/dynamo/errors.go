package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for pattern generation.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrGeometry indicates degenerate or inconsistent foot geometry, such as
	// left and right sequences of different lengths or a clockwise polygon.
	ErrGeometry = errors.New("dynamo: inconsistent foot geometry")

	// ErrSolverInfeasible indicates the QP solver reported an infeasible problem.
	ErrSolverInfeasible = errors.New("dynamo: qp infeasible")

	// ErrSolverNumeric indicates the QP solver stopped on its iteration budget
	// or lost accuracy.
	ErrSolverNumeric = errors.New("dynamo: qp numerical failure")

	// ErrConstraintViolation indicates a returned solution violates one of the
	// constraints it was built against.
	ErrConstraintViolation = errors.New("dynamo: constraint violated by solution")

	// ErrConfiguration indicates an unsupported combination of parameters,
	// e.g. a horizon longer than the available constraint windows.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrContextCanceled indicates the run was interrupted between cycles.
	ErrContextCanceled = errors.New("dynamo: run canceled by context")
)

// CycleError wraps an error with control-cycle context.
type CycleError struct {
	Cycle   int
	Time    float64
	Wrapped error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle %d (t=%.4f): %v", e.Cycle, e.Time, e.Wrapped)
}

func (e *CycleError) Unwrap() error {
	return e.Wrapped
}
