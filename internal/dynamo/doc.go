// Package dynamo provides the value types shared by the walking pattern
// generator.
//
// The package defines the records that flow between the optimizer stages:
//
//   - [State]: the 6-dimensional CoM state [x, ẋ, ẍ, y, ẏ, ÿ]
//   - [CoMState] and [ZMPSample]: output samples at the fine period
//   - [FootPosition]: one foot at one instant, as consumed by the
//     fixed-horizon formulation
//   - [Velocity]: the operator's walking velocity reference
//   - [Metric]: trajectory observers
//
// # Errors
//
// Every failure surfaced by the generator wraps one of the sentinel errors
// in this package, so callers can branch with errors.Is:
//
//	if errors.Is(err, dynamo.ErrSolverInfeasible) {
//		// relax the reference and retry from the caller side
//	}
//
// Cycle-level failures are reported as [*CycleError].
//
// # Thread Safety
//
// Values in this package are plain data. Slices returned by generators are
// owned by the caller.
package dynamo
