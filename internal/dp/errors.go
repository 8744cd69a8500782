package dp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/driftgrid/internal/grid"
)

// Configuration errors. All of these surface from Builder.Build, never from
// the stepping phase.
var (
	// ErrMissingKernel indicates a field type present in the grid without an
	// assigned kernel.
	ErrMissingKernel = errors.New("dp: field type has no assigned kernel")

	// ErrNoGrid indicates that neither grid dimensions nor a terrain matrix
	// were given.
	ErrNoGrid = errors.New("dp: grid dimensions must be set and non-zero")

	// ErrNoKernels indicates a builder with no kernel table at all.
	ErrNoKernels = errors.New("dp: at least one kernel must be set")

	// ErrInvalidDistribution indicates an initial distribution that does not
	// sum to the target mass within tolerance.
	ErrInvalidDistribution = errors.New("dp: initial distribution does not sum to target mass")

	// ErrNoTermination indicates that neither an iteration count nor a
	// convergence epsilon was configured.
	ErrNoTermination = errors.New("dp: iteration count or convergence epsilon required")

	// ErrInvalidWeights indicates merge weights that are missing, mismatched
	// in length, or not summing to 1.0 within tolerance.
	ErrInvalidWeights = errors.New("dp: merge weights must match programs and sum to 1.0")

	// ErrNoPrograms indicates an empty multi program.
	ErrNoPrograms = errors.New("dp: multi program needs at least one program")

	// ErrShapeMismatch indicates member programs with differing grid sizes.
	ErrShapeMismatch = errors.New("dp: programs must share grid dimensions")

	// ErrTerminationMismatch indicates member programs whose iteration
	// budgets or convergence epsilons differ, which would break lockstep.
	ErrTerminationMismatch = errors.New("dp: programs must share termination settings")

	// ErrStepMismatch indicates a merge requested before every member
	// program committed the step being merged.
	ErrStepMismatch = errors.New("dp: programs are not at the same committed step")

	// ErrBadHeading indicates a heading kernel placing weight outside the
	// five-point neighborhood, or a missing heading kernel.
	ErrBadHeading = errors.New("dp: heading kernels must act on the five-point neighborhood")
)

// NumericError reports a fatal numeric fault during a step: a non-finite or
// negative mass, or a completed step violating mass conservation beyond
// tolerance. The step it occurred in did not commit; the program remains at
// its last valid state.
type NumericError struct {
	Step int
	Cell grid.Coord // (-1, -1) for grid-wide faults
	Got  float64
	Want float64
	Msg  string
}

func (e *NumericError) Error() string {
	if e.Cell.Row >= 0 {
		return fmt.Sprintf("dp: step %d: %s at %v (got %v)", e.Step, e.Msg, e.Cell, e.Got)
	}
	return fmt.Sprintf("dp: step %d: %s (got %v, want %v)", e.Step, e.Msg, e.Got, e.Want)
}

// ExecutionError aggregates every worker failure of a single step. The step
// did not commit.
type ExecutionError struct {
	Step     int
	Failures []error
}

func (e *ExecutionError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("dp: step %d: %d worker(s) failed: %s", e.Step, len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual worker failures to errors.Is/As.
func (e *ExecutionError) Unwrap() []error { return e.Failures }
