package grid

import "errors"

// Domain errors for grid construction and access.
var (
	// ErrEmpty indicates zero rows or columns.
	ErrEmpty = errors.New("grid: dimensions must be non-zero")

	// ErrRagged indicates a non-rectangular input matrix.
	ErrRagged = errors.New("grid: matrix rows have unequal lengths")

	// ErrBadMass indicates a negative or non-finite mass value.
	ErrBadMass = errors.New("grid: mass must be finite and non-negative")

	// ErrOutOfBounds indicates a coordinate outside the grid.
	ErrOutOfBounds = errors.New("grid: coordinate out of bounds")

	// ErrUnknownBoundary indicates an unrecognized boundary policy name.
	ErrUnknownBoundary = errors.New("grid: unknown boundary policy")
)
