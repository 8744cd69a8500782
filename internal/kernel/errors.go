package kernel

import "errors"

// Domain errors for kernel construction.
var (
	// ErrEmpty indicates an empty weight matrix.
	ErrEmpty = errors.New("kernel: weight matrix must be non-empty")

	// ErrSizeEven indicates an even-sized weight matrix; kernels need a
	// center cell.
	ErrSizeEven = errors.New("kernel: size must be odd")

	// ErrNotSquare indicates a ragged or rectangular weight matrix.
	ErrNotSquare = errors.New("kernel: weight matrix must be square")

	// ErrBadWeight indicates a negative or non-finite weight.
	ErrBadWeight = errors.New("kernel: weights must be finite and non-negative")

	// ErrNotNormalized indicates weights summing beyond 1, or below 1 for a
	// kernel that must conserve mass.
	ErrNotNormalized = errors.New("kernel: weights must sum to 1.0")

	// ErrBadParam indicates an out-of-range generator parameter.
	ErrBadParam = errors.New("kernel: parameter out of valid bounds")
)
