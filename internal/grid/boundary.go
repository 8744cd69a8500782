package grid

import "fmt"

// Boundary governs what happens to mass directed outside the grid.
type Boundary int

const (
	// Absorb drops the mass; the dynamic program tracks the absorbed total.
	Absorb Boundary = iota
	// Reflect redirects the mass back along the mirrored offset.
	Reflect
	// Wrap treats the grid as a torus.
	Wrap
)

func (b Boundary) String() string {
	switch b {
	case Absorb:
		return "absorb"
	case Reflect:
		return "reflect"
	case Wrap:
		return "wrap"
	}
	return fmt.Sprintf("Boundary(%d)", int(b))
}

// ParseBoundary maps a policy name to its Boundary value.
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "absorb":
		return Absorb, nil
	case "reflect":
		return Reflect, nil
	case "wrap":
		return Wrap, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBoundary, s)
}

// MirrorIndex folds an out-of-range index back into [0, n) by reflecting it
// about the border cells as often as needed, so an offset of -1 from row 0
// lands on row 1. In-range indices pass through.
func MirrorIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*(n-1) - i
		}
	}
	return i
}

// WrapIndex folds an out-of-range index into [0, n) toroidally.
func WrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
