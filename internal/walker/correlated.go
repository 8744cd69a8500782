package walker

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/san-kum/driftgrid/internal/grid"
	"github.com/san-kum/driftgrid/internal/kernel"
)

// ErrHeadingKernels indicates a correlated walker built without exactly one
// kernel per heading.
var ErrHeadingKernels = errors.New("walker: one kernel per heading required")

// headingMoves lists the five-point moves in heading order: stay, north,
// east, south, west. Matches dp's heading encoding.
var headingMoves = [5][2]int{{0, 0}, {-1, 0}, {0, 1}, {1, 0}, {0, -1}}

// HeadingTable is the (row, col, heading, step) lookup a correlated walker
// samples from. dp.HeadingTable satisfies it.
type HeadingTable interface {
	Rows() int
	Cols() int
	Steps() int
	MassAt(r, c, heading, step int) (float64, bool)
}

// Correlated samples paths whose consecutive moves are correlated. Each
// backward step conditions on the heading that carried the walk into the
// current cell: the predecessor's heading is drawn from the per-heading mass
// one step earlier, weighted by that heading's kernel evaluated at the move
// just taken.
type Correlated struct {
	rng     *rand.Rand
	kernels [5]*kernel.Kernel
}

// NewCorrelated builds a seeded correlated walker. kernels must hold one
// kernel per heading, in heading order, normally the same table the
// distribution was computed with.
func NewCorrelated(seed int64, kernels []*kernel.Kernel) (*Correlated, error) {
	if len(kernels) != len(headingMoves) {
		return nil, fmt.Errorf("%w: got %d", ErrHeadingKernels, len(kernels))
	}
	w := &Correlated{rng: rand.New(rand.NewSource(seed))}
	for i, k := range kernels {
		if k == nil {
			return nil, fmt.Errorf("%w: heading %d is nil", ErrHeadingKernels, i)
		}
		w.kernels[i] = k
	}
	return w, nil
}

// Path samples one walk of length steps ending at cell to.
func (w *Correlated) Path(t HeadingTable, to grid.Coord, steps int) ([]grid.Coord, error) {
	if steps < 0 || steps > t.Steps() {
		return nil, fmt.Errorf("%w: step %d, have %d", ErrMissingStep, steps, t.Steps())
	}

	// Arrival heading, drawn from the per-heading mass at the end cell.
	var arrival [5]float64
	total := 0.0
	for h := range arrival {
		m, ok := t.MassAt(to.Row, to.Col, h, steps)
		if !ok {
			return nil, fmt.Errorf("%w: step %d", ErrMissingStep, steps)
		}
		arrival[h] = m
		total += m
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: %v at step %d", ErrNoPath, to, steps)
	}
	h := sample(w.rng, arrival[:], total)

	path := make([]grid.Coord, 0, steps+1)
	r, c := to.Row, to.Col

	for step := steps; step > 0; step-- {
		path = append(path, grid.Coord{Row: r, Col: c})

		// The heading fixes the predecessor cell; only the predecessor's own
		// heading is sampled.
		dr, dc := headingMoves[h][0], headingMoves[h][1]
		pr, pc := r-dr, c-dc

		var weights [5]float64
		total = 0.0
		for di := range weights {
			m, ok := t.MassAt(pr, pc, di, step-1)
			if !ok {
				return nil, fmt.Errorf("%w: step %d", ErrMissingStep, step-1)
			}
			weights[di] = m * w.kernels[di].At(dr, dc)
			total += weights[di]
		}
		if total == 0 {
			return nil, fmt.Errorf("%w: at %v, step %d", ErrInconsistent, grid.Coord{Row: r, Col: c}, step)
		}

		h = sample(w.rng, weights[:], total)
		r, c = pr, pc
	}

	path = append(path, grid.Coord{Row: r, Col: c})

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, nil
}

// Paths samples qty independent walks ending at the same cell.
func (w *Correlated) Paths(t HeadingTable, qty int, to grid.Coord, steps int) ([][]grid.Coord, error) {
	paths := make([][]grid.Coord, 0, qty)
	for i := 0; i < qty; i++ {
		p, err := w.Path(t, to, steps)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// sample draws an index proportionally to weights; total is their sum and
// must be positive.
func sample(rng *rand.Rand, weights []float64, total float64) int {
	pick := rng.Float64() * total
	for i, wt := range weights {
		pick -= wt
		if pick < 0 {
			return i
		}
	}
	return len(weights) - 1
}
