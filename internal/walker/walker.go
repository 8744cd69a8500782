// Package walker samples random-walk paths from a computed dynamic program.
//
// A path is generated backwards: starting at the requested end cell and time
// step, each predecessor is drawn from the five-point neighborhood weighted
// by the previous step's probability mass, then the path is reversed. The
// result is a plausible trajectory that ends at the given cell.
package walker

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/san-kum/driftgrid/internal/grid"
)

// Domain errors for path generation.
var (
	// ErrNoPath indicates an end cell with zero probability at the requested
	// step; no walk can end there.
	ErrNoPath = errors.New("walker: no path leads to the requested cell")

	// ErrMissingStep indicates history too short for the requested walk; the
	// program must retain a snapshot for every step of the path.
	ErrMissingStep = errors.New("walker: snapshot for step not retained")

	// ErrInconsistent indicates a cell with positive mass whose whole
	// neighborhood was empty one step earlier.
	ErrInconsistent = errors.New("walker: inconsistent distribution, all predecessor weights zero")
)

// Table is the (row, col, step) probability lookup a walker samples from.
// Both dp.Table and storage-backed reloads satisfy it.
type Table interface {
	Rows() int
	Cols() int
	Steps() int
	MassAt(r, c, step int) (float64, bool)
}

// Walker samples paths with a seeded source, so identical seeds reproduce
// identical walks.
type Walker struct {
	rng *rand.Rand
}

func New(seed int64) *Walker {
	return &Walker{rng: rand.New(rand.NewSource(seed))}
}

// Path samples one walk of length steps ending at cell to.
func (w *Walker) Path(t Table, to grid.Coord, steps int) ([]grid.Coord, error) {
	if steps < 0 || steps > t.Steps() {
		return nil, fmt.Errorf("%w: step %d, have %d", ErrMissingStep, steps, t.Steps())
	}

	end, ok := t.MassAt(to.Row, to.Col, steps)
	if !ok {
		return nil, fmt.Errorf("%w: step %d", ErrMissingStep, steps)
	}
	if end == 0 {
		return nil, fmt.Errorf("%w: %v at step %d", ErrNoPath, to, steps)
	}

	path := make([]grid.Coord, 0, steps+1)
	r, c := to.Row, to.Col

	for step := steps; step > 0; step-- {
		path = append(path, grid.Coord{Row: r, Col: c})

		// Candidate predecessors: stay plus the four cardinal neighbors,
		// weighted by their mass one step earlier.
		moves := [5][2]int{{0, 0}, {-1, 0}, {0, 1}, {1, 0}, {0, -1}}
		var weights [5]float64
		total := 0.0
		for i, mv := range moves {
			m, ok := t.MassAt(r+mv[0], c+mv[1], step-1)
			if !ok {
				return nil, fmt.Errorf("%w: step %d", ErrMissingStep, step-1)
			}
			weights[i] = m
			total += m
		}
		if total == 0 {
			return nil, fmt.Errorf("%w: at %v, step %d", ErrInconsistent, grid.Coord{Row: r, Col: c}, step)
		}

		pick := w.rng.Float64() * total
		for i, wt := range weights {
			pick -= wt
			if pick < 0 || i == len(weights)-1 {
				r += moves[i][0]
				c += moves[i][1]
				break
			}
		}
	}

	path = append(path, grid.Coord{Row: r, Col: c})

	// Built backwards; reverse into chronological order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, nil
}

// Paths samples qty independent walks ending at the same cell.
func (w *Walker) Paths(t Table, qty int, to grid.Coord, steps int) ([][]grid.Coord, error) {
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
