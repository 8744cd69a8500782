package walker

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/san-kum/driftgrid/internal/grid"
	"github.com/san-kum/driftgrid/internal/kernel"
)

// Land-cover walker errors.
var (
	// ErrBadTerrain indicates an empty or ragged terrain matrix.
	ErrBadTerrain = errors.New("walker: terrain must be non-empty and rectangular")

	// ErrNoTerrainKernel indicates a field type present in the terrain
	// without a kernel to sample moves from.
	ErrNoTerrainKernel = errors.New("walker: terrain field type has no kernel")
)

// LandCover samples paths over heterogeneous terrain. Each backward step
// looks up the current cell's field type and samples the predecessor from
// that type's kernel neighborhood, so a walk crosses open ground in wide
// jumps and crawls through dense cover, following the same kernels the
// distribution was computed with.
type LandCover struct {
	rng     *rand.Rand
	types   [][]grid.FieldType
	kernels map[grid.FieldType]*kernel.Kernel
	maxStep map[grid.FieldType]int
}

// NewLandCover builds a seeded terrain-aware walker. Every field type in
// types needs a kernel; maxStep optionally tightens a type's reach below its
// kernel radius and may be nil.
func NewLandCover(seed int64, types [][]grid.FieldType, kernels map[grid.FieldType]*kernel.Kernel, maxStep map[grid.FieldType]int) (*LandCover, error) {
	if len(types) == 0 || len(types[0]) == 0 {
		return nil, ErrBadTerrain
	}
	cols := len(types[0])
	for _, row := range types {
		if len(row) != cols {
			return nil, ErrBadTerrain
		}
		for _, ft := range row {
			if kernels[ft] == nil {
				return nil, fmt.Errorf("%w: field type %d", ErrNoTerrainKernel, ft)
			}
		}
	}

	return &LandCover{
		rng:     rand.New(rand.NewSource(seed)),
		types:   types,
		kernels: kernels,
		maxStep: maxStep,
	}, nil
}

// reach returns how far a walk may have jumped into a cell of field type ft.
func (w *LandCover) reach(ft grid.FieldType) int {
	s := w.kernels[ft].Radius()
	if ms, ok := w.maxStep[ft]; ok && ms < s {
		s = ms
	}
	return s
}

// Path samples one walk of length steps ending at cell to.
func (w *LandCover) Path(t Table, to grid.Coord, steps int) ([]grid.Coord, error) {
	if steps < 0 || steps > t.Steps() {
		return nil, fmt.Errorf("%w: step %d, have %d", ErrMissingStep, steps, t.Steps())
	}
	if to.Row < 0 || to.Row >= len(w.types) || to.Col < 0 || to.Col >= len(w.types[0]) {
		return nil, fmt.Errorf("walker: %w: %v", grid.ErrOutOfBounds, to)
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

		// The current cell's terrain decides how far the last jump could
		// have come from; candidates are weighted by their mass one step
		// earlier and the kernel weight of the jump.
		k := w.kernels[w.types[r][c]]
		s := w.reach(w.types[r][c])

		side := 2*s + 1
		weights := make([]float64, side*side)
		total := 0.0
		for dr := -s; dr <= s; dr++ {
			for dc := -s; dc <= s; dc++ {
				m, ok := t.MassAt(r+dr, c+dc, step-1)
				if !ok {
					return nil, fmt.Errorf("%w: step %d", ErrMissingStep, step-1)
				}
				wt := m * k.At(-dr, -dc)
				weights[(dr+s)*side+(dc+s)] = wt
				total += wt
			}
		}
		if total == 0 {
			return nil, fmt.Errorf("%w: at %v, step %d", ErrInconsistent, grid.Coord{Row: r, Col: c}, step)
		}

		i := sample(w.rng, weights, total)
		r += i/side - s
		c += i%side - s
	}

	path = append(path, grid.Coord{Row: r, Col: c})

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, nil
}

// Paths samples qty independent walks ending at the same cell.
func (w *LandCover) Paths(t Table, qty int, to grid.Coord, steps int) ([][]grid.Coord, error) {
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
