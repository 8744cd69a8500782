package dp

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/driftgrid/internal/compute"
	"github.com/san-kum/driftgrid/internal/grid"
	"github.com/san-kum/driftgrid/internal/kernel"
)

// Heading labels the move that carried mass into a cell: staying put or one
// step toward a cardinal neighbor. Rows grow southward, columns eastward.
type Heading int

const (
	HeadingStay Heading = iota
	HeadingNorth
	HeadingEast
	HeadingSouth
	HeadingWest

	// NumHeadings is the size of the heading state space.
	NumHeadings = 5
)

var headingOffsets = [NumHeadings][2]int{
	{0, 0}, {-1, 0}, {0, 1}, {1, 0}, {0, -1},
}

func (h Heading) String() string {
	switch h {
	case HeadingStay:
		return "stay"
	case HeadingNorth:
		return "north"
	case HeadingEast:
		return "east"
	case HeadingSouth:
		return "south"
	case HeadingWest:
		return "west"
	}
	return fmt.Sprintf("Heading(%d)", int(h))
}

// Offset returns the (dr, dc) displacement of one step along h.
func (h Heading) Offset() (dr, dc int) {
	return headingOffsets[h][0], headingOffsets[h][1]
}

func oppositeHeading(h Heading) Heading {
	switch h {
	case HeadingNorth:
		return HeadingSouth
	case HeadingSouth:
		return HeadingNorth
	case HeadingEast:
		return HeadingWest
	case HeadingWest:
		return HeadingEast
	}
	return HeadingStay
}

// Correlated advances a random walk whose next move depends on the last one.
// The state space is (cell, heading): each heading keeps its own mass buffer,
// and the kernel bound to a heading redistributes mass that arrived moving
// that way. Binding forward-biased kernels yields persistent, drift-like
// walks; binding the same kernel to every heading degenerates to the plain
// memoryless program.
//
// Kernels are restricted to the five-point neighborhood so every nonzero
// offset names exactly one destination heading.
type Correlated struct {
	rows, cols int
	kernels    [NumHeadings]*kernel.Kernel
	policy     grid.Boundary
	exec       *compute.Executor

	// masses[h] is the committed row-major buffer for heading h; scratch is
	// the next-state counterpart. locals are per-worker accumulators merged
	// in worker order, as in DynamicProgram.
	masses    [NumHeadings][]float64
	scratch   [NumHeadings][]float64
	locals    [][NumHeadings][]float64
	localLoss []float64

	steps      int
	iterations int
	state      State
	absorbed   float64

	history *history
}

// CorrelatedBuilder assembles a validated Correlated program.
type CorrelatedBuilder struct {
	rows, cols int
	kernels    [NumHeadings]*kernel.Kernel
	pointAt    grid.Coord
	policy     grid.Boundary
	iterations int
	workers    int
	historyCap int
}

// NewCorrelatedBuilder returns a builder with an absorbing boundary and a
// point mass at the origin.
func NewCorrelatedBuilder() *CorrelatedBuilder {
	return &CorrelatedBuilder{}
}

// Size sets the grid dimensions.
func (b *CorrelatedBuilder) Size(rows, cols int) *CorrelatedBuilder {
	b.rows, b.cols = rows, cols
	return b
}

// HeadingKernel binds a kernel to mass that arrived moving along h.
func (b *CorrelatedBuilder) HeadingKernel(h Heading, k *kernel.Kernel) *CorrelatedBuilder {
	if h >= 0 && h < NumHeadings {
		b.kernels[h] = k
	}
	return b
}

// SharedKernel binds the same kernel to every heading, removing the
// correlation between consecutive moves.
func (b *CorrelatedBuilder) SharedKernel(k *kernel.Kernel) *CorrelatedBuilder {
	for h := range b.kernels {
		b.kernels[h] = k
	}
	return b
}

// PointMass places the unit starting mass, with a stay heading, in one cell.
func (b *CorrelatedBuilder) PointMass(row, col int) *CorrelatedBuilder {
	b.pointAt = grid.Coord{Row: row, Col: col}
	return b
}

// Boundary sets the policy for mass directed outside the grid. A reflecting
// boundary also reverses the heading of the bounced mass.
func (b *CorrelatedBuilder) Boundary(policy grid.Boundary) *CorrelatedBuilder {
	b.policy = policy
	return b
}

// Iterations sets the step budget.
func (b *CorrelatedBuilder) Iterations(n int) *CorrelatedBuilder {
	b.iterations = n
	return b
}

// Parallelism sets the worker count. Zero selects one worker per CPU.
func (b *CorrelatedBuilder) Parallelism(workers int) *CorrelatedBuilder {
	b.workers = workers
	return b
}

// HistoryCapacity bounds how many per-step snapshots the program retains.
// Zero disables history.
func (b *CorrelatedBuilder) HistoryCapacity(n int) *CorrelatedBuilder {
	b.historyCap = n
	return b
}

// Build validates the configuration and returns a ready-to-run program.
func (b *CorrelatedBuilder) Build() (*Correlated, error) {
	if b.rows <= 0 || b.cols <= 0 {
		return nil, ErrNoGrid
	}
	if b.iterations <= 0 {
		return nil, ErrNoTermination
	}
	if b.pointAt.Row < 0 || b.pointAt.Row >= b.rows || b.pointAt.Col < 0 || b.pointAt.Col >= b.cols {
		return nil, fmt.Errorf("%w: start %v outside %dx%d grid", ErrInvalidDistribution, b.pointAt, b.rows, b.cols)
	}
	for h, k := range b.kernels {
		if k == nil {
			return nil, fmt.Errorf("%w: heading %s has no kernel", ErrBadHeading, Heading(h))
		}
		if err := checkFivePoint(k); err != nil {
			return nil, fmt.Errorf("%w: heading %s kernel %s", err, Heading(h), k.Name())
		}
	}

	exec := compute.NewExecutor(b.workers)
	cells := b.rows * b.cols

	p := &Correlated{
		rows:       b.rows,
		cols:       b.cols,
		kernels:    b.kernels,
		policy:     b.policy,
		exec:       exec,
		locals:     make([][NumHeadings][]float64, exec.Workers()),
		localLoss:  make([]float64, exec.Workers()),
		iterations: b.iterations,
	}
	for h := 0; h < NumHeadings; h++ {
		p.masses[h] = make([]float64, cells)
		p.scratch[h] = make([]float64, cells)
	}
	for w := range p.locals {
		for h := 0; h < NumHeadings; h++ {
			p.locals[w][h] = make([]float64, cells)
		}
	}
	p.masses[HeadingStay][b.pointAt.Row*b.cols+b.pointAt.Col] = 1.0

	if b.historyCap > 0 {
		p.history = newHistory(b.historyCap)
		p.history.pushMass(0, p.packed())
	}

	return p, nil
}

// checkFivePoint rejects kernels placing weight outside the stay-or-cardinal
// move set.
func checkFivePoint(k *kernel.Kernel) error {
	rad := k.Radius()
	for dr := -rad; dr <= rad; dr++ {
		for dc := -rad; dc <= rad; dc++ {
			if k.At(dr, dc) == 0 {
				continue
			}
			if _, ok := headingOf(dr, dc); !ok {
				return ErrBadHeading
			}
		}
	}
	return nil
}

// headingOf classifies a five-point offset; ok is false for any other offset.
func headingOf(dr, dc int) (Heading, bool) {
	for h, off := range headingOffsets {
		if off[0] == dr && off[1] == dc {
			return Heading(h), true
		}
	}
	return HeadingStay, false
}

// Steps returns the number of committed steps.
func (p *Correlated) Steps() int { return p.steps }

// State returns the lifecycle state.
func (p *Correlated) State() State { return p.state }

// AbsorbedMass returns the total mass lost to absorbing boundaries and
// absorbing kernels so far.
func (p *Correlated) AbsorbedMass() float64 { return p.absorbed }

// Rows returns the grid height.
func (p *Correlated) Rows() int { return p.rows }

// Cols returns the grid width.
func (p *Correlated) Cols() int { return p.cols }

// MassAt returns the committed mass at (r, c) for heading h.
func (p *Correlated) MassAt(r, c int, h Heading) (float64, error) {
	if r < 0 || r >= p.rows || c < 0 || c >= p.cols || h < 0 || h >= NumHeadings {
		return 0, fmt.Errorf("%w: (%d, %d, %s)", grid.ErrOutOfBounds, r, c, h)
	}
	return p.masses[h][r*p.cols+c], nil
}

// Distribution sums the per-heading buffers into the committed cell
// occupation probabilities, as a row-major matrix.
func (p *Correlated) Distribution() [][]float64 {
	out := make([][]float64, p.rows)
	for r := range out {
		out[r] = make([]float64, p.cols)
		for c := 0; c < p.cols; c++ {
			for h := 0; h < NumHeadings; h++ {
				out[r][c] += p.masses[h][r*p.cols+c]
			}
		}
	}
	return out
}

// Run steps the program until its iteration budget is consumed. The context
// is consulted only between steps.
func (p *Correlated) Run(ctx context.Context) error {
	for p.state != StateComplete {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step advances every heading buffer by one time step. Completed programs
// treat further calls as no-ops.
func (p *Correlated) Step() error {
	if p.state == StateComplete {
		return nil
	}

	prevTotal := p.total()

	for w := range p.locals {
		for h := 0; h < NumHeadings; h++ {
			clear(p.locals[w][h])
		}
		p.localLoss[w] = 0
	}

	failures := p.exec.Map(p.rows, func(w, start, end int) error {
		return p.scatterHeadings(w, start, end)
	})
	if len(failures) > 0 {
		return stepError(p.steps+1, failures)
	}

	// Merge in worker order so the result does not depend on scheduling.
	failures = p.exec.Map(p.rows*p.cols, func(_, start, end int) error {
		for i := start; i < end; i++ {
			for h := 0; h < NumHeadings; h++ {
				sum := 0.0
				for w := range p.locals {
					sum += p.locals[w][h][i]
				}
				p.scratch[h][i] = sum
			}
		}
		return nil
	})
	if len(failures) > 0 {
		return stepError(p.steps+1, failures)
	}

	stepLoss := 0.0
	for _, l := range p.localLoss {
		stepLoss += l
	}

	total := 0.0
	for h := 0; h < NumHeadings; h++ {
		for i, v := range p.scratch[h] {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return &NumericError{
					Step: p.steps + 1,
					Cell: grid.Coord{Row: i / p.cols, Col: i % p.cols},
					Got:  v,
					Msg:  fmt.Sprintf("non-finite or negative mass, heading %s", Heading(h)),
				}
			}
			total += v
		}
	}
	if math.Abs(total+stepLoss-prevTotal) > MassTolerance {
		return &NumericError{
			Step: p.steps + 1,
			Cell: grid.Coord{Row: -1, Col: -1},
			Got:  total + stepLoss,
			Want: prevTotal,
			Msg:  "mass conservation violated",
		}
	}

	for h := 0; h < NumHeadings; h++ {
		copy(p.masses[h], p.scratch[h])
	}
	p.absorbed += stepLoss
	p.steps++
	p.state = StateStepping

	if p.history != nil {
		p.history.pushMass(p.steps, p.packed())
	}

	if p.steps >= p.iterations {
		p.state = StateComplete
	}

	return nil
}

// scatterHeadings distributes the mass of every (cell, heading) source state
// in rows [start, end) into worker w's private buffers. The destination
// heading is the move that carried the mass there, so the heading kernels
// couple consecutive moves.
func (p *Correlated) scatterHeadings(w, start, end int) error {
	local := &p.locals[w]
	loss := 0.0

	for h := 0; h < NumHeadings; h++ {
		k := p.kernels[h]
		src := p.masses[h]

		for r := start; r < end; r++ {
			for c := 0; c < p.cols; c++ {
				m := src[r*p.cols+c]
				if m == 0 {
					continue
				}
				if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
					return &NumericError{
						Step: p.steps + 1,
						Cell: grid.Coord{Row: r, Col: c},
						Got:  m,
						Msg:  fmt.Sprintf("non-finite or negative source mass, heading %s", Heading(h)),
					}
				}

				for mv := Heading(0); mv < NumHeadings; mv++ {
					dr, dc := mv.Offset()
					wgt := k.At(dr, dc)
					if wgt == 0 {
						continue
					}

					dst := mv
					nr, nc := r+dr, c+dc
					if nr < 0 || nr >= p.rows || nc < 0 || nc >= p.cols {
						switch p.policy {
						case grid.Absorb:
							loss += m * wgt
							continue
						case grid.Reflect:
							nr = grid.MirrorIndex(nr, p.rows)
							nc = grid.MirrorIndex(nc, p.cols)
							dst = oppositeHeading(mv)
						case grid.Wrap:
							nr = grid.WrapIndex(nr, p.rows)
							nc = grid.WrapIndex(nc, p.cols)
						}
					}
					local[dst][nr*p.cols+nc] += m * wgt
				}

				if k.Absorbing() {
					loss += m * k.Loss()
				}
			}
		}
	}

	p.localLoss[w] = loss
	return nil
}

// total sums the committed mass over every heading buffer.
func (p *Correlated) total() float64 {
	sum := 0.0
	for h := 0; h < NumHeadings; h++ {
		for _, v := range p.masses[h] {
			sum += v
		}
	}
	return sum
}

// packed lays the heading buffers out heading-major in one slice, the
// snapshot format HeadingTable reads back.
func (p *Correlated) packed() []float64 {
	cells := p.rows * p.cols
	out := make([]float64, NumHeadings*cells)
	for h := 0; h < NumHeadings; h++ {
		copy(out[h*cells:(h+1)*cells], p.masses[h])
	}
	return out
}

// HeadingTable exposes retained per-heading snapshots as a
// (row, col, heading, step) lookup for correlated path sampling.
type HeadingTable struct {
	rows, cols int
	steps      int
	byStep     map[int][]float64 // heading-major
}

// Table builds a heading lookup over all retained snapshots.
func (p *Correlated) Table() *HeadingTable {
	t := &HeadingTable{
		rows:   p.rows,
		cols:   p.cols,
		steps:  p.steps,
		byStep: make(map[int][]float64),
	}
	if p.history != nil {
		for _, s := range p.history.snapshots() {
			t.byStep[s.Step] = s.Mass
		}
	}
	return t
}

func (t *HeadingTable) Rows() int  { return t.rows }
func (t *HeadingTable) Cols() int  { return t.cols }
func (t *HeadingTable) Steps() int { return t.steps }

// MassAt returns the mass at (r, c) for the given heading after the given
// committed step. Coordinates outside the grid report zero mass with
// ok=true; missing steps report ok=false.
func (t *HeadingTable) MassAt(r, c, heading, step int) (float64, bool) {
	mass, retained := t.byStep[step]
	if !retained {
		return 0, false
	}
	if r < 0 || r >= t.rows || c < 0 || c >= t.cols || heading < 0 || heading >= NumHeadings {
		return 0, true
	}
	return mass[heading*t.rows*t.cols+r*t.cols+c], true
}
