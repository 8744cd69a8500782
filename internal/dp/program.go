package dp

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/driftgrid/internal/compute"
	"github.com/san-kum/driftgrid/internal/grid"
	"github.com/san-kum/driftgrid/internal/kernel"
)

// MassTolerance bounds how far the grid's total mass may drift from the
// conservation target before a step is aborted.
const MassTolerance = 1e-9

// State tracks a program's position in its lifecycle.
type State int

const (
	// StateBuilt means validated, zero steps taken.
	StateBuilt State = iota
	// StateStepping means at least one step committed, target not reached.
	StateStepping
	// StateComplete means the iteration budget was consumed or the
	// convergence epsilon was satisfied. Further step requests are no-ops.
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateStepping:
		return "stepping"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// Observer is notified after every committed step with read-only access to
// the freshly published field.
type Observer interface {
	OnStep(step int, f *grid.Field, absorbed float64)
}

// DynamicProgram advances one grid through discrete time steps, scattering
// each cell's mass to its neighbors according to the kernel bound to the
// cell's field type. The grid is double buffered: a step reads the immutable
// committed state and writes a disjoint next buffer, which is published only
// after the whole step verified mass conservation. A step therefore either
// fully commits or does not advance at all.
type DynamicProgram struct {
	field   *grid.Field
	kernels [256]*kernel.Kernel
	policy  grid.Boundary
	exec    *compute.Executor

	// scratch is the next-state buffer; locals are per-worker accumulation
	// buffers merged in worker order so results do not depend on scheduling.
	scratch   []float64
	locals    [][]float64
	localLoss []float64

	steps      int
	iterations int     // 0 means epsilon-only termination
	epsilon    float64 // 0 means iteration-only termination
	state      State
	converged  bool
	absorbed   float64

	history   *history
	observers []Observer
}

// Steps returns the number of committed steps.
func (p *DynamicProgram) Steps() int { return p.steps }

// State returns the lifecycle state.
func (p *DynamicProgram) State() State { return p.state }

// Converged reports whether the program stopped because the per-cell change
// fell below the configured epsilon rather than by exhausting iterations.
func (p *DynamicProgram) Converged() bool { return p.converged }

// AbsorbedMass returns the total mass lost to absorbing boundaries and
// absorbing kernels so far.
func (p *DynamicProgram) AbsorbedMass() float64 { return p.absorbed }

// Rows returns the grid height.
func (p *DynamicProgram) Rows() int { return p.field.Rows() }

// Cols returns the grid width.
func (p *DynamicProgram) Cols() int { return p.field.Cols() }

// MassAt returns the committed mass at (r, c).
func (p *DynamicProgram) MassAt(r, c int) (float64, error) {
	return p.field.MassAt(r, c)
}

// Distribution returns the committed distribution as a row-major matrix.
func (p *DynamicProgram) Distribution() [][]float64 {
	return p.field.Distribution()
}

// Field returns a copy of the committed field. The program keeps exclusive
// ownership of its own buffers.
func (p *DynamicProgram) Field() *grid.Field {
	return p.field.Clone()
}

// History returns the retained snapshots, oldest first. Empty unless a
// history capacity was configured.
func (p *DynamicProgram) History() []Snapshot {
	if p.history == nil {
		return nil
	}
	return p.history.snapshots()
}

// Run steps the program until it completes. The context is consulted only
// between steps, so cancellation always leaves the program at its last
// fully committed, mass-consistent state.
func (p *DynamicProgram) Run(ctx context.Context) error {
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

// Step advances the grid by one time step. Once the program is complete,
// further calls are no-ops returning nil, so repeated queries stay
// idempotent.
func (p *DynamicProgram) Step() error {
	if p.state == StateComplete {
		return nil
	}

	rows := p.field.Rows()
	cols := p.field.Cols()
	prev := p.field.Mass()
	types := p.field.Types()
	prevTotal := p.field.Total()

	for w := range p.locals {
		clear(p.locals[w])
		p.localLoss[w] = 0
	}

	// Scatter phase: workers own disjoint source row ranges and write into
	// private full-grid buffers, reading the committed state freely across
	// chunk boundaries.
	failures := p.exec.Map(rows, func(w, start, end int) error {
		return p.scatterRows(w, start, end, prev, types, rows, cols)
	})
	if len(failures) > 0 {
		return stepError(p.steps+1, failures)
	}

	// Merge phase: each destination cell is written by exactly one worker.
	// Local buffers are added in worker order, which equals ascending source
	// row order, so the result is independent of how many workers ran or in
	// which order their chunks finished.
	failures = p.exec.Map(rows*cols, func(_, start, end int) error {
		for i := start; i < end; i++ {
			sum := 0.0
			for w := range p.locals {
				sum += p.locals[w][i]
			}
			p.scratch[i] = sum
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

	// Verify before publishing. A violated invariant aborts the step and
	// leaves the committed state untouched.
	total := 0.0
	for i, v := range p.scratch {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &NumericError{
				Step: p.steps + 1,
				Cell: grid.Coord{Row: i / cols, Col: i % cols},
				Got:  v,
				Msg:  "non-finite or negative mass",
			}
		}
		total += v
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

	// Publish: swap buffers and commit.
	maxDelta := grid.MaxDelta(prev, p.scratch)
	copy(prev, p.scratch)
	p.absorbed += stepLoss
	p.steps++
	p.state = StateStepping

	if p.history != nil {
		p.history.push(p.steps, p.field)
	}
	for _, o := range p.observers {
		o.OnStep(p.steps, p.field, p.absorbed)
	}

	if p.epsilon > 0 && maxDelta < p.epsilon {
		p.state = StateComplete
		p.converged = true
	}
	if p.iterations > 0 && p.steps >= p.iterations {
		p.state = StateComplete
	}

	return nil
}

// scatterRows distributes the mass of every source cell in [start, end) into
// worker w's private buffer, applying the boundary policy to contributions
// leaving the grid.
func (p *DynamicProgram) scatterRows(w, start, end int, prev []float64, types []grid.FieldType, rows, cols int) error {
	local := p.locals[w]
	loss := 0.0

	for r := start; r < end; r++ {
		for c := 0; c < cols; c++ {
			m := prev[r*cols+c]
			if m == 0 {
				continue
			}
			if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
				return &NumericError{
					Step: p.steps + 1,
					Cell: grid.Coord{Row: r, Col: c},
					Got:  m,
					Msg:  "non-finite or negative source mass",
				}
			}

			k := p.kernels[types[r*cols+c]]
			rad := k.Radius()

			for dr := -rad; dr <= rad; dr++ {
				for dc := -rad; dc <= rad; dc++ {
					wgt := k.At(dr, dc)
					if wgt == 0 {
						continue
					}

					nr, nc := r+dr, c+dc
					if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
						switch p.policy {
						case grid.Absorb:
							loss += m * wgt
							continue
						case grid.Reflect:
							nr = grid.MirrorIndex(nr, rows)
							nc = grid.MirrorIndex(nc, cols)
						case grid.Wrap:
							nr = grid.WrapIndex(nr, rows)
							nc = grid.WrapIndex(nc, cols)
						}
					}
					local[nr*cols+nc] += m * wgt
				}
			}

			if k.Absorbing() {
				loss += m * k.Loss()
			}
		}
	}

	p.localLoss[w] = loss
	return nil
}

// stepError folds worker failures into the step-level error taxonomy. A
// numeric fault from any worker dominates, since it names the root cause;
// anything else is an aggregated execution failure.
func stepError(step int, failures []error) error {
	for _, err := range failures {
		var numErr *NumericError
		if errors.As(err, &numErr) {
			return numErr
		}
	}
	return &ExecutionError{Step: step, Failures: failures}
}
