package dp

import (
	"fmt"
	"math"

	"github.com/san-kum/driftgrid/internal/compute"
	"github.com/san-kum/driftgrid/internal/grid"
	"github.com/san-kum/driftgrid/internal/kernel"
)

type initialKind int

const (
	initialUniform initialKind = iota
	initialPoint
	initialMatrix
)

// Builder assembles a validated, ready-to-run DynamicProgram. All
// configuration faults surface from Build; a program that builds never fails
// validation mid-simulation.
type Builder struct {
	rows, cols int
	types      [][]grid.FieldType
	kernels    map[grid.FieldType]*kernel.Kernel

	initial    initialKind
	pointAt    grid.Coord
	matrix     [][]float64
	targetMass float64

	policy     grid.Boundary
	iterations int
	epsilon    float64
	workers    int
	historyCap int
	observers  []Observer
}

// NewBuilder returns a builder with a unit target mass, an absorbing
// boundary, and a uniform initial distribution.
func NewBuilder() *Builder {
	return &Builder{
		kernels:    make(map[grid.FieldType]*kernel.Kernel),
		targetMass: 1.0,
	}
}

// Size sets the grid dimensions. Every cell gets FieldType 0 unless a
// terrain matrix is also given.
func (b *Builder) Size(rows, cols int) *Builder {
	b.rows, b.cols = rows, cols
	return b
}

// Terrain sets the row-major field-type matrix and, with it, the grid
// dimensions.
func (b *Builder) Terrain(types [][]grid.FieldType) *Builder {
	b.types = types
	if len(types) > 0 {
		b.rows = len(types)
		b.cols = len(types[0])
	}
	return b
}

// FieldKernels binds each field type to its kernel.
func (b *Builder) FieldKernels(kernels map[grid.FieldType]*kernel.Kernel) *Builder {
	for ft, k := range kernels {
		b.kernels[ft] = k
	}
	return b
}

// Kernel binds a single kernel to field type 0, the common case for
// homogeneous grids.
func (b *Builder) Kernel(k *kernel.Kernel) *Builder {
	b.kernels[0] = k
	return b
}

// UniformDistribution spreads the target mass equally over all cells.
func (b *Builder) UniformDistribution() *Builder {
	b.initial = initialUniform
	return b
}

// PointMass concentrates the target mass in a single cell.
func (b *Builder) PointMass(row, col int) *Builder {
	b.initial = initialPoint
	b.pointAt = grid.Coord{Row: row, Col: col}
	return b
}

// Distribution sets an explicit row-major initial mass matrix. It must sum
// to the target mass within tolerance.
func (b *Builder) Distribution(mass [][]float64) *Builder {
	b.initial = initialMatrix
	b.matrix = mass
	return b
}

// TargetMass overrides the conservation target, normally 1.0.
func (b *Builder) TargetMass(total float64) *Builder {
	b.targetMass = total
	return b
}

// Boundary sets the policy for mass directed outside the grid.
func (b *Builder) Boundary(policy grid.Boundary) *Builder {
	b.policy = policy
	return b
}

// Iterations sets the step budget.
func (b *Builder) Iterations(n int) *Builder {
	b.iterations = n
	return b
}

// ConvergenceEpsilon enables early termination once the largest per-cell
// mass change between consecutive steps falls below e.
func (b *Builder) ConvergenceEpsilon(e float64) *Builder {
	b.epsilon = e
	return b
}

// Parallelism sets the worker count. Zero selects one worker per CPU.
func (b *Builder) Parallelism(workers int) *Builder {
	b.workers = workers
	return b
}

// HistoryCapacity bounds how many per-step snapshots the program retains.
// Zero disables history.
func (b *Builder) HistoryCapacity(n int) *Builder {
	b.historyCap = n
	return b
}

// Observer registers a per-step observer, e.g. a metric.
func (b *Builder) Observer(o Observer) *Builder {
	b.observers = append(b.observers, o)
	return b
}

// Build validates the configuration and returns an immutable, ready-to-run
// program.
func (b *Builder) Build() (*DynamicProgram, error) {
	if b.rows <= 0 || b.cols <= 0 {
		return nil, ErrNoGrid
	}
	if len(b.kernels) == 0 {
		return nil, ErrNoKernels
	}
	if b.iterations <= 0 && b.epsilon <= 0 {
		return nil, ErrNoTermination
	}
	if b.iterations < 0 {
		return nil, fmt.Errorf("%w: negative iteration count %d", ErrNoTermination, b.iterations)
	}
	if b.epsilon < 0 || math.IsNaN(b.epsilon) {
		return nil, fmt.Errorf("%w: invalid epsilon %v", ErrNoTermination, b.epsilon)
	}
	if b.targetMass <= 0 || math.IsNaN(b.targetMass) || math.IsInf(b.targetMass, 0) {
		return nil, fmt.Errorf("%w: target mass %v", ErrInvalidDistribution, b.targetMass)
	}

	field, err := b.buildField()
	if err != nil {
		return nil, err
	}

	if math.Abs(field.Total()-b.targetMass) > MassTolerance {
		return nil, fmt.Errorf("%w: sums to %v, want %v", ErrInvalidDistribution, field.Total(), b.targetMass)
	}

	// Every field type present anywhere in the grid must have a kernel.
	var table [256]*kernel.Kernel
	for _, ft := range field.FieldTypes() {
		k, ok := b.kernels[ft]
		if !ok {
			return nil, fmt.Errorf("%w: field type %d", ErrMissingKernel, ft)
		}
		table[ft] = k
	}

	exec := compute.NewExecutor(b.workers)
	cells := field.Rows() * field.Cols()

	p := &DynamicProgram{
		field:      field,
		kernels:    table,
		policy:     b.policy,
		exec:       exec,
		scratch:    make([]float64, cells),
		locals:     make([][]float64, exec.Workers()),
		localLoss:  make([]float64, exec.Workers()),
		iterations: b.iterations,
		epsilon:    b.epsilon,
		observers:  b.observers,
	}
	for w := range p.locals {
		p.locals[w] = make([]float64, cells)
	}

	if b.historyCap > 0 {
		p.history = newHistory(b.historyCap)
		p.history.push(0, field)
	}

	return p, nil
}

func (b *Builder) buildField() (*grid.Field, error) {
	switch b.initial {
	case initialPoint:
		return grid.NewPointMass(b.rows, b.cols, b.types, b.pointAt, b.targetMass)
	case initialMatrix:
		f, err := grid.New(b.matrix, b.types)
		if err != nil {
			return nil, err
		}
		if f.Rows() != b.rows || f.Cols() != b.cols {
			return nil, fmt.Errorf("%w: matrix is %dx%d, grid is %dx%d",
				ErrInvalidDistribution, f.Rows(), f.Cols(), b.rows, b.cols)
		}
		return f, nil
	default:
		return grid.NewUniform(b.rows, b.cols, b.types, b.targetMass)
	}
}
