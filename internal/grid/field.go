package grid

import (
	"fmt"
	"math"
)

// FieldType is a closed tag identifying the terrain or medium category of a
// cell. Kernel selection inside a dynamic program is a dense table lookup
// keyed by FieldType.
type FieldType uint8

// Coord addresses a cell by row and column.
type Coord struct {
	Row int
	Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// Field is a fixed-size 2D array of cells, each carrying a FieldType and a
// non-negative probability mass. Masses are stored row-major. A Field is
// exclusively owned by the dynamic program stepping it; readers get copies.
type Field struct {
	rows  int
	cols  int
	mass  []float64
	types []FieldType
}

// New constructs a field from an explicit row-major mass matrix. The types
// matrix may be nil, in which case every cell has FieldType 0. Both matrices
// must be rectangular and match the given dimensions.
func New(mass [][]float64, types [][]FieldType) (*Field, error) {
	if len(mass) == 0 || len(mass[0]) == 0 {
		return nil, ErrEmpty
	}

	rows := len(mass)
	cols := len(mass[0])

	f, err := newEmpty(rows, cols, types)
	if err != nil {
		return nil, err
	}

	for r, row := range mass {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrRagged, r, len(row), cols)
		}
		for c, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: mass at %v is %v", ErrBadMass, Coord{r, c}, v)
			}
			if v < 0 {
				return nil, fmt.Errorf("%w: mass at %v is negative", ErrBadMass, Coord{r, c})
			}
			f.mass[r*cols+c] = v
		}
	}

	return f, nil
}

// NewUniform constructs a field with the total mass spread equally over all
// cells.
func NewUniform(rows, cols int, types [][]FieldType, total float64) (*Field, error) {
	f, err := newEmpty(rows, cols, types)
	if err != nil {
		return nil, err
	}

	per := total / float64(rows*cols)
	for i := range f.mass {
		f.mass[i] = per
	}

	return f, nil
}

// NewPointMass constructs a field with the total mass concentrated in a
// single cell and zero everywhere else.
func NewPointMass(rows, cols int, types [][]FieldType, at Coord, total float64) (*Field, error) {
	f, err := newEmpty(rows, cols, types)
	if err != nil {
		return nil, err
	}
	if !f.InBounds(at.Row, at.Col) {
		return nil, fmt.Errorf("%w: point mass at %v outside %dx%d grid", ErrOutOfBounds, at, rows, cols)
	}

	f.mass[at.Row*cols+at.Col] = total

	return f, nil
}

func newEmpty(rows, cols int, types [][]FieldType) (*Field, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrEmpty
	}

	f := &Field{
		rows:  rows,
		cols:  cols,
		mass:  make([]float64, rows*cols),
		types: make([]FieldType, rows*cols),
	}

	if types == nil {
		return f, nil
	}

	if len(types) != rows {
		return nil, fmt.Errorf("%w: type matrix has %d rows, want %d", ErrRagged, len(types), rows)
	}
	for r, row := range types {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: type row %d has %d columns, want %d", ErrRagged, r, len(row), cols)
		}
		copy(f.types[r*cols:(r+1)*cols], row)
	}

	return f, nil
}

func (f *Field) Rows() int { return f.rows }
func (f *Field) Cols() int { return f.cols }

// InBounds reports whether (r, c) addresses a cell of the field.
func (f *Field) InBounds(r, c int) bool {
	return r >= 0 && r < f.rows && c >= 0 && c < f.cols
}

// MassAt returns the probability mass of cell (r, c). Out-of-bounds access
// is a caller bug and is reported, not clamped.
func (f *Field) MassAt(r, c int) (float64, error) {
	if !f.InBounds(r, c) {
		return 0, fmt.Errorf("%w: %v in %dx%d grid", ErrOutOfBounds, Coord{r, c}, f.rows, f.cols)
	}
	return f.mass[r*f.cols+c], nil
}

// TypeAt returns the FieldType of cell (r, c).
func (f *Field) TypeAt(r, c int) (FieldType, error) {
	if !f.InBounds(r, c) {
		return 0, fmt.Errorf("%w: %v in %dx%d grid", ErrOutOfBounds, Coord{r, c}, f.rows, f.cols)
	}
	return f.types[r*f.cols+c], nil
}

// Mass returns the raw row-major mass buffer. The buffer is shared, not
// copied; it must be treated as read-only by everyone but the owning
// dynamic program.
func (f *Field) Mass() []float64 { return f.mass }

// Types returns the raw row-major type buffer, read-only.
func (f *Field) Types() []FieldType { return f.types }

// FieldTypes returns the set of field types present anywhere in the grid.
func (f *Field) FieldTypes() []FieldType {
	var seen [256]bool
	for _, ft := range f.types {
		seen[ft] = true
	}

	var out []FieldType
	for ft, ok := range seen {
		if ok {
			out = append(out, FieldType(ft))
		}
	}
	return out
}

// Total returns the summed mass over all cells.
func (f *Field) Total() float64 {
	sum := 0.0
	for _, v := range f.mass {
		sum += v
	}
	return sum
}

// Peak returns the largest cell mass and its coordinate.
func (f *Field) Peak() (Coord, float64) {
	best := 0
	for i, v := range f.mass {
		if v > f.mass[best] {
			best = i
		}
	}
	return Coord{best / f.cols, best % f.cols}, f.mass[best]
}

// MaxDelta returns the largest absolute per-cell difference between two
// same-sized mass buffers. Used for convergence checks.
func MaxDelta(a, b []float64) float64 {
	max := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > max {
			max = d
		}
	}
	return max
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	c := &Field{
		rows:  f.rows,
		cols:  f.cols,
		mass:  make([]float64, len(f.mass)),
		types: make([]FieldType, len(f.types)),
	}
	copy(c.mass, f.mass)
	copy(c.types, f.types)
	return c
}

// Distribution returns the masses as a freshly allocated row-major matrix.
func (f *Field) Distribution() [][]float64 {
	out := make([][]float64, f.rows)
	for r := 0; r < f.rows; r++ {
		out[r] = make([]float64, f.cols)
		copy(out[r], f.mass[r*f.cols:(r+1)*f.cols])
	}
	return out
}
