package dp

import "github.com/san-kum/driftgrid/internal/grid"

// Snapshot is a retained copy of the grid's mass after a committed step.
// Step 0 is the initial distribution.
type Snapshot struct {
	Step int
	Mass []float64 // row-major
}

// history is a bounded ring buffer of snapshots. The oldest snapshot is
// discarded on overflow, keeping memory use flat for long simulations.
type history struct {
	buf   []Snapshot
	head  int
	count int
}

func newHistory(capacity int) *history {
	return &history{buf: make([]Snapshot, capacity)}
}

func (h *history) push(step int, f *grid.Field) {
	h.pushMass(step, f.Mass())
}

func (h *history) pushMass(step int, src []float64) {
	mass := make([]float64, len(src))
	copy(mass, src)

	idx := (h.head + h.count) % len(h.buf)
	if h.count == len(h.buf) {
		idx = h.head
		h.head = (h.head + 1) % len(h.buf)
	} else {
		h.count++
	}
	h.buf[idx] = Snapshot{Step: step, Mass: mass}
}

func (h *history) snapshots() []Snapshot {
	out := make([]Snapshot, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}

// Table exposes the retained history as a (row, col, step) lookup for path
// sampling. The second return of MassAt reports whether the step is still
// retained.
type Table struct {
	rows, cols int
	steps      int
	byStep     map[int][]float64
}

// Table builds a history lookup over all retained snapshots.
func (p *DynamicProgram) Table() *Table {
	t := &Table{
		rows:   p.field.Rows(),
		cols:   p.field.Cols(),
		steps:  p.steps,
		byStep: make(map[int][]float64),
	}
	for _, s := range p.History() {
		t.byStep[s.Step] = s.Mass
	}
	return t
}

// NewTable builds a lookup from externally loaded snapshot layers, e.g. a
// run reloaded from disk.
func NewTable(rows, cols int, snapshots []Snapshot) *Table {
	t := &Table{
		rows:   rows,
		cols:   cols,
		byStep: make(map[int][]float64),
	}
	for _, s := range snapshots {
		t.byStep[s.Step] = s.Mass
		if s.Step > t.steps {
			t.steps = s.Step
		}
	}
	return t
}

func (t *Table) Rows() int  { return t.rows }
func (t *Table) Cols() int  { return t.cols }
func (t *Table) Steps() int { return t.steps }

// MassAt returns the mass at (r, c) after the given committed step.
// Coordinates outside the grid report zero mass with ok=true, since a walk
// can probe past the edge; missing steps report ok=false.
func (t *Table) MassAt(r, c, step int) (float64, bool) {
	mass, retained := t.byStep[step]
	if !retained {
		return 0, false
	}
	if r < 0 || r >= t.rows || c < 0 || c >= t.cols {
		return 0, true
	}
	return mass[r*t.cols+c], true
}
