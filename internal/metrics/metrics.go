// Package metrics provides per-step observers for dynamic programs.
package metrics

import (
	"math"

	"github.com/san-kum/driftgrid/internal/grid"
)

// Metric observes committed steps and reduces them to a single value. All
// metrics satisfy dp.Observer.
type Metric interface {
	Name() string
	OnStep(step int, f *grid.Field, absorbed float64)
	Value() float64
	Reset()
}

// TotalMass tracks the grid's summed mass after the latest step.
type TotalMass struct {
	total float64
}

func NewTotalMass() *TotalMass { return &TotalMass{} }

func (m *TotalMass) Name() string { return "total_mass" }

func (m *TotalMass) OnStep(_ int, f *grid.Field, _ float64) {
	m.total = f.Total()
}

func (m *TotalMass) Value() float64 { return m.total }
func (m *TotalMass) Reset()         { m.total = 0 }

// PeakMass tracks the largest cell mass seen after the latest step.
type PeakMass struct {
	peak float64
	at   grid.Coord
}

func NewPeakMass() *PeakMass { return &PeakMass{} }

func (m *PeakMass) Name() string { return "peak_mass" }

func (m *PeakMass) OnStep(_ int, f *grid.Field, _ float64) {
	m.at, m.peak = f.Peak()
}

func (m *PeakMass) Value() float64 { return m.peak }

// At returns the coordinate of the latest peak.
func (m *PeakMass) At() grid.Coord { return m.at }

func (m *PeakMass) Reset() {
	m.peak = 0
	m.at = grid.Coord{}
}

// Absorbed tracks the cumulative absorbed mass.
type Absorbed struct {
	absorbed float64
}

func NewAbsorbed() *Absorbed { return &Absorbed{} }

func (m *Absorbed) Name() string { return "absorbed_mass" }

func (m *Absorbed) OnStep(_ int, _ *grid.Field, absorbed float64) {
	m.absorbed = absorbed
}

func (m *Absorbed) Value() float64 { return m.absorbed }
func (m *Absorbed) Reset()         { m.absorbed = 0 }

// Entropy tracks the Shannon entropy of the distribution, a measure of how
// spread out the probability mass is.
type Entropy struct {
	entropy float64
}

func NewEntropy() *Entropy { return &Entropy{} }

func (m *Entropy) Name() string { return "entropy" }

func (m *Entropy) OnStep(_ int, f *grid.Field, _ float64) {
	total := f.Total()
	if total == 0 {
		m.entropy = 0
		return
	}

	h := 0.0
	for _, v := range f.Mass() {
		if v <= 0 {
			continue
		}
		p := v / total
		h -= p * math.Log2(p)
	}
	m.entropy = h
}

func (m *Entropy) Value() float64 { return m.entropy }
func (m *Entropy) Reset()         { m.entropy = 0 }
