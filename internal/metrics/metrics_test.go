package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/driftgrid/internal/grid"
)

func TestTotalMass(t *testing.T) {
	f, _ := grid.NewUniform(2, 2, nil, 0.8)

	m := NewTotalMass()
	m.OnStep(1, f, 0)

	if math.Abs(m.Value()-0.8) > 1e-12 {
		t.Errorf("expected 0.8, got %g", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("reset should zero the metric, got %g", m.Value())
	}
}

func TestPeakMass(t *testing.T) {
	f, _ := grid.New([][]float64{
		{0.1, 0.6},
		{0.2, 0.1},
	}, nil)

	m := NewPeakMass()
	m.OnStep(1, f, 0)

	if m.Value() != 0.6 {
		t.Errorf("expected peak 0.6, got %g", m.Value())
	}
	if m.At() != (grid.Coord{Row: 0, Col: 1}) {
		t.Errorf("expected peak at (0, 1), got %v", m.At())
	}
}

func TestAbsorbed(t *testing.T) {
	f, _ := grid.NewUniform(2, 2, nil, 1.0)

	m := NewAbsorbed()
	m.OnStep(1, f, 0.25)
	m.OnStep(2, f, 0.4)

	if m.Value() != 0.4 {
		t.Errorf("absorbed metric should track the latest cumulative value, got %g", m.Value())
	}
}

func TestEntropy(t *testing.T) {
	point, _ := grid.NewPointMass(4, 4, nil, grid.Coord{Row: 0, Col: 0}, 1.0)
	uniform, _ := grid.NewUniform(4, 4, nil, 1.0)

	m := NewEntropy()

	m.OnStep(1, point, 0)
	if m.Value() != 0 {
		t.Errorf("point mass has zero entropy, got %g", m.Value())
	}

	m.OnStep(2, uniform, 0)
	if math.Abs(m.Value()-4.0) > 1e-9 {
		t.Errorf("uniform over 16 cells should have 4 bits, got %g", m.Value())
	}

	empty, _ := grid.NewUniform(2, 2, nil, 0)
	m.OnStep(3, empty, 1.0)
	if m.Value() != 0 {
		t.Errorf("empty grid has zero entropy, got %g", m.Value())
	}
}
