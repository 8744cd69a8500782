package dp

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/driftgrid/internal/grid"
	"github.com/san-kum/driftgrid/internal/kernel"
)

func twin(t *testing.T) *DynamicProgram {
	t.Helper()
	return mustBuild(t, NewBuilder().
		Size(5, 5).
		Kernel(kernel.SimpleWalk()).
		PointMass(2, 2).
		Boundary(grid.Reflect).
		Iterations(6))
}

func TestNewMultiValidation(t *testing.T) {
	if _, err := NewMulti(nil, MergeSum, nil); !errors.Is(err, ErrNoPrograms) {
		t.Errorf("expected no-programs error, got %v", err)
	}

	small := mustBuild(t, NewBuilder().
		Size(3, 3).
		Kernel(kernel.SimpleWalk()).
		PointMass(1, 1).
		Boundary(grid.Reflect).
		Iterations(6))
	if _, err := NewMulti([]*DynamicProgram{twin(t), small}, MergeSum, nil); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected shape mismatch, got %v", err)
	}

	longer := mustBuild(t, NewBuilder().
		Size(5, 5).
		Kernel(kernel.SimpleWalk()).
		PointMass(2, 2).
		Boundary(grid.Reflect).
		Iterations(9))
	if _, err := NewMulti([]*DynamicProgram{twin(t), longer}, MergeSum, nil); !errors.Is(err, ErrTerminationMismatch) {
		t.Errorf("differing iteration budgets should be rejected, got %v", err)
	}

	epsOnly := mustBuild(t, NewBuilder().
		Size(5, 5).
		Kernel(kernel.SimpleWalk()).
		PointMass(2, 2).
		Boundary(grid.Reflect).
		Iterations(6).
		ConvergenceEpsilon(1e-6))
	if _, err := NewMulti([]*DynamicProgram{twin(t), epsOnly}, MergeSum, nil); !errors.Is(err, ErrTerminationMismatch) {
		t.Errorf("differing epsilons should be rejected, got %v", err)
	}

	ps := []*DynamicProgram{twin(t), twin(t)}
	if _, err := NewMulti(ps, MergeWeighted, []float64{1.0}); !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("expected weight count error, got %v", err)
	}
	if _, err := NewMulti(ps, MergeWeighted, []float64{0.7, 0.7}); !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("expected weight sum error, got %v", err)
	}
	if _, err := NewMulti(ps, MergeWeighted, []float64{1.5, -0.5}); !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("expected negative weight error, got %v", err)
	}
	if _, err := NewMulti(ps, MergeSum, []float64{0.5, 0.5}); !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("weights on a sum merge should be rejected, got %v", err)
	}
}

func TestWeightedMergeOfTwinsIsIdentity(t *testing.T) {
	a, b := twin(t), twin(t)
	m, err := NewMulti([]*DynamicProgram{a, b}, MergeWeighted, []float64{0.5, 0.5})
	if err != nil {
		t.Fatalf("new multi failed: %v", err)
	}

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	merged, err := m.Merged()
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	single := a.Distribution()
	for r := range single {
		for c := range single[r] {
			if math.Abs(merged[r][c]-single[r][c]) > 1e-12 {
				t.Fatalf("averaging identical programs should be identity at (%d, %d): %g vs %g",
					r, c, merged[r][c], single[r][c])
			}
		}
	}
}

func TestSumMergeAddsMass(t *testing.T) {
	m, err := NewMulti([]*DynamicProgram{twin(t), twin(t)}, MergeSum, nil)
	if err != nil {
		t.Fatalf("new multi failed: %v", err)
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	merged, err := m.Merged()
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if got := totalOf(merged); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("sum of two unit programs should total 2, got %g", got)
	}
}

func TestMaxMergePicksLargerCell(t *testing.T) {
	eastK, eastErr := kernel.Biased(kernel.East, 0.8)
	east := mustBuild(t, NewBuilder().
		Size(5, 5).
		Kernel(mustKernel(t, eastK, eastErr)).
		PointMass(2, 2).
		Boundary(grid.Reflect).
		Iterations(2))
	westK, westErr := kernel.Biased(kernel.West, 0.8)
	west := mustBuild(t, NewBuilder().
		Size(5, 5).
		Kernel(mustKernel(t, westK, westErr)).
		PointMass(2, 2).
		Boundary(grid.Reflect).
		Iterations(2))

	m, err := NewMulti([]*DynamicProgram{east, west}, MergeMax, nil)
	if err != nil {
		t.Fatalf("new multi failed: %v", err)
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	merged, err := m.Merged()
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	de := east.Distribution()
	dw := west.Distribution()
	for r := range merged {
		for c := range merged[r] {
			want := de[r][c]
			if dw[r][c] > want {
				want = dw[r][c]
			}
			if merged[r][c] != want {
				t.Fatalf("max merge wrong at (%d, %d): got %g, want %g", r, c, merged[r][c], want)
			}
		}
	}
}

func TestMergedRejectsStepMismatch(t *testing.T) {
	m, err := NewMulti([]*DynamicProgram{twin(t), twin(t)}, MergeSum, nil)
	if err != nil {
		t.Fatalf("new multi failed: %v", err)
	}

	if err := m.Programs()[0].Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	if _, err := m.Merged(); !errors.Is(err, ErrStepMismatch) {
		t.Errorf("expected step mismatch, got %v", err)
	}
}

func TestMultiStepAdvancesAllMembers(t *testing.T) {
	m, err := NewMulti([]*DynamicProgram{twin(t), twin(t), twin(t)}, MergeSum, nil)
	if err != nil {
		t.Fatalf("new multi failed: %v", err)
	}

	if err := m.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	for i, p := range m.Programs() {
		if p.Steps() != 1 {
			t.Errorf("program %d at step %d, want 1", i, p.Steps())
		}
	}
}

func mustKernel(t *testing.T, k *kernel.Kernel, err error) *kernel.Kernel {
	t.Helper()
	if err != nil {
		t.Fatalf("kernel failed: %v", err)
	}
	return k
}
