package walker

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/driftgrid/internal/dp"
	"github.com/san-kum/driftgrid/internal/grid"
	"github.com/san-kum/driftgrid/internal/kernel"
)

func headingKernels() []*kernel.Kernel {
	ks := make([]*kernel.Kernel, 5)
	for i := range ks {
		ks[i] = kernel.SimpleWalk()
	}
	return ks
}

func headingTable(t *testing.T, steps, historyCap int) *dp.HeadingTable {
	t.Helper()

	p, err := dp.NewCorrelatedBuilder().
		Size(9, 9).
		SharedKernel(kernel.SimpleWalk()).
		PointMass(4, 4).
		Boundary(grid.Absorb).
		Iterations(steps).
		HistoryCapacity(historyCap).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return p.Table()
}

func TestNewCorrelatedValidation(t *testing.T) {
	if _, err := NewCorrelated(1, headingKernels()[:3]); !errors.Is(err, ErrHeadingKernels) {
		t.Errorf("short kernel list should be rejected, got %v", err)
	}

	ks := headingKernels()
	ks[2] = nil
	if _, err := NewCorrelated(1, ks); !errors.Is(err, ErrHeadingKernels) {
		t.Errorf("nil heading kernel should be rejected, got %v", err)
	}
}

func TestCorrelatedPathEndpoints(t *testing.T) {
	table := headingTable(t, 4, 5)
	w, err := NewCorrelated(42, headingKernels())
	if err != nil {
		t.Fatalf("new correlated failed: %v", err)
	}

	path, err := w.Path(table, grid.Coord{Row: 4, Col: 5}, 4)
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}

	if len(path) != 5 {
		t.Fatalf("expected 5 positions for 4 steps, got %d", len(path))
	}
	if path[len(path)-1] != (grid.Coord{Row: 4, Col: 5}) {
		t.Errorf("path should end at the requested cell, got %v", path[len(path)-1])
	}
	if path[0] != (grid.Coord{Row: 4, Col: 4}) {
		t.Errorf("all mass started at (4, 4), path begins at %v", path[0])
	}
}

func TestCorrelatedPathMovesAreFivePoint(t *testing.T) {
	table := headingTable(t, 5, 6)
	w, err := NewCorrelated(7, headingKernels())
	if err != nil {
		t.Fatalf("new correlated failed: %v", err)
	}

	path, err := w.Path(table, grid.Coord{Row: 3, Col: 4}, 5)
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}

	for i := 1; i < len(path); i++ {
		dr := path[i].Row - path[i-1].Row
		dc := path[i].Col - path[i-1].Col
		if dr*dr+dc*dc > 1 {
			t.Fatalf("move %d jumps from %v to %v", i, path[i-1], path[i])
		}
	}
}

func TestCorrelatedPathIsDeterministicPerSeed(t *testing.T) {
	table := headingTable(t, 4, 5)

	a, err := NewCorrelated(99, headingKernels())
	if err != nil {
		t.Fatalf("new correlated failed: %v", err)
	}
	b, err := NewCorrelated(99, headingKernels())
	if err != nil {
		t.Fatalf("new correlated failed: %v", err)
	}

	p1, err := a.Path(table, grid.Coord{Row: 5, Col: 4}, 4)
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	p2, err := b.Path(table, grid.Coord{Row: 5, Col: 4}, 4)
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}

	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("position %d: %v vs %v", i, p1[i], p2[i])
		}
	}
}

func TestCorrelatedPathRejectsUnreachableCell(t *testing.T) {
	table := headingTable(t, 2, 3)
	w, err := NewCorrelated(1, headingKernels())
	if err != nil {
		t.Fatalf("new correlated failed: %v", err)
	}

	// Two steps cannot carry the walk from the center to a corner.
	if _, err := w.Path(table, grid.Coord{Row: 0, Col: 0}, 2); !errors.Is(err, ErrNoPath) {
		t.Errorf("expected no-path error, got %v", err)
	}
}

func TestCorrelatedPathRejectsMissingHistory(t *testing.T) {
	table := headingTable(t, 3, 4)
	w, err := NewCorrelated(1, headingKernels())
	if err != nil {
		t.Fatalf("new correlated failed: %v", err)
	}

	if _, err := w.Path(table, grid.Coord{Row: 4, Col: 4}, 9); !errors.Is(err, ErrMissingStep) {
		t.Errorf("expected missing-step error, got %v", err)
	}
}

func TestCorrelatedPathRejectsEvictedSnapshots(t *testing.T) {
	// Capacity 2 keeps only the last two snapshots of a 6-step run.
	table := headingTable(t, 6, 2)
	w, err := NewCorrelated(1, headingKernels())
	if err != nil {
		t.Fatalf("new correlated failed: %v", err)
	}

	if _, err := w.Path(table, grid.Coord{Row: 4, Col: 4}, 6); !errors.Is(err, ErrMissingStep) {
		t.Errorf("expected missing-step error for evicted snapshots, got %v", err)
	}
}

func TestCorrelatedPaths(t *testing.T) {
	table := headingTable(t, 4, 5)
	w, err := NewCorrelated(5, headingKernels())
	if err != nil {
		t.Fatalf("new correlated failed: %v", err)
	}

	paths, err := w.Paths(table, 4, grid.Coord{Row: 4, Col: 4}, 4)
	if err != nil {
		t.Fatalf("paths failed: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("expected 4 paths, got %d", len(paths))
	}
	for _, p := range paths {
		if p[len(p)-1] != (grid.Coord{Row: 4, Col: 4}) {
			t.Errorf("path should end at (4, 4), got %v", p[len(p)-1])
		}
	}
}
