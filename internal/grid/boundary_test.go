package grid

import (
	"errors"
	"testing"
)

func TestParseBoundary(t *testing.T) {
	tests := []struct {
		in   string
		want Boundary
	}{
		{"absorb", Absorb},
		{"reflect", Reflect},
		{"wrap", Wrap},
	}

	for _, tt := range tests {
		got, err := ParseBoundary(tt.in)
		if err != nil {
			t.Errorf("ParseBoundary(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseBoundary(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got.String() != tt.in {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), tt.in)
		}
	}

	if _, err := ParseBoundary("bounce"); !errors.Is(err, ErrUnknownBoundary) {
		t.Errorf("expected unknown boundary error, got %v", err)
	}
}

func TestMirrorIndex(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{0, 5, 0},
		{4, 5, 4},
		{-1, 1, 0},
		{3, 1, 0},
		{-5, 3, 1}, // folds more than once
	}

	for _, tt := range tests {
		if got := MirrorIndex(tt.i, tt.n); got != tt.want {
			t.Errorf("MirrorIndex(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestWrapIndex(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{-1, 5, 4},
		{5, 5, 0},
		{6, 5, 1},
		{0, 5, 0},
		{-6, 5, 4},
	}

	for _, tt := range tests {
		if got := WrapIndex(tt.i, tt.n); got != tt.want {
			t.Errorf("WrapIndex(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}
