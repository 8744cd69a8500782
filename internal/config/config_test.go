package config

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/driftgrid/internal/grid"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Rows != DefaultRows || cfg.Cols != DefaultCols {
		t.Errorf("expected %dx%d default grid, got %dx%d", DefaultRows, DefaultCols, cfg.Rows, cfg.Cols)
	}
	if cfg.Boundary != "reflect" {
		t.Errorf("expected reflect default boundary, got %q", cfg.Boundary)
	}

	kernels, err := cfg.BuildKernels()
	if err != nil {
		t.Fatalf("default kernels should build: %v", err)
	}
	if _, ok := kernels[0]; !ok {
		t.Error("default config should bind field type 0")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Rows = 40
	cfg.Cols = 60
	cfg.Epsilon = 1e-8
	cfg.Kernels[1] = KernelConfig{Type: "biased", Direction: "east", Probability: 0.4}
	cfg.Geo = &GeoConfig{OriginLat: 52.5, OriginLon: 13.4, CellSize: 100}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if got.Rows != 40 || got.Cols != 60 {
		t.Errorf("expected 40x60, got %dx%d", got.Rows, got.Cols)
	}
	if got.Epsilon != 1e-8 {
		t.Errorf("expected epsilon 1e-8, got %g", got.Epsilon)
	}
	if got.Kernels[1].Direction != "east" {
		t.Errorf("kernel config lost in round trip: %+v", got.Kernels[1])
	}
	if got.Geo == nil || got.Geo.CellSize != 100 {
		t.Errorf("geo config lost in round trip: %+v", got.Geo)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestKernelConfigBuild(t *testing.T) {
	tests := []struct {
		name string
		kc   KernelConfig
		ok   bool
	}{
		{"identity", KernelConfig{Type: "identity"}, true},
		{"simple", KernelConfig{Type: "simple"}, true},
		{"default is simple", KernelConfig{}, true},
		{"uniform", KernelConfig{Type: "uniform", Radius: 2}, true},
		{"biased", KernelConfig{Type: "biased", Direction: "north", Probability: 0.5}, true},
		{"gaussian", KernelConfig{Type: "gaussian", Size: 5, Sigma: 1.0}, true},
		{"half gaussian", KernelConfig{Type: "half_gaussian", Size: 5, Sigma: 1.0, Side: "right"}, true},
		{"terminal", KernelConfig{Type: "terminal"}, true},
		{"unknown type", KernelConfig{Type: "warp"}, false},
		{"bad direction", KernelConfig{Type: "biased", Direction: "up", Probability: 0.5}, false},
		{"bad side", KernelConfig{Type: "half_gaussian", Size: 5, Sigma: 1.0, Side: "middle"}, false},
		{"bad sigma", KernelConfig{Type: "gaussian", Size: 5, Sigma: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.kc.Build()
			if tt.ok && err != nil {
				t.Errorf("expected success, got %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected failure")
			}
		})
	}
}

func TestKernelConfigDamping(t *testing.T) {
	k, err := KernelConfig{Type: "simple", Keep: 0.75}.Build()
	if err != nil {
		t.Fatalf("damped build failed: %v", err)
	}
	if !k.Absorbing() {
		t.Error("keep < 1 should produce an absorbing kernel")
	}
	if math.Abs(k.Loss()-0.25) > 1e-9 {
		t.Errorf("expected loss 0.25, got %g", k.Loss())
	}

	plain, err := KernelConfig{Type: "simple", Keep: 1}.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if plain.Absorbing() {
		t.Error("keep of 1 should leave the kernel conserving")
	}
}

func TestBuildKernelsRejectsBadTag(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kernels[300] = KernelConfig{Type: "simple"}
	if _, err := cfg.BuildKernels(); err == nil {
		t.Error("tag above 255 should fail")
	}
}

func TestBuildKernelsKeysByFieldType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kernels[3] = KernelConfig{Type: "terminal"}

	kernels, err := cfg.BuildKernels()
	if err != nil {
		t.Fatalf("build kernels failed: %v", err)
	}

	k, ok := kernels[grid.FieldType(3)]
	if !ok {
		t.Fatal("expected kernel for field type 3")
	}
	if !k.Absorbing() {
		t.Error("expected the terminal kernel for tag 3")
	}
}

func TestPresetsBuild(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %q vanished", name)
		}
		if _, err := cfg.BuildKernels(); err != nil {
			t.Errorf("preset %q kernels should build: %v", name, err)
		}
		if cfg.Iterations <= 0 && cfg.Epsilon <= 0 {
			t.Errorf("preset %q has no termination condition", name)
		}
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	a := GetPreset("torus")
	if a == nil {
		t.Fatal("torus preset missing")
	}
	a.Rows = 9999
	a.Kernels[0] = KernelConfig{Type: "identity"}

	b := GetPreset("torus")
	if b.Rows == 9999 {
		t.Error("preset copy shares struct with caller")
	}
	if b.Kernels[0].Type == "identity" {
		t.Error("preset copy shares kernel map with caller")
	}
}

func TestGetPresetUnknown(t *testing.T) {
	if GetPreset("nope") != nil {
		t.Error("unknown preset should be nil")
	}
}
