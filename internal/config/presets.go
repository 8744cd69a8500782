package config

import "sort"

// Presets are ready-made run configurations for common scenarios.
var Presets = map[string]*Config{
	"diffusion-small": {
		Rows: 25, Cols: 25,
		Kernels:    map[int]KernelConfig{0: {Type: "simple"}},
		Initial:    InitialConfig{Kind: "point", Row: 12, Col: 12},
		Boundary:   "reflect",
		Iterations: 100,
		TargetMass: 1.0,
		History:    101,
	},
	"diffusion-wide": {
		Rows: 101, Cols: 101,
		Kernels:    map[int]KernelConfig{0: {Type: "gaussian", Size: 5, Sigma: 1.2}},
		Initial:    InitialConfig{Kind: "point", Row: 50, Col: 50},
		Boundary:   "absorb",
		Iterations: 400,
		TargetMass: 1.0,
	},
	"drift-east": {
		Rows: 51, Cols: 151,
		Kernels:    map[int]KernelConfig{0: {Type: "biased", Direction: "east", Probability: 0.5}},
		Initial:    InitialConfig{Kind: "point", Row: 25, Col: 20},
		Boundary:   "absorb",
		Iterations: 250,
		TargetMass: 1.0,
	},
	"torus": {
		Rows: 41, Cols: 41,
		Kernels:    map[int]KernelConfig{0: {Type: "uniform", Radius: 1}},
		Initial:    InitialConfig{Kind: "point", Row: 0, Col: 0},
		Boundary:   "wrap",
		Iterations: 200,
		Epsilon:    1e-12,
		TargetMass: 1.0,
	},
	"steady-state": {
		Rows: 31, Cols: 31,
		Kernels:    map[int]KernelConfig{0: {Type: "uniform", Radius: 2}},
		Initial:    InitialConfig{Kind: "point", Row: 15, Col: 15},
		Boundary:   "reflect",
		Iterations: 10000,
		Epsilon:    1e-10,
		TargetMass: 1.0,
	},
}

// GetPreset returns a copy of the named preset, or nil if unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	cp.Kernels = make(map[int]KernelConfig, len(p.Kernels))
	for k, v := range p.Kernels {
		cp.Kernels[k] = v
	}
	return &cp
}

// ListPresets returns all preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
