package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/driftgrid/internal/grid"
	"github.com/san-kum/driftgrid/internal/kernel"
)

const (
	DefaultRows       = 25
	DefaultCols       = 25
	DefaultIterations = 100
	DefaultTargetMass = 1.0
	DefaultHistory    = 0
)

// Config describes one simulation run.
type Config struct {
	Terrain    string                `yaml:"terrain,omitempty"` // CSV path; empty means homogeneous type 0
	Rows       int                   `yaml:"rows"`
	Cols       int                   `yaml:"cols"`
	Kernels    map[int]KernelConfig  `yaml:"kernels"` // keyed by field type tag
	Initial    InitialConfig         `yaml:"initial"`
	Boundary   string                `yaml:"boundary"`
	Iterations int                   `yaml:"iterations"`
	Epsilon    float64               `yaml:"epsilon,omitempty"`
	Workers    int                   `yaml:"workers,omitempty"`
	History    int                   `yaml:"history,omitempty"`
	TargetMass float64               `yaml:"target_mass,omitempty"`
	Seed       int64                 `yaml:"seed,omitempty"`
	Geo        *GeoConfig            `yaml:"geo,omitempty"`
}

// KernelConfig describes one field type's kernel.
type KernelConfig struct {
	Type        string  `yaml:"type"` // identity | simple | uniform | biased | gaussian | half_gaussian | terminal
	Radius      int     `yaml:"radius,omitempty"`
	Size        int     `yaml:"size,omitempty"`
	Sigma       float64 `yaml:"sigma,omitempty"`
	Direction   string  `yaml:"direction,omitempty"`
	Probability float64 `yaml:"probability,omitempty"`
	Side        string  `yaml:"side,omitempty"`
	Keep        float64 `yaml:"keep,omitempty"` // damping fraction; 1 disables
}

// InitialConfig describes the initial distribution.
type InitialConfig struct {
	Kind string `yaml:"kind"` // uniform | point
	Row  int    `yaml:"row,omitempty"`
	Col  int    `yaml:"col,omitempty"`
}

// GeoConfig anchors the grid on the globe for presentation output.
type GeoConfig struct {
	OriginLat float64 `yaml:"origin_lat"`
	OriginLon float64 `yaml:"origin_lon"`
	CellSize  float64 `yaml:"cell_size"` // meters
}

func DefaultConfig() *Config {
	return &Config{
		Rows: DefaultRows,
		Cols: DefaultCols,
		Kernels: map[int]KernelConfig{
			0: {Type: "simple"},
		},
		Initial:    InitialConfig{Kind: "point", Row: DefaultRows / 2, Col: DefaultCols / 2},
		Boundary:   "reflect",
		Iterations: DefaultIterations,
		TargetMass: DefaultTargetMass,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BuildKernels materializes the configured kernel table.
func (c *Config) BuildKernels() (map[grid.FieldType]*kernel.Kernel, error) {
	out := make(map[grid.FieldType]*kernel.Kernel, len(c.Kernels))
	for tag, kc := range c.Kernels {
		if tag < 0 || tag > 255 {
			return nil, fmt.Errorf("config: field type tag %d out of range", tag)
		}
		k, err := kc.Build()
		if err != nil {
			return nil, fmt.Errorf("config: kernel for field type %d: %w", tag, err)
		}
		out[grid.FieldType(tag)] = k
	}
	return out, nil
}

// Build materializes a single kernel description.
func (kc KernelConfig) Build() (*kernel.Kernel, error) {
	var (
		k   *kernel.Kernel
		err error
	)

	switch kc.Type {
	case "identity":
		k = kernel.Identity()
	case "simple", "":
		k = kernel.SimpleWalk()
	case "uniform":
		k, err = kernel.Uniform(kc.Radius)
	case "biased":
		dir, derr := kernel.ParseDirection(kc.Direction)
		if derr != nil {
			return nil, derr
		}
		k, err = kernel.Biased(dir, kc.Probability)
	case "gaussian":
		k, err = kernel.Gaussian(kc.Size, kc.Sigma)
	case "half_gaussian":
		side, serr := parseSide(kc.Side)
		if serr != nil {
			return nil, serr
		}
		k, err = kernel.HalfGaussian(kc.Size, kc.Sigma, side)
	case "terminal":
		k = kernel.Terminal()
	default:
		return nil, fmt.Errorf("config: unknown kernel type %q", kc.Type)
	}
	if err != nil {
		return nil, err
	}

	if kc.Keep > 0 && kc.Keep < 1 {
		return kernel.Damped(k, kc.Keep)
	}
	return k, nil
}

func parseSide(s string) (kernel.Side, error) {
	switch s {
	case "left":
		return kernel.Left, nil
	case "right":
		return kernel.Right, nil
	case "top":
		return kernel.Top, nil
	case "bottom":
		return kernel.Bottom, nil
	}
	return 0, fmt.Errorf("config: unknown side %q", s)
}
