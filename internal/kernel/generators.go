package kernel

import (
	"fmt"
	"math"
)

// Direction names a cardinal neighbor. Rows grow southward, columns grow
// eastward.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection maps a direction name to its Direction value.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "north":
		return North, nil
	case "east":
		return East, nil
	case "south":
		return South, nil
	case "west":
		return West, nil
	}
	return 0, fmt.Errorf("%w: unknown direction %q", ErrBadParam, s)
}

func (d Direction) offset() (dr, dc int) {
	switch d {
	case North:
		return -1, 0
	case East:
		return 0, 1
	case South:
		return 1, 0
	default:
		return 0, -1
	}
}

// Identity keeps all mass in place.
func Identity() *Kernel {
	k, _ := New("identity", [][]float64{{1}})
	return k
}

// SimpleWalk is the classic five-point random walk: equal probability of
// staying put or moving to one of the four cardinal neighbors.
func SimpleWalk() *Kernel {
	const p = 0.2
	k, _ := New("simple", [][]float64{
		{0, p, 0},
		{p, p, p},
		{0, p, 0},
	})
	return k
}

// Uniform spreads mass equally over the full (2r+1)x(2r+1) neighborhood,
// including the center.
func Uniform(radius int) (*Kernel, error) {
	if radius < 0 {
		return nil, fmt.Errorf("%w: radius %d", ErrBadParam, radius)
	}

	size := 2*radius + 1
	w := float64(1) / float64(size*size)
	weights := make([][]float64, size)
	for i := range weights {
		weights[i] = make([]float64, size)
		for j := range weights[i] {
			weights[i][j] = w
		}
	}

	return New(fmt.Sprintf("uniform-%d", radius), weights)
}

// Biased sends probability p toward one cardinal direction and splits the
// remainder equally over the other four five-point moves.
func Biased(dir Direction, p float64) (*Kernel, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: probability %v", ErrBadParam, p)
	}

	rest := (1 - p) / 4
	weights := [][]float64{
		{0, rest, 0},
		{rest, rest, rest},
		{0, rest, 0},
	}

	dr, dc := dir.offset()
	weights[dr+1][dc+1] = p

	return New(fmt.Sprintf("biased-%s", dir), weights)
}

// Gaussian builds an isotropic normal diffusion kernel of the given odd size
// and standard deviation, normalized to conserve mass.
func Gaussian(size int, sigma float64) (*Kernel, error) {
	weights, err := gaussianWeights(size, sigma)
	if err != nil {
		return nil, err
	}
	normalize(weights)
	return New(fmt.Sprintf("gaussian-%d", size), weights)
}

// Side names the half of a half-gaussian kernel that keeps its weights.
type Side int

const (
	Left Side = iota
	Right
	Top
	Bottom
)

// HalfGaussian builds a gaussian kernel with one half zeroed out, producing
// a drift toward the kept side. Used to model directional pull such as
// downhill drainage or prevailing current.
func HalfGaussian(size int, sigma float64, side Side) (*Kernel, error) {
	weights, err := gaussianWeights(size, sigma)
	if err != nil {
		return nil, err
	}

	// The center row/column and its immediate neighbor stay on both halves
	// so the kernel never strands mass on a knife edge.
	mid := size / 2
	for i := range weights {
		for j := range weights[i] {
			switch side {
			case Left:
				if j > mid+1 {
					weights[i][j] = 0
				}
			case Right:
				if j < mid-1 {
					weights[i][j] = 0
				}
			case Top:
				if i > mid+1 {
					weights[i][j] = 0
				}
			case Bottom:
				if i < mid-1 {
					weights[i][j] = 0
				}
			}
		}
	}

	normalize(weights)
	return New(fmt.Sprintf("half-gaussian-%d", size), weights)
}

// Terminal sinks all mass that enters its cells. Models impassable or
// trapping terrain under an absorbing policy.
func Terminal() *Kernel {
	k, _ := NewAbsorbing("terminal", [][]float64{{0}})
	return k
}

// Damped scales a conserving kernel's weights by keep (0 < keep <= 1) and
// absorbs the rest, modeling partially trapping terrain.
func Damped(base *Kernel, keep float64) (*Kernel, error) {
	if keep <= 0 || keep > 1 {
		return nil, fmt.Errorf("%w: keep fraction %v", ErrBadParam, keep)
	}

	size := base.Size()
	rad := base.Radius()
	weights := make([][]float64, size)
	for i := range weights {
		weights[i] = make([]float64, size)
		for j := range weights[i] {
			weights[i][j] = base.At(i-rad, j-rad) * keep
		}
	}

	return NewAbsorbing(fmt.Sprintf("damped-%s", base.Name()), weights)
}

func gaussianWeights(size int, sigma float64) ([][]float64, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: size %d", ErrSizeEven, size)
	}
	if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: sigma %v", ErrBadParam, sigma)
	}

	mid := size / 2
	weights := make([][]float64, size)
	for i := range weights {
		weights[i] = make([]float64, size)
		for j := range weights[i] {
			dr := float64(i - mid)
			dc := float64(j - mid)
			weights[i][j] = math.Exp(-(dr*dr + dc*dc) / (2 * sigma * sigma))
		}
	}
	return weights, nil
}

func normalize(weights [][]float64) {
	sum := 0.0
	for _, row := range weights {
		for _, w := range row {
			sum += w
		}
	}
	if sum == 0 {
		return
	}
	for i := range weights {
		for j := range weights[i] {
			weights[i][j] /= sum
		}
	}
}
