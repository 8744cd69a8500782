package kernel

import (
	"fmt"
	"math"
)

// weightTolerance bounds how far a conserving kernel's weight sum may drift
// from 1.0 before construction fails.
const weightTolerance = 1e-9

// Kernel is the transition rule for one field type: an odd-sized square
// matrix of non-negative weights indexed by neighbor offset. Applying a
// kernel scatters a cell's mass to its neighbors in proportion to the
// weights. A conserving kernel's weights sum to exactly 1 (within
// tolerance); an absorbing kernel may sum to less, the difference being the
// fraction of mass it sinks per step.
type Kernel struct {
	size      int
	weights   []float64
	loss      float64
	absorbing bool
	name      string
}

// New builds a strictly mass-conserving kernel from an odd-sized square
// weight matrix.
func New(name string, weights [][]float64) (*Kernel, error) {
	k, err := build(name, weights)
	if err != nil {
		return nil, err
	}
	if k.loss > weightTolerance {
		return nil, fmt.Errorf("%w: weights sum to %v", ErrNotNormalized, 1-k.loss)
	}
	k.loss = 0
	return k, nil
}

// NewAbsorbing builds a kernel whose weights may sum to less than 1; the
// remainder is absorbed mass.
func NewAbsorbing(name string, weights [][]float64) (*Kernel, error) {
	k, err := build(name, weights)
	if err != nil {
		return nil, err
	}
	k.absorbing = true
	return k, nil
}

func build(name string, weights [][]float64) (*Kernel, error) {
	size := len(weights)
	if size == 0 {
		return nil, ErrEmpty
	}
	if size%2 == 0 {
		return nil, fmt.Errorf("%w: size %d", ErrSizeEven, size)
	}

	k := &Kernel{
		size:    size,
		weights: make([]float64, size*size),
		name:    name,
	}

	sum := 0.0
	for i, row := range weights {
		if len(row) != size {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrNotSquare, i, len(row), size)
		}
		for j, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: weight at [%d][%d]", ErrBadWeight, i, j)
			}
			if w < 0 {
				return nil, fmt.Errorf("%w: negative weight at [%d][%d]", ErrBadWeight, i, j)
			}
			k.weights[i*size+j] = w
			sum += w
		}
	}

	if sum > 1+weightTolerance {
		return nil, fmt.Errorf("%w: weights sum to %v", ErrNotNormalized, sum)
	}
	k.loss = 1 - sum
	if k.loss < 0 {
		k.loss = 0
	}

	return k, nil
}

// Size returns the side length of the weight matrix.
func (k *Kernel) Size() int { return k.size }

// Radius returns the neighbor reach of the kernel.
func (k *Kernel) Radius() int { return k.size / 2 }

// At returns the weight for the relative offset (dr, dc). Offsets outside
// the kernel have weight zero.
func (k *Kernel) At(dr, dc int) float64 {
	rad := k.size / 2
	if dr < -rad || dr > rad || dc < -rad || dc > rad {
		return 0
	}
	return k.weights[(dr+rad)*k.size+(dc+rad)]
}

// Absorbing reports whether the kernel sinks part of the mass it receives.
func (k *Kernel) Absorbing() bool { return k.absorbing }

// Loss returns the fraction of mass absorbed per application. Zero for
// conserving kernels.
func (k *Kernel) Loss() float64 { return k.loss }

func (k *Kernel) Name() string { return k.name }

func (k *Kernel) String() string {
	return fmt.Sprintf("kernel %q (size %d)", k.name, k.size)
}
