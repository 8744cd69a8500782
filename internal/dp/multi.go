package dp

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// MergeStrategy selects how a Multi combines member distributions.
type MergeStrategy int

const (
	// MergeSum adds distributions cell-wise without normalization.
	MergeSum MergeStrategy = iota
	// MergeMax takes the cell-wise maximum.
	MergeMax
	// MergeWeighted takes the weighted average; weights must sum to 1.0.
	MergeWeighted
)

func (s MergeStrategy) String() string {
	switch s {
	case MergeSum:
		return "sum"
	case MergeMax:
		return "max"
	case MergeWeighted:
		return "weighted-average"
	}
	return fmt.Sprintf("MergeStrategy(%d)", int(s))
}

// Multi drives an ordered collection of dynamic programs in lockstep and
// merges their distributions. Members share no mutable state, so they step
// fully in parallel with each other as well as internally.
type Multi struct {
	programs []*DynamicProgram
	strategy MergeStrategy
	weights  []float64
}

// NewMulti validates the member programs and merge configuration. Weights
// are required for MergeWeighted and rejected otherwise.
func NewMulti(programs []*DynamicProgram, strategy MergeStrategy, weights []float64) (*Multi, error) {
	if len(programs) == 0 {
		return nil, ErrNoPrograms
	}

	rows, cols := programs[0].Rows(), programs[0].Cols()
	iters, eps := programs[0].iterations, programs[0].epsilon
	for i, p := range programs[1:] {
		if p.Rows() != rows || p.Cols() != cols {
			return nil, fmt.Errorf("%w: program %d is %dx%d, program 0 is %dx%d",
				ErrShapeMismatch, i+1, p.Rows(), p.Cols(), rows, cols)
		}
		// Members run in lockstep; differing termination targets would let
		// Run drive them to different step counts and poison every Merged.
		if p.iterations != iters || p.epsilon != eps {
			return nil, fmt.Errorf("%w: program %d targets (%d iterations, epsilon %v), program 0 targets (%d, %v)",
				ErrTerminationMismatch, i+1, p.iterations, p.epsilon, iters, eps)
		}
	}

	switch strategy {
	case MergeWeighted:
		if len(weights) != len(programs) {
			return nil, fmt.Errorf("%w: %d weights for %d programs", ErrInvalidWeights, len(weights), len(programs))
		}
		sum := 0.0
		for _, w := range weights {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: weight %v", ErrInvalidWeights, w)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > MassTolerance {
			return nil, fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, sum)
		}
	default:
		if len(weights) != 0 {
			return nil, fmt.Errorf("%w: weights only apply to weighted-average", ErrInvalidWeights)
		}
	}

	return &Multi{programs: programs, strategy: strategy, weights: weights}, nil
}

// Programs returns the ordered member programs.
func (m *Multi) Programs() []*DynamicProgram { return m.programs }

// Step advances every member by one step, concurrently, and waits for all of
// them. If any member fails, the others still finish their step; failures
// are aggregated.
func (m *Multi) Step() error {
	errs := make([]error, len(m.programs))

	var wg sync.WaitGroup
	for i, p := range m.programs {
		wg.Add(1)
		go func(i int, p *DynamicProgram) {
			defer wg.Done()
			errs[i] = p.Step()
		}(i, p)
	}
	wg.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Errorf("program %d: %w", i, err))
		}
	}
	if len(failed) > 0 {
		return &ExecutionError{Step: m.programs[0].Steps() + 1, Failures: failed}
	}
	return nil
}

// Run drives every member to completion, concurrently. The context is
// handed to each member and consulted between its steps.
func (m *Multi) Run(ctx context.Context) error {
	errs := make([]error, len(m.programs))

	var wg sync.WaitGroup
	for i, p := range m.programs {
		wg.Add(1)
		go func(i int, p *DynamicProgram) {
			defer wg.Done()
			errs[i] = p.Run(ctx)
		}(i, p)
	}
	wg.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Errorf("program %d: %w", i, err))
		}
	}
	if len(failed) > 0 {
		return &ExecutionError{Step: m.programs[0].Steps(), Failures: failed}
	}
	return nil
}

// Merged combines the members' committed distributions with the configured
// strategy. Partial merges are never exposed: every member must be at the
// same committed step.
func (m *Multi) Merged() ([][]float64, error) {
	step := m.programs[0].Steps()
	for i, p := range m.programs[1:] {
		if p.Steps() != step {
			return nil, fmt.Errorf("%w: program %d at step %d, program 0 at step %d",
				ErrStepMismatch, i+1, p.Steps(), step)
		}
	}

	rows, cols := m.programs[0].Rows(), m.programs[0].Cols()
	out := make([][]float64, rows)
	for r := range out {
		out[r] = make([]float64, cols)
	}

	for i, p := range m.programs {
		dist := p.Distribution()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				switch m.strategy {
				case MergeSum:
					out[r][c] += dist[r][c]
				case MergeMax:
					if i == 0 || dist[r][c] > out[r][c] {
						out[r][c] = dist[r][c]
					}
				case MergeWeighted:
					out[r][c] += m.weights[i] * dist[r][c]
				}
			}
		}
	}

	return out, nil
}
