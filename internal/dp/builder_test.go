package dp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/driftgrid/internal/dp"
	"github.com/san-kum/driftgrid/internal/grid"
	"github.com/san-kum/driftgrid/internal/kernel"
)

var _ = Describe("Builder", func() {
	var b *dp.Builder

	BeforeEach(func() {
		b = dp.NewBuilder().
			Size(5, 5).
			Kernel(kernel.SimpleWalk()).
			PointMass(2, 2).
			Boundary(grid.Reflect).
			Iterations(10)
	})

	It("builds a ready program from a complete configuration", func() {
		p, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.State()).To(Equal(dp.StateBuilt))
		Expect(p.Steps()).To(BeZero())
		Expect(p.Rows()).To(Equal(5))
		Expect(p.Cols()).To(Equal(5))
	})

	It("rejects a missing grid", func() {
		_, err := dp.NewBuilder().Kernel(kernel.SimpleWalk()).Iterations(1).Build()
		Expect(err).To(MatchError(dp.ErrNoGrid))
	})

	It("rejects a missing kernel table", func() {
		_, err := dp.NewBuilder().Size(3, 3).Iterations(1).Build()
		Expect(err).To(MatchError(dp.ErrNoKernels))
	})

	It("rejects a configuration without any termination condition", func() {
		_, err := dp.NewBuilder().Size(3, 3).Kernel(kernel.SimpleWalk()).Build()
		Expect(err).To(MatchError(dp.ErrNoTermination))
	})

	It("rejects a negative epsilon", func() {
		_, err := b.ConvergenceEpsilon(-1e-6).Iterations(0).Build()
		Expect(err).To(MatchError(dp.ErrNoTermination))
	})

	It("rejects a non-positive target mass", func() {
		_, err := b.TargetMass(0).Build()
		Expect(err).To(MatchError(dp.ErrInvalidDistribution))
	})

	It("rejects a point mass outside the grid", func() {
		_, err := b.PointMass(7, 7).Build()
		Expect(err).To(MatchError(grid.ErrOutOfBounds))
	})

	It("rejects an explicit distribution that misses the target mass", func() {
		_, err := b.Distribution([][]float64{
			{0.5, 0, 0, 0, 0},
			{0, 0, 0, 0, 0},
			{0, 0, 0, 0, 0},
			{0, 0, 0, 0, 0},
			{0, 0, 0, 0, 0},
		}).Build()
		Expect(err).To(MatchError(dp.ErrInvalidDistribution))
	})

	It("rejects an explicit distribution whose shape differs from the grid", func() {
		_, err := b.Distribution([][]float64{{1.0}}).Build()
		Expect(err).To(MatchError(dp.ErrInvalidDistribution))
	})

	It("accepts an explicit distribution matching a custom target mass", func() {
		p, err := dp.NewBuilder().
			Size(2, 2).
			Kernel(kernel.SimpleWalk()).
			TargetMass(4).
			Distribution([][]float64{{1, 1}, {1, 1}}).
			Boundary(grid.Wrap).
			Iterations(3).
			Build()
		Expect(err).NotTo(HaveOccurred())
		m, err := p.MassAt(0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(1.0))
	})

	It("requires a kernel for every field type present in the terrain", func() {
		terrain := [][]grid.FieldType{
			{0, 0, 1},
			{0, 0, 0},
		}
		_, err := dp.NewBuilder().
			Terrain(terrain).
			Kernel(kernel.SimpleWalk()).
			UniformDistribution().
			Iterations(5).
			Build()
		Expect(err).To(MatchError(dp.ErrMissingKernel))
	})

	It("ignores kernels for field types absent from the grid", func() {
		_, err := b.FieldKernels(map[grid.FieldType]*kernel.Kernel{
			9: kernel.Terminal(),
		}).Build()
		Expect(err).NotTo(HaveOccurred())
	})

	It("takes grid dimensions from the terrain matrix", func() {
		terrain := make([][]grid.FieldType, 4)
		for r := range terrain {
			terrain[r] = make([]grid.FieldType, 6)
		}
		p, err := dp.NewBuilder().
			Terrain(terrain).
			Kernel(kernel.SimpleWalk()).
			UniformDistribution().
			Boundary(grid.Wrap).
			Iterations(2).
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Rows()).To(Equal(4))
		Expect(p.Cols()).To(Equal(6))
	})
})
