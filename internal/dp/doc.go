// Package dp implements the dynamic-programming propagation engine.
//
// A [DynamicProgram] owns one grid and a field-type to kernel table, and
// advances the grid through discrete time steps: each step scatters every
// cell's probability mass to its neighbors according to the kernel bound to
// the cell's field type, under a boundary policy for mass leaving the grid.
//
//	program, err := dp.NewBuilder().
//		Size(5, 5).
//		Kernel(kernel.SimpleWalk()).
//		PointMass(2, 2).
//		Boundary(grid.Reflect).
//		Iterations(10).
//		Parallelism(4).
//		Build()
//	if err != nil {
//		// configuration fault; nothing was run
//	}
//	err = program.Run(context.Background())
//
// # Invariants
//
// Total mass is conserved across every step within [MassTolerance], except
// under absorbing boundaries or absorbing kernels, where the lost mass is
// tracked by [DynamicProgram.AbsorbedMass] and the conservation check
// accounts for it. A step either fully commits or does not advance at all;
// any state observable from outside is internally consistent.
//
// Results are independent of the parallelism degree: workers scatter into
// private buffers that are merged in ascending source-row order, so per-cell
// sums never depend on scheduling.
//
// [Multi] composes several programs with a merge strategy (sum, max,
// weighted average) and drives them in lockstep.
package dp
