package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/driftgrid/internal/config"
	"github.com/san-kum/driftgrid/internal/dp"
	"github.com/san-kum/driftgrid/internal/export"
	"github.com/san-kum/driftgrid/internal/grid"
	"github.com/san-kum/driftgrid/internal/metrics"
	"github.com/san-kum/driftgrid/internal/storage"
	"github.com/san-kum/driftgrid/internal/terrain"
	"github.com/san-kum/driftgrid/internal/viz"
	"github.com/san-kum/driftgrid/internal/walker"
)

var (
	dataDir    string
	configFile string
	preset     string
	iterations int
	workers    int
	history    int
	boundary   string
	timeout    time.Duration
	frameRate  int
	// walk parameters
	walkRow   int
	walkCol   int
	walkSteps int
	walkQty   int
	walkSeed  int64
	walkSVG   string
	// export parameters
	svgOut  string
	svgCell float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "driftgrid",
		Short: "grid random-walk probability simulation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".driftgrid", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store the result",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().IntVar(&iterations, "iterations", 0, "override iteration count")
	runCmd.Flags().IntVar(&workers, "workers", 0, "override worker count (0 = all CPUs)")
	runCmd.Flags().IntVar(&history, "history", 0, "override history capacity")
	runCmd.Flags().StringVar(&boundary, "boundary", "", "override boundary policy (absorb|reflect|wrap)")
	runCmd.Flags().DurationVar(&timeout, "timeout", 0, "wall-clock limit; stops between steps")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON, or the distribution as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgOut, "svg", "", "write distribution heatmap SVG to file")
	exportCmd.Flags().Float64Var(&svgCell, "cell-px", 8, "SVG cell size in pixels")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step a simulation with a live heatmap view",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	liveCmd.Flags().IntVar(&frameRate, "fps", 20, "steps per second")

	walkCmd := &cobra.Command{
		Use:   "walk [run_id]",
		Short: "sample random-walk paths from a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  sampleWalks,
	}
	walkCmd.Flags().IntVar(&walkRow, "row", -1, "end cell row (default: peak cell)")
	walkCmd.Flags().IntVar(&walkCol, "col", -1, "end cell column (default: peak cell)")
	walkCmd.Flags().IntVar(&walkSteps, "steps", 0, "walk length (default: run steps)")
	walkCmd.Flags().IntVar(&walkQty, "n", 1, "number of paths")
	walkCmd.Flags().Int64Var(&walkSeed, "seed", time.Now().UnixNano(), "random seed")
	walkCmd.Flags().StringVar(&walkSVG, "svg", "", "write the first sampled path as SVG to file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, liveCmd, walkCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves preset, config file, and flag overrides, flags last.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("iterations") {
		cfg.Iterations = iterations
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("history") {
		cfg.History = history
	}
	if cmd.Flags().Changed("boundary") {
		cfg.Boundary = boundary
	}

	return cfg, nil
}

// buildProgram turns a config into a validated dynamic program.
func buildProgram(cfg *config.Config, observers ...dp.Observer) (*dp.DynamicProgram, error) {
	kernels, err := cfg.BuildKernels()
	if err != nil {
		return nil, err
	}

	policy, err := grid.ParseBoundary(cfg.Boundary)
	if err != nil {
		return nil, err
	}

	b := dp.NewBuilder().
		Size(cfg.Rows, cfg.Cols).
		FieldKernels(kernels).
		Boundary(policy).
		Iterations(cfg.Iterations).
		ConvergenceEpsilon(cfg.Epsilon).
		Parallelism(cfg.Workers).
		HistoryCapacity(cfg.History)

	if cfg.TargetMass > 0 {
		b.TargetMass(cfg.TargetMass)
	}

	if cfg.Terrain != "" {
		types, err := terrain.Load(cfg.Terrain)
		if err != nil {
			return nil, err
		}
		b.Terrain(types)
	}

	switch cfg.Initial.Kind {
	case "point":
		b.PointMass(cfg.Initial.Row, cfg.Initial.Col)
	case "uniform", "":
		b.UniformDistribution()
	default:
		return nil, fmt.Errorf("unknown initial distribution kind: %q", cfg.Initial.Kind)
	}

	for _, o := range observers {
		b.Observer(o)
	}

	return b.Build()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	peak := metrics.NewPeakMass()
	entropy := metrics.NewEntropy()

	program, err := buildProgram(cfg, peak, entropy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fmt.Printf("running %dx%d grid, %s boundary...\n", cfg.Rows, cfg.Cols, cfg.Boundary)
	start := time.Now()

	runErr := program.Run(ctx)
	stopped := errors.Is(runErr, context.DeadlineExceeded) || errors.Is(runErr, context.Canceled)
	if runErr != nil && !stopped {
		return runErr
	}

	elapsed := time.Since(start)

	var layers []storage.Layer
	for _, s := range program.History() {
		layers = append(layers, storage.Layer{Step: s.Step, Mass: s.Mass})
	}

	runID, err := st.Save(storage.RunMetadata{
		Rows:      program.Rows(),
		Cols:      program.Cols(),
		Boundary:  cfg.Boundary,
		Steps:     program.Steps(),
		Converged: program.Converged(),
		Absorbed:  program.AbsorbedMass(),
		Workers:   cfg.Workers,
		Seed:      cfg.Seed,
		Metrics: map[string]float64{
			peak.Name():    peak.Value(),
			entropy.Name(): entropy.Value(),
		},
	}, program.Distribution(), layers)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	if stopped {
		fmt.Println("stopped early; last committed step kept")
	}
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", program.Steps())
	if program.Converged() {
		fmt.Println("converged before iteration budget")
	}
	fmt.Printf("absorbed mass: %.6g\n", program.AbsorbedMass())
	fmt.Printf("peak mass: %.6g at %v\n", peak.Value(), peak.At())
	fmt.Printf("entropy: %.4f bits\n", entropy.Value())

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tGRID\tBOUNDARY\tSTEPS\tCONVERGED\tABSORBED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\t%d\t%t\t%.4g\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Rows, run.Cols,
			run.Boundary,
			run.Steps,
			run.Converged,
			run.Absorbed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	dist, err := st.LoadDistribution(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%dx%d, %d steps)\n\n", meta.ID, meta.Rows, meta.Cols, meta.Steps)
	fmt.Println(viz.Heatmap(dist))

	if !meta.HasHistory {
		return nil
	}

	_, _, layers, err := st.LoadLayers(runID)
	if err != nil {
		return err
	}

	masses := make([][]float64, len(layers))
	for i, l := range layers {
		masses[i] = l.Mass
	}

	fmt.Println(asciigraph.Plot(viz.SeriesTotal(masses),
		asciigraph.Height(8),
		asciigraph.Width(72),
		asciigraph.Caption("total mass per step"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(viz.SeriesPeak(masses),
		asciigraph.Height(8),
		asciigraph.Width(72),
		asciigraph.Caption("peak cell mass per step"),
	))

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	if svgOut != "" {
		dist, err := st.LoadDistribution(args[0])
		if err != nil {
			return err
		}
		if err := os.WriteFile(svgOut, []byte(export.HeatmapSVG(dist, svgCell)), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	program, err := buildProgram(cfg)
	if err != nil {
		return err
	}

	return viz.RunLive(program, frameRate)
}

func sampleWalks(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if !meta.HasHistory {
		return fmt.Errorf("run %s has no stored history; rerun with a history capacity", runID)
	}

	rows, cols, layers, err := st.LoadLayers(runID)
	if err != nil {
		return err
	}

	snapshots := make([]dp.Snapshot, len(layers))
	for i, l := range layers {
		snapshots[i] = dp.Snapshot{Step: l.Step, Mass: l.Mass}
	}
	table := dp.NewTable(rows, cols, snapshots)

	steps := walkSteps
	if steps <= 0 {
		steps = table.Steps()
	}

	to := grid.Coord{Row: walkRow, Col: walkCol}
	if walkRow < 0 || walkCol < 0 {
		to = peakCell(rows, cols, layers, table.Steps())
	}

	w := walker.New(walkSeed)
	paths, err := w.Paths(table, walkQty, to, steps)
	if err != nil {
		return err
	}

	for i, path := range paths {
		fmt.Printf("path %d:", i)
		for _, c := range path {
			fmt.Printf(" %v", c)
		}
		fmt.Println()
	}

	if walkSVG != "" && len(paths) > 0 {
		if err := os.WriteFile(walkSVG, []byte(export.PathSVG(paths[0], rows, cols, 8)), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", walkSVG)
	}

	return nil
}

func peakCell(rows, cols int, layers []storage.Layer, step int) grid.Coord {
	for _, l := range layers {
		if l.Step != step {
			continue
		}
		best := 0
		for i, v := range l.Mass {
			if v > l.Mass[best] {
				best = i
			}
		}
		return grid.Coord{Row: best / cols, Col: best % cols}
	}
	return grid.Coord{Row: rows / 2, Col: cols / 2}
}
