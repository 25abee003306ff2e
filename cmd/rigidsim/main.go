package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/integrators"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/san-kum/rigidsim/internal/viz"
)

var (
	dataDir     string
	logLevel    string
	configFile  string
	preset      string
	saveConfig  string
	dt          float64
	duration    float64
	seed        int64
	substeps    int
	integrator  string
	broadphase  string
	count       int
	friction    float64
	restitution float64
	ground      bool
	gravity     []float64
	runs        int
	plotBodies  int
	outFile     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rigidsim",
		Short: "sphere rigid-body simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(config.DefaultSeed, newLogger())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigidsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene and store its trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the effective config to this path")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a scene in the terminal viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body heights of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotBodies, "bodies", 4, "number of bodies to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark broadphases over body counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	addSceneFlags(benchCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify [scene]",
		Short: "check that repeated runs are bit-identical",
		Args:  cobra.MaximumNArgs(1),
		RunE:  verifyScene,
	}
	addSceneFlags(verifyCmd)
	verifyCmd.Flags().IntVar(&runs, "runs", 4, "number of concurrent runs")

	compareCmd := &cobra.Command{
		Use:   "compare [scene] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same scene",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addSceneFlags(compareCmd)

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range scene.Names() {
				sc, _ := scene.Get(name)
				fmt.Fprintf(w, "%s\t%s\n", name, sc.Description)
			}
			return w.Flush()
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list available presets for a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scene: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, benchCmd, verifyCmd, compareCmd, scenesCmd, presetsCmd)
	rootCmd.AddCommand(toolCommands()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", config.DefaultDt, "frame time step")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration")
	f.Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	f.IntVar(&substeps, "substeps", config.DefaultSubsteps, "physics steps per frame")
	f.StringVar(&integrator, "integrator", "symplectic", "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	f.StringVar(&broadphase, "broadphase", "naive", "broadphase ("+strings.Join(collision.BroadphaseNames(), ", ")+")")
	f.IntVar(&count, "count", 0, "number of bodies")
	f.Float64Var(&friction, "friction", 0, "body friction")
	f.Float64Var(&restitution, "restitution", 0, "body restitution")
	f.BoolVar(&ground, "ground", false, "enable the ground plane")
	f.Float64SliceVar(&gravity, "gravity", nil, "gravity vector x,y,z")
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func sceneArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// loadConfig builds the configuration from scene defaults, then a preset or
// config file, then any flags set on the command line.
func loadConfig(cmd *cobra.Command, name string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if name != "" && name != loaded.Scene {
			return nil, fmt.Errorf("config file is for scene %s, not %s", loaded.Scene, name)
		}
		cfg = loaded
	case name == "":
		name = config.DefaultScene
		fallthrough
	default:
		if _, err := scene.Get(name); err != nil {
			return nil, err
		}
		cfg = config.ForScene(name)
	}

	if preset != "" {
		p, ok := config.Presets[cfg.Scene][preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scene))
		}
		p(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if flags.Changed("integrator") {
		cfg.World.Integrator = integrator
	}
	if flags.Changed("broadphase") {
		cfg.World.Broadphase = broadphase
	}
	if flags.Changed("count") {
		cfg.Bodies.Count = count
	}
	if flags.Changed("friction") {
		cfg.Bodies.Friction = friction
	}
	if flags.Changed("restitution") {
		cfg.Bodies.Restitution = restitution
	}
	if flags.Changed("ground") {
		cfg.World.Ground.Enabled = ground
	}
	if flags.Changed("gravity") {
		if len(gravity) != 3 {
			return nil, fmt.Errorf("gravity needs 3 components, got %d", len(gravity))
		}
		cfg.World.Gravity = [3]float64{gravity[0], gravity[1], gravity[2]}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sceneArg(args))
	if err != nil {
		return err
	}
	logger := newLogger()

	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s := sim.New(cfg, logger)
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}

	fmt.Printf("running %s simulation...\n", cfg.Scene)
	result, err := s.Run(cmd.Context())
	if err != nil {
		return err
	}

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("bodies: %d (%d sleeping)\n", result.Stats.Bodies, result.Stats.Sleeping)
	if cfg.Scene == "collision_spheres" {
		final := result.Final().Bodies
		if len(final) >= 2 {
			fmt.Printf("separation: %.6f\n", final[1].Position.Sub(final[0].Position).Len())
		}
	}
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(values map[string]float64) {
	fmt.Println("\nmetrics:")
	for _, m := range metrics.Default() {
		if v, ok := values[m.Name()]; ok {
			fmt.Printf("  %s: %.6f\n", m.Name(), v)
		}
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	if len(args) == 0 && configFile == "" && preset == "" {
		return viz.RunInteractive(seed, logger)
	}
	cfg, err := loadConfig(cmd, sceneArg(args))
	if err != nil {
		return err
	}
	return viz.RunLive(cfg, logger)
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
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tINTEG\tBODIES\tSLEEPING")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Bodies,
			run.Sleeping,
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

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	if len(traj.Times) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(traj.Times))

	n := min(plotBodies, len(traj.Positions[0]))
	if n <= 0 {
		return fmt.Errorf("no bodies to plot")
	}
	series := make([][]float64, n)
	colors := make([]asciigraph.AnsiColor, n)
	palette := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Yellow, asciigraph.Magenta, asciigraph.Green, asciigraph.Red, asciigraph.Blue}
	for j := range series {
		series[j] = traj.Height(j)
		colors[j] = palette[j%len(palette)]
	}

	graph := asciigraph.PlotMany(series,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(fmt.Sprintf("height of bodies 0-%d over %.2fs", n-1, traj.Times[len(traj.Times)-1])),
	)
	fmt.Println(graph)
	fmt.Println()
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile != "" {
		if err := st.ExportJSON(outFile, args[0]); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", args[0], outFile)
		return nil
	}
	return st.ExportJSONStdout(args[0])
}

var benchCounts = []int{50, 200, 800}

func benchScene(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, sceneArg(args))
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("time") {
		base.Duration = 2
	}
	base.RecordEvery = 0

	counts := benchCounts
	if cmd.Flags().Changed("count") {
		counts = []int{base.Bodies.Count}
	}

	fmt.Printf("benchmarking %s (%.1fs, dt=%.4f, %d substeps)\n\n", base.Scene, base.Duration, base.Dt, base.Substeps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BROADPHASE\tBODIES\tSTEPS\tPAIRS\tCONTACTS\tTIME\tSTEPS/SEC")

	for _, bp := range collision.BroadphaseNames() {
		for _, n := range counts {
			cfg := base.Clone()
			cfg.World.Broadphase = bp
			cfg.Bodies.Count = n

			result, err := sim.New(cfg, nil).Run(cmd.Context())
			if err != nil {
				return err
			}

			stepsPerSec := float64(result.StepsTaken) / result.Elapsed.Seconds()
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%v\t%.0f\n",
				bp, result.Stats.Bodies, result.StepsTaken, result.Stats.Pairs, result.Stats.Contacts,
				result.Elapsed.Round(time.Microsecond), stepsPerSec)
		}
	}

	return w.Flush()
}

func verifyScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sceneArg(args))
	if err != nil {
		return err
	}
	if runs < 2 {
		return fmt.Errorf("verify needs at least 2 runs, got %d", runs)
	}
	logger := newLogger()

	fmt.Printf("verifying %s with %d runs (seed %d)\n", cfg.Scene, runs, cfg.Seed)
	start := time.Now()
	results, err := sim.NewEnsemble(cfg, runs, logger).WithMetrics(metrics.Default).Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start))

	if !sim.Identical(results) {
		return fmt.Errorf("runs of %s diverged", cfg.Scene)
	}
	fmt.Printf("deterministic: %d runs bit-identical over %d frames\n", runs, len(results[0].Frames))

	dev, err := abiDeviation(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	fmt.Printf("abi: max deviation from float64 path %.3e\n", dev)

	printMetrics(results[0].Metrics)
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	names := args[1:]
	if len(names) == 0 {
		names = integrators.Names()
	}

	fmt.Printf("comparing integrators for %s (dt=%.4f, duration=%.1fs)\n\n", base.Scene, base.Dt, base.Duration)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s  %-12s\n", "integrator", "energy_drift", "max_pen", "rest_time", "time_ms")
	fmt.Println(strings.Repeat("-", 68))

	for _, name := range names {
		cfg := base.Clone()
		cfg.World.Integrator = name
		cfg.RecordEvery = 0

		s := sim.New(cfg, nil)
		for _, m := range metrics.Default() {
			s.AddMetric(m)
		}
		result, err := s.Run(cmd.Context())
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		fmt.Printf("%-12s  %12.2e  %12.6f  %12.3f  %12.2f\n", name,
			result.Metrics["energy_drift"], result.Metrics["max_penetration"], result.Metrics["rest_time"],
			float64(result.Elapsed.Microseconds())/1000)
	}

	return nil
}
