package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/rigidsim/internal/analysis"
	"github.com/san-kum/rigidsim/internal/automation"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/export"
	"github.com/san-kum/rigidsim/internal/optim"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/san-kum/rigidsim/internal/viz"
)

var (
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	trials      int
	workers     int
	tuneParams  []string
	tuneMetric  string
	analyzeBody int
)

func toolCommands() []*cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "bounce, settle and frequency analysis of body heights",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&analyzeBody, "body", 0, "body index for the phase portrait")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export side-view trajectories as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scene]",
		Short: "render the final frame of a scene as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshotScene,
	}
	addSceneFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario and store every step",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "sweep one parameter over a range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScene,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "restitution", "parameter ("+strings.Join(config.ParamNames(), ", ")+")")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [scene]",
		Short: "run a scene over consecutive seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  monteCarlo,
	}
	addSceneFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 16, "number of trials")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "concurrent trials (0 = unlimited)")

	tuneCmd := &cobra.Command{
		Use:   "tune [scene]",
		Short: "grid search parameters minimising a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneScene,
	}
	addSceneFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "max_penetration", "metric to minimise")

	return []*cobra.Command{analyzeCmd, exportSVGCmd, snapshotCmd, scenarioCmd, sweepCmd, monteCarloCmd, tuneCmd}
}

func analyzeRun(cmd *cobra.Command, args []string) error {
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
	if len(traj.Times) < 4 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s\n\n", meta.Scene)

	dt := traj.Times[1] - traj.Times[0]
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tBOUNCES\tFIRST\tSETTLED\tFREQ")
	for j := range traj.Positions[0] {
		h := traj.Height(j)
		bounces := analysis.Bounces(h, traj.Times)
		first := "-"
		if len(bounces) > 0 {
			first = fmt.Sprintf("%.3fs", bounces[0])
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%.3fs\t%.3fHz\n", j, len(bounces), first,
			analysis.SettleTime(h, traj.Times, 1e-3), analysis.DominantFrequency(h, dt))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if analyzeBody < 0 || analyzeBody >= len(traj.Positions[0]) {
		return fmt.Errorf("body %d out of range", analyzeBody)
	}
	fmt.Printf("\nphase portrait of body %d (height vs vertical velocity):\n", analyzeBody)
	fmt.Print(analysis.HeightPhase(traj.Height(analyzeBody), traj.Times).ToASCII(60, 16))
	return nil
}

func writeOutput(svg string) error {
	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(traj.Positions) == 0 {
		return fmt.Errorf("no data")
	}

	paths := make([][]analysis.Point, len(traj.Positions[0]))
	for _, frame := range traj.Positions {
		for j, p := range frame {
			if j < len(paths) {
				paths[j] = append(paths[j], analysis.Point{X: p[0], Y: p[1]})
			}
		}
	}
	return writeOutput(export.TrajectoriesToSVG(paths, 800, 600))
}

func snapshotScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sceneArg(args))
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("time") {
		cfg.Duration = 1
	}
	d, err := sim.NewDriver(cfg, newLogger())
	if err != nil {
		return err
	}
	for d.Time() < cfg.Duration-1e-9 {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		if err := d.Advance(cfg.Dt); err != nil {
			return err
		}
	}

	canvas := viz.NewCanvas(80, 40)
	viz.DrawWorld(canvas, viz.NewCamera(), d.World())
	return writeOutput(export.CanvasToSVG(canvas, 4, export.Palette[0]))
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, err := automation.RunScenario(cmd.Context(), sc, newLogger())
	for i, r := range results {
		cfg, cerr := sc.Steps[i].Config()
		if cerr != nil {
			return cerr
		}
		runID, serr := st.Save(cfg, r)
		if serr != nil {
			return serr
		}
		fmt.Printf("  %d. %s -> %s (%d steps, energy %.4f)\n", i+1, r.Scene, runID, r.StepsTaken, r.Metrics["energy"])
	}
	return err
}

func sweepScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sceneArg(args))
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, NumSteps: sweepSteps}
	fmt.Printf("sweeping %s over [%g, %g] on %s\n\n", sweepParam, sweepMin, sweepMax, cfg.Scene)
	results, err := automation.RunSweep(cmd.Context(), cfg, sweep, newLogger())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tENERGY\tMAX_PEN\tREST_TIME\tSLEEPING\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.4f\t%.6f\t%.3f\t%d\n", r.Value,
			r.Metrics["energy"], r.Metrics["max_penetration"], r.Metrics["rest_time"], r.Sleeping)
	}
	return w.Flush()
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sceneArg(args))
	if err != nil {
		return err
	}

	fmt.Printf("monte carlo: %s, %d trials from seed %d\n", cfg.Scene, trials, cfg.Seed)
	results, err := automation.RunMonteCarlo(cmd.Context(), cfg, trials, workers, newLogger())
	if err != nil {
		return err
	}

	worst := 0.0
	for _, r := range results {
		worst = max(worst, r.MaxPenetration)
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("stable: %d, unstable: %d\n", stable, unstable)
	fmt.Printf("worst penetration: %.6f\n", worst)
	return nil
}

// parseParam reads "name=v1,v2,...".
func parseParam(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("bad parameter %q, want name=v1,v2", s)
	}
	var vals []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}

func tuneScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sceneArg(args))
	if err != nil {
		return err
	}
	if len(tuneParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	names := make([]string, 0, len(tuneParams))
	ranges := make([][]float64, 0, len(tuneParams))
	for _, p := range tuneParams {
		name, vals, err := parseParam(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	g := optim.NewGridSearch(names, ranges, newLogger())
	best, val, err := g.Search(cmd.Context(), cfg, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d combinations on %s\n", g.Evaluated(), cfg.Scene)
	fmt.Printf("best %s: %.6f\n", tuneMetric, val)
	for _, n := range names {
		fmt.Printf("  %s = %g\n", n, best[n])
	}
	return nil
}
