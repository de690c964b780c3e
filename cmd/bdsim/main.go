package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/bdsim/internal/analysis"
	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/experiment"
	"github.com/san-kum/bdsim/internal/export"
	"github.com/san-kum/bdsim/internal/sim"
	"github.com/san-kum/bdsim/internal/storage"
	"github.com/san-kum/bdsim/internal/sweep"
	"github.com/san-kum/bdsim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	configFile string
	dt         float64
	duration   float64
	seed       uint64
	count      int
	kT         float64
	workers    int

	ensemble      int
	ensembleLimit int

	metricName string
	outputFile string

	svgView  string
	svgPlane string

	planFile     string
	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	sweepRepeats int
	maximize     bool
)

// main registers the bdsim commands. Without a subcommand it opens the
// interactive preset browser.
func main() {
	rootCmd := &cobra.Command{
		Use:          "bdsim",
		Short:        "brownian dynamics simulator",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := tuiLogger()
			if err != nil {
				return err
			}
			defer closeLog()
			return viz.RunInteractive(config.ListPresets(), config.PresetInfo, presetParams, presetBuilder(logger))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".bdsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run simulation and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addOverrideFlags(runCmd)
	runCmd.Flags().IntVar(&ensemble, "ensemble", 1, "number of independent runs with consecutive seeds")
	runCmd.Flags().IntVar(&ensembleLimit, "parallel", 0, "ensemble members running at once (0 = all)")

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "continue a stored run from its checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	resumeCmd.Flags().Float64Var(&duration, "time", 0, "additional duration (default: the run's duration)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot metric series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metricName, "metric", "", "plot only this metric")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tPARTICLES\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, p.Particles.Count, config.PresetInfo[name])
			}
			return w.Flush()
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addOverrideFlags(liveCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "diffusion and correlation analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a stored run to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	exportSVGCmd.Flags().StringVar(&svgView, "view", "paths", "paths (tracked trajectories) or frame (last frame in 3D)")
	exportSVGCmd.Flags().StringVar(&svgPlane, "plane", "xy", "projection plane for paths")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run a preset across a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&planFile, "plan", "", "sweep plan file (yaml)")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "kT", fmt.Sprintf("parameter to sweep %v", config.Tunable))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 4, "number of values")
	sweepCmd.Flags().IntVar(&sweepRepeats, "repeats", 1, "runs per value with consecutive seeds")
	sweepCmd.Flags().StringVar(&metricName, "metric", "msd", "metric to summarise")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "report the value with the largest mean")
	sweepCmd.Flags().IntVar(&ensembleLimit, "parallel", 0, "runs in flight (0 = all)")
	sweepCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the summary as CSV")

	rootCmd.AddCommand(runCmd, resumeCmd, listCmd, plotCmd, analyzeCmd, exportCmd, exportCSVCmd, exportSVGCmd, sweepCmd, presetsCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addOverrideFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&count, "count", config.DefaultCount, "number of particles")
	cmd.Flags().Float64Var(&kT, "kT", config.DefaultKT, "thermal energy")
	cmd.Flags().IntVar(&workers, "workers", 0, "force and coupling workers (0 = GOMAXPROCS)")
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// tuiLogger writes to a file in the data directory so log lines do not
// tear the terminal UI.
func tuiLogger() (*slog.Logger, func(), error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "live.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, func() { f.Close() }, nil
}

// loadConfig resolves the configuration from --config or a preset name, then
// applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	} else {
		name := "free"
		if len(args) > 0 {
			name = args[0]
		}
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("count") {
		cfg.Particles.Count = count
	}
	if flags.Changed("kT") {
		cfg.Thermostat.KT = kT
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = workers
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if ensemble > 1 {
		return runEnsemble(ctx, st, cfg, logger)
	}

	exp := experiment.New(cfg, logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Printf("running %s: %d particles, %.4g time units...\n", cfg.Name, cfg.Particles.Count, cfg.Run.Duration)
	start := time.Now()

	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	cp := exp.GetSimulator().Checkpoint()
	runID, err := st.Save(storage.Run{Config: cfg, Result: result, Checkpoint: &cp})
	if err != nil {
		return err
	}

	printSummary(runID, elapsed, result)
	if runErr != nil {
		return fmt.Errorf("run %s stopped early: %w", runID, runErr)
	}
	return nil
}

func runEnsemble(ctx context.Context, st *storage.Store, cfg *config.Config, logger *slog.Logger) error {
	exp := experiment.New(cfg, logger)
	e := sim.NewEnsemble(exp.Factory(), ensemble, cfg.Seed)
	e.SetLimit(ensembleLimit)

	fmt.Printf("running %d x %s...\n", ensemble, cfg.Name)
	start := time.Now()

	results, err := e.Run(ctx, experiment.RunConfig(cfg))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	values := make(map[string][]float64)
	for i, res := range results {
		member := cfg.Clone()
		member.Seed = cfg.Seed + uint64(i)
		runID, err := st.Save(storage.Run{Config: member, Result: res})
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
		for name, v := range res.Metrics {
			values[name] = append(values[name], v)
		}
	}

	fmt.Printf("\ncompleted in %v\n", elapsed)
	fmt.Println("metrics (mean ± std):")
	for _, name := range sortedNames(values) {
		mean, std := stat.MeanStdDev(values[name], nil)
		if math.IsNaN(std) {
			std = 0
		}
		fmt.Printf("  %s: %.6f ± %.6f\n", name, mean, std)
	}
	return nil
}

func resumeRun(cmd *cobra.Command, args []string) error {
	parent := args[0]
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	cfg, err := st.LoadConfig(parent)
	if err != nil {
		return err
	}
	cp, err := st.LoadCheckpoint(parent)
	if err != nil {
		if errors.Is(err, storage.ErrNoCheckpoint) {
			return fmt.Errorf("run %s cannot be resumed: %w", parent, err)
		}
		return err
	}
	if cmd.Flags().Changed("time") {
		cfg.Run.Duration = duration
	}

	s, err := experiment.Build(cfg, nil, logger)
	if err != nil {
		return err
	}
	if err := s.Restore(cp); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("resuming %s at t=%.4g...\n", parent, cp.SimTime)
	start := time.Now()

	result, runErr := s.Run(ctx, experiment.RunConfig(cfg))
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	next := s.Checkpoint()
	runID, err := st.Save(storage.Run{Config: cfg, Result: result, Checkpoint: &next, Parent: parent})
	if err != nil {
		return err
	}

	printSummary(runID, elapsed, result)
	return runErr
}

func printSummary(runID string, elapsed time.Duration, result *sim.Result) {
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d, sim time: %.4g, rebuilds: %d\n", result.StepsTaken, result.SimTime, result.Resorts)
	fmt.Println("\nmetrics:")
	for _, name := range sortedNames(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tPARTICLES\tSIM TIME\tDT\tSEED\tPARENT")

	for _, run := range runs {
		parent := run.Parent
		if parent == "" {
			parent = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4g\t%.4g\t%d\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.SimTime,
			run.Dt,
			run.Seed,
			parent,
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

	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	names := sortedNames(series)
	if metricName != "" {
		if _, ok := series[metricName]; !ok {
			return fmt.Errorf("run %s has no metric %q (available: %v)", runID, metricName, names)
		}
		names = []string{metricName}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d (t = %.4g .. %.4g)\n\n", len(times), times[0], times[len(times)-1])

	for _, name := range names {
		graph := asciigraph.Plot(series[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	cfg, err := st.LoadConfig(args[0])
	if err != nil {
		return err
	}
	result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	if outputFile == "" {
		return storage.ExportJSONStdout(cfg, result)
	}
	if err := storage.ExportJSON(outputFile, cfg, result); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outputFile)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	frames, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	if outputFile == "" {
		return storage.ExportTrajectoryCSV(os.Stdout, frames)
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := storage.ExportTrajectoryCSV(f, frames); err != nil {
		return err
	}
	fmt.Printf("exported %d frames to %s\n", len(frames), outputFile)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, closeLog, err := tuiLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := experiment.Build(cfg, nil, logger)
	if err != nil {
		return err
	}
	return viz.RunLive(s, experiment.RunConfig(cfg), cfg.Name)
}

// presetParams lists the values editable on the interactive setup screen.
func presetParams(name string) []viz.Param {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil
	}
	params := []viz.Param{
		{Name: "count", Value: float64(cfg.Particles.Count), Step: 10},
		{Name: "kT", Value: cfg.Thermostat.KT, Step: 0.1},
		{Name: "dt", Value: cfg.Run.Dt, Step: cfg.Run.Dt / 2},
		{Name: "duration", Value: cfg.Run.Duration, Step: 1},
	}
	if !cfg.Thermostat.Gamma.IsAnisotropic() {
		params = append(params, viz.Param{Name: "gamma", Value: cfg.Thermostat.Gamma.Axis(0), Step: 0.1})
	}
	return params
}

func presetBuilder(logger *slog.Logger) viz.Builder {
	return func(name string, params map[string]float64) (*sim.Simulator, sim.Config, error) {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return nil, sim.Config{}, fmt.Errorf("unknown preset: %s", name)
		}
		for _, p := range sortedNames(params) {
			if err := cfg.Set(p, params[p]); err != nil {
				return nil, sim.Config{}, err
			}
		}
		s, err := experiment.Build(cfg, nil, logger)
		if err != nil {
			return nil, sim.Config{}, err
		}
		return s, experiment.RunConfig(cfg), nil
	}
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}
	if len(result.Frames) < 3 {
		return fmt.Errorf("run %s has %d frames, need at least 3", runID, len(result.Frames))
	}

	frameDt := result.Frames[1].Time - result.Frames[0].Time
	fmt.Printf("run: %s (%s)\n", runID, cfg.Name)
	fmt.Printf("frames: %d, tracked particles: %d, frame interval: %.4g\n\n",
		len(result.Frames), len(result.Frames[0].Particles), frameDt)

	lags, msd := analysis.MSDCurve(result.Frames, len(result.Frames)/2)
	fit, err := analysis.FitDiffusion(lags, msd, 3)
	if err != nil {
		return err
	}
	fmt.Println("diffusion (time-origin averaged MSD):")
	fmt.Printf("  D = %.6g (R² = %.4f)\n", fit.D, fit.R2)
	if g := cfg.Thermostat.Gamma; !g.IsAnisotropic() && g.Axis(0) > 0 {
		fmt.Printf("  free particle D = kT/gamma = %.6g\n", cfg.Thermostat.KT/g.Axis(0))
	}

	vacf := analysis.VACF(result.Frames, len(result.Frames)/2)
	if len(vacf) > 0 && vacf[0] > 0 {
		norm := make([]float64, len(vacf))
		for i, c := range vacf {
			norm[i] = c / vacf[0]
		}
		fmt.Printf("  <v²> = %.6g, velocity correlation time = %.4g\n", vacf[0], analysis.CorrelationTime(norm, frameDt))
	}

	if len(msd) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(msd, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("msd vs lag")))
	}

	if len(result.Times) > 2 {
		seriesDt := result.Times[1] - result.Times[0]
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\nMETRIC\tMEAN\tSTD\tCORR TIME\tPEAK FREQ")
		for _, name := range sortedNames(result.Series) {
			values := result.Series[name]
			mean, std := stat.MeanStdDev(values, nil)
			acf := analysis.Autocorrelation(values, len(values)/2)
			freq, _ := analysis.DominantFrequency(values, seriesDt)
			fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.4g\t%.4g\n", name, mean, std, analysis.CorrelationTime(acf, seriesDt), freq)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	cfg, err := st.LoadConfig(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("run %s has no frames", args[0])
	}

	w := io.Writer(os.Stdout)
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch svgView {
	case "paths":
		a, b, err := parsePlane(svgPlane)
		if err != nil {
			return err
		}
		if err := export.TrajectoriesToSVG(w, frames, a, b, 800, 800); err != nil {
			return err
		}
	case "frame":
		if err := export.FrameToSVG(w, frames[len(frames)-1], cfg.Box.Vec(), viz.NewCamera(), 80, 40); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown view %q (paths, frame)", svgView)
	}

	if outputFile != "" {
		fmt.Printf("exported to %s\n", outputFile)
	}
	return nil
}

func parsePlane(s string) (int, int, error) {
	if len(s) != 2 || s[0] == s[1] {
		return 0, 0, fmt.Errorf("bad plane %q", s)
	}
	a := strings.IndexByte("xyz", s[0])
	b := strings.IndexByte("xyz", s[1])
	if a < 0 || b < 0 {
		return 0, 0, fmt.Errorf("bad plane %q", s)
	}
	return a, b, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	plan := &sweep.Plan{
		Preset:  "free",
		Param:   sweepParam,
		Values:  sweep.Linspace(sweepMin, sweepMax, sweepSteps),
		Repeats: sweepRepeats,
		Metric:  metricName,
	}
	if planFile != "" {
		p, err := sweep.LoadPlan(planFile)
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}
		plan = p
	}
	if len(args) > 0 {
		plan.Preset = args[0]
	}

	cfg := config.GetPreset(plan.Preset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", plan.Preset, config.ListPresets())
	}
	if !slices.Contains(cfg.Metrics, plan.Metric) {
		cfg.Metrics = append(cfg.Metrics, plan.Metric)
	}

	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &sweep.Runner{
		Param:   plan.Param,
		Values:  plan.Values,
		Repeats: plan.Repeats,
		Limit:   ensembleLimit,
		Logger:  logger,
	}

	fmt.Printf("sweeping %s over %v on %s...\n", plan.Param, plan.Values, plan.Preset)
	start := time.Now()
	points, err := r.Run(ctx, cfg)
	if err != nil {
		return err
	}
	summaries := sweep.Summarize(plan.Param, plan.Metric, points)
	fmt.Printf("completed %d runs in %v\n\n", len(points), time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s MEAN\tSTD\tRUNS\tFAILED\n", strings.ToUpper(plan.Param), strings.ToUpper(plan.Metric))
	for _, s := range summaries {
		fmt.Fprintf(w, "%.4g\t%.6g\t%.6g\t%d\t%d\n", s.Value, s.Mean, s.Std, s.Runs, s.Failed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, ok := sweep.Best(summaries, maximize); ok {
		fmt.Printf("\nbest: %s = %.4g (%s = %.6g)\n", plan.Param, best.Value, plan.Metric, best.Mean)
	}

	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := gocsv.MarshalFile(&summaries, f); err != nil {
			return err
		}
	}
	return nil
}
