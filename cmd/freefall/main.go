package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/freefall/internal/automation"
	"github.com/san-kum/freefall/internal/config"
	"github.com/san-kum/freefall/internal/dynamo"
	"github.com/san-kum/freefall/internal/experiment"
	"github.com/san-kum/freefall/internal/export"
	"github.com/san-kum/freefall/internal/logging"
	"github.com/san-kum/freefall/internal/metrics"
	"github.com/san-kum/freefall/internal/optim"
	"github.com/san-kum/freefall/internal/report"
	"github.com/san-kum/freefall/internal/sim"
	"github.com/san-kum/freefall/internal/storage"
	"github.com/san-kum/freefall/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	logFormat string

	// physical parameters
	dt       float64
	duration float64
	mass     float64
	drag     float64
	gravity  float64
	height   float64
	policy   string
	impact   string
	name     string

	configFile  string
	preset      string
	save        bool
	plot        bool
	metricsFile string
	saveConfig  string

	heights   []float64
	trials    int
	seed      int64
	massSprd  float64
	dragSprd  float64
	target    float64
	dragRange []float64
	points    int
	rounds    int
	series    string
	outFile   string
	quantity  string
	frameRate int

	log *slog.Logger
)

// main registers the commands and exits with status 1 if one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "freefall",
		Short:         "drop a baseball with and without air resistance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			flags := cmd.Flags()
			if !flags.Changed("log-level") && !flags.Changed("log-format") && os.Getenv("LOG_LEVEL") != "" {
				log = logging.NewFromEnv()
				return
			}
			log = logging.New(logging.Config{Level: logLevel, Format: logFormat})
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".freefall", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error); LOG_LEVEL when unset")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a drop and print the final samples",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", true, "store the run under the data directory")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot velocity and position after the run")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved config to this yaml file")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "compare impact across drop heights",
		Args:  cobra.NoArgs,
		RunE:  sweepHeights,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&heights, "heights", []float64{10, 50, 100, 167.64, 300}, "drop heights in meters")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of drops",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb mass and drag and summarize impact times",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	monteCarloCmd.Flags().Float64Var(&massSprd, "mass-spread", 0.02, "relative mass spread")
	monteCarloCmd.Flags().Float64Var(&dragSprd, "drag-spread", 0.1, "relative drag spread")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "find the drag coefficient that matches an observed fall time",
		Args:  cobra.NoArgs,
		RunE:  fitDrag,
	}
	addConfigFlags(fitCmd)
	fitCmd.Flags().Float64Var(&target, "target", 6.76, "observed fall time (s)")
	fitCmd.Flags().Float64SliceVar(&dragRange, "range", []float64{0, 5e-3}, "drag coefficient search range")
	fitCmd.Flags().IntVar(&points, "points", 21, "grid points per round")
	fitCmd.Flags().IntVar(&rounds, "rounds", 3, "refinement rounds")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print the summary of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export one series of a run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&series, "series", "drag", "series to export (drag, vacuum)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render a run as an SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")
	svgCmd.Flags().StringVar(&quantity, "quantity", "position", "quantity to chart (position, velocity)")

	liveCmd := &cobra.Command{
		Use:   "live [run_id]",
		Short: "replay a stored run, or a fresh one without run_id",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tNAME\tDT\tDURATION\tHEIGHT\tDRAG\tPOLICY")
			for _, p := range config.ListPresets() {
				cfg := config.GetPreset(p)
				fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%g\t%s\n",
					p, cfg.Name, cfg.Dt, cfg.Duration, cfg.Height, cfg.Drag, cfg.Policy)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, sweepCmd, scenarioCmd, monteCarloCmd, fitCmd, listCmd, showCmd, plotCmd, exportCSVCmd, exportJSONCmd, svgCmd, liveCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "maximum duration (s)")
	cmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "mass (kg)")
	cmd.Flags().Float64Var(&drag, "drag", config.DefaultDrag, "drag coefficient K, force = K v^2")
	cmd.Flags().Float64Var(&gravity, "gravity", config.DefaultGravity, "gravitational acceleration (m/s^2)")
	cmd.Flags().Float64Var(&height, "height", config.DefaultHeight, "initial height (m)")
	cmd.Flags().StringVar(&policy, "policy", config.DefaultPolicy, "truncation policy (uniform-trim, independent-report)")
	cmd.Flags().StringVar(&impact, "impact", config.DefaultImpact, "impact comparison (<=, <)")
	cmd.Flags().StringVar(&name, "name", "baseball", "name of the dropped object")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, preset, config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, dynamo.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, dynamo.Config{}, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
		cfg = p
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, dynamo.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("mass") {
		cfg.Mass = mass
	}
	if flags.Changed("drag") {
		cfg.Drag = drag
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	if flags.Changed("impact") {
		cfg.Impact = impact
	}
	if flags.Changed("name") {
		cfg.Name = name
	}

	sc, err := cfg.Simulation()
	if err != nil {
		return nil, dynamo.Config{}, err
	}
	return cfg, sc, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, sc, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		log.Info("config written", "path", saveConfig)
	}

	rec := metrics.NewRecorder()
	exp := experiment.New(cfg.Name, sc, log).WithRecorder(rec)
	if err := exp.Setup(); err != nil {
		return err
	}

	result, err := exp.Run()
	if err != nil {
		return err
	}

	fmt.Println(report.NewSummary(cfg.Name, result).Render())
	fmt.Printf("\ncompleted in %v, %d steps\n", exp.Elapsed(), result.StepsTaken)

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg.Name, result)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		log.Info("run saved", "id", runID, "dir", dataDir)
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	for _, k := range slices.Sorted(maps.Keys(result.Metrics)) {
		fmt.Printf("  %s: %.6f\n", k, result.Metrics[k])
	}

	if plot {
		fmt.Println()
		fmt.Print(viz.Plot(result, viz.DefaultPlotOptions()))
	}

	if metricsFile != "" {
		if err := rec.WriteFile(metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}

func sweepHeights(cmd *cobra.Command, args []string) error {
	cfg, sc, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	configs := sim.HeightSweep(sc, heights)
	results, err := sim.NewEnsemble(configs, nil).Run(cmd.Context())
	if err != nil {
		return err
	}
	log.Info("sweep complete", "runs", len(results))

	prec := report.Precision(sc.Dt)
	fmt.Printf("sweeping %s heights (dt=%g, policy=%s)\n\n", cfg.Name, sc.Dt, sc.Policy)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HEIGHT\tT_DRAG\tV_DRAG\tT_VACUUM\tV_VACUUM\tDELAY\tLANDED")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%v\n",
			report.Decimal(r.Config.InitialHeight, prec),
			report.Decimal(r.DragFinal.Time, prec),
			report.Decimal(r.DragFinal.Velocity, prec),
			report.Decimal(r.VacuumFinal.Time, prec),
			report.Decimal(r.VacuumFinal.Velocity, prec),
			report.Decimal(r.DragFinal.Time-r.VacuumFinal.Time, prec),
			r.Impacted,
		)
	}

	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), scenario, st, log)
	for i, r := range results {
		step := scenario.Steps[i]
		fmt.Printf("[%d/%d] %s\n", i+1, len(scenario.Steps), step.Name)
		fmt.Println(report.NewSummary(step.Name, r).String())
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	_, sc, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:       sc,
		MassSpread: massSprd,
		DragSpread: dragSprd,
		NumTrials:  trials,
		Seed:       seed,
	})
	if err != nil {
		return err
	}

	st := automation.Stats(results)
	prec := report.Precision(sc.Dt)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "trials\t%d\n", len(results))
	fmt.Fprintf(w, "landed\t%d\n", st.Landed)
	fmt.Fprintf(w, "airborne\t%d\n", st.Airborne)
	fmt.Fprintf(w, "mean impact time\t%s s\n", report.Decimal(st.MeanTime, prec))
	fmt.Fprintf(w, "std impact time\t%s s\n", report.Decimal(st.StdTime, prec+1))
	fmt.Fprintf(w, "range\t%s .. %s s\n", report.Decimal(st.MinTime, prec), report.Decimal(st.MaxTime, prec))
	return w.Flush()
}

func fitDrag(cmd *cobra.Command, args []string) error {
	_, sc, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(dragRange) != 2 {
		return fmt.Errorf("--range needs two values, got %d", len(dragRange))
	}

	k, residual, err := optim.FitDragWithLogger(cmd.Context(), log, sc, target, dragRange[0], dragRange[1], points, rounds)
	if err != nil {
		return err
	}

	sc.DragCoefficient = k
	fmt.Printf("drag coefficient: %.6g\n", k)
	fmt.Printf("terminal velocity: %.4f m/s\n", sc.TerminalVelocity())
	fmt.Printf("impact time error: %.4g s\n", residual)
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDT\tHEIGHT\tPOLICY\tT_DRAG\tT_VACUUM")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4fs\t%.2fm\t%s\t%.3fs\t%.3fs\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Dt,
			run.Height,
			run.Policy,
			run.DragFinal.Time,
			run.VacuumFinal.Time,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	fmt.Println(report.NewSummary(meta.Name, result).Render())
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d drag, %d vacuum\n\n", result.Drag.Len(), result.Vacuum.Len())
	fmt.Print(viz.Plot(result, viz.DefaultPlotOptions()))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	s, err := storage.New(dataDir).LoadSeries(args[0], series)
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, s)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, result)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}

	q := export.Position
	switch quantity {
	case "position":
	case "velocity":
		q = export.Velocity
	default:
		return fmt.Errorf("unknown quantity: %s", quantity)
	}

	svg := export.ResultToSVG(result, q, 800, 480)
	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	log.Info("svg written", "path", outFile)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	var result *dynamo.Result
	if len(args) == 1 {
		_, stored, err := storage.New(dataDir).LoadResult(args[0])
		if err != nil {
			return err
		}
		result = stored
	} else {
		_, sc, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		result, err = sim.Integrate(sc)
		if err != nil {
			return err
		}
	}

	p := tea.NewProgram(viz.NewReplay(result, frameRate))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
