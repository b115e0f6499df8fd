package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidloop/internal/config"
	"github.com/san-kum/pidloop/internal/integrators"
	"github.com/san-kum/pidloop/internal/logging"
	"github.com/san-kum/pidloop/internal/loop"
	"github.com/san-kum/pidloop/internal/metrics"
	"github.com/san-kum/pidloop/internal/pid"
	"github.com/san-kum/pidloop/internal/plant"
	"github.com/san-kum/pidloop/internal/storage"
	"github.com/san-kum/pidloop/internal/tui"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool

	dt            float64
	duration      float64
	jitter        float64
	seed          int64
	integrator    string
	kp            float64
	ki            float64
	kd            float64
	setpoint      float64
	initialPV     float64
	outMin        float64
	outMax        float64
	integralLimit float64
	stopOnFault   bool
	nudge         float64
	runs          int
	// Config file
	configFile string
	// Preset name
	preset string
)

// main registers the bench commands and exits with status 1 when a command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "pidloop",
		Short:         "PID controller loop bench",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(os.Stderr, logLevel, logJSON)
			if err != nil {
				return err
			}
			slog.SetDefault(log)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidloop", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run [plant]",
		Short: "run the controller against a simulated plant",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoop,
	}
	addLoopFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [plant]",
		Short: "run the loop with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addLoopFlags(liveCmd)
	liveCmd.Flags().Float64Var(&nudge, "nudge", 1.0, "setpoint change per key press")

	compareCmd := &cobra.Command{
		Use:   "compare [plant] [integrator1] [integrator2] ...",
		Short: "run the same loop with different plant integrators",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	addLoopFlags(compareCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [plant]",
		Short: "repeat a jittered loop over consecutive seeds",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	addLoopFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 16, "number of seeds")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
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
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trace to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(cmd.OutOrStdout(), args[0])
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and trace to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(cmd.OutOrStdout(), args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [plant]",
		Short: "list available presets for a plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for plant: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	plantsCmd := &cobra.Command{
		Use:   "plants",
		Short: "list simulated plants",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range plant.Names() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, compareCmd, ensembleCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, presetsCmd, plantsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addLoopFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sampling period")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&jitter, "jitter", 0, "relative sampling period jitter [0, 1)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "jitter random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "plant integrator (euler, rk4)")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
	cmd.Flags().Float64Var(&setpoint, "setpoint", config.DefaultSetpoint, "constant setpoint")
	cmd.Flags().Float64Var(&initialPV, "pv0", 0, "initial process value")
	cmd.Flags().Float64Var(&outMin, "out-min", 0, "output lower limit (needs --out-max above it)")
	cmd.Flags().Float64Var(&outMax, "out-max", 0, "output upper limit")
	cmd.Flags().Float64Var(&integralLimit, "integral-limit", 0, "integral clamp (0 disables)")
	cmd.Flags().BoolVar(&stopOnFault, "stop-on-fault", true, "halt on a non-finite controller output")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, preset, config file and explicitly set flags,
// in that order.
func resolveConfig(cmd *cobra.Command, plantName string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Plant = plantName

	if preset != "" {
		p := config.GetPreset(plantName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(plantName))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if loaded.Plant != plantName {
			return nil, fmt.Errorf("config file is for plant %s, not %s", loaded.Plant, plantName)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("jitter") {
		cfg.Jitter = jitter
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") || cfg.Integrator == "" {
		cfg.Integrator = integrator
	}
	if flags.Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if flags.Changed("setpoint") {
		cfg.Setpoints = []config.SetpointStep{{At: 0, Value: setpoint}}
	}
	if flags.Changed("pv0") {
		cfg.InitialPV = initialPV
	}
	if flags.Changed("out-min") {
		cfg.Limits.OutMin = outMin
	}
	if flags.Changed("out-max") {
		cfg.Limits.OutMax = outMax
	}
	if flags.Changed("integral-limit") {
		cfg.Limits.IntegralLimit = integralLimit
	}
	if flags.Changed("stop-on-fault") {
		cfg.StopOnFault = stopOnFault
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildRunner(cfg *config.Config, ctrl loop.Stepper) (*loop.Runner, plant.Model, error) {
	p, err := plant.Get(cfg.Plant, cfg.PlantParams)
	if err != nil {
		return nil, nil, err
	}
	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return nil, nil, err
	}
	return loop.New(p, integ, ctrl).WithLogger(slog.Default()), p, nil
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runner, p, err := buildRunner(cfg, cfg.Controller())
	if err != nil {
		return err
	}
	for _, m := range metrics.Defaults() {
		runner.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s loop...\n", cfg.Plant)
	start := time.Now()

	result, err := runner.Run(ctx, p.InitialState(cfg.InitialPV), cfg.LoopConfig())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Plant:      cfg.Plant,
		Preset:     preset,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Jitter:     cfg.Jitter,
		Integrator: cfg.Integrator,
		Gains:      map[string]float64{"Kp": cfg.Gains.Kp, "Ki": cfg.Gains.Ki, "Kd": cfg.Gains.Kd},
		Limited:    cfg.Limits.Enabled(),
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", result.Ticks)
	if len(result.Faults) > 0 {
		fmt.Printf("faults: %d (halted: %v)\n", len(result.Faults), result.Halted)
	}
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if cfg.Limits.Enabled() {
		slog.Warn("output and integral limits are not applied in the live view")
	}

	g := cfg.Gains
	ctrl := pid.NewShared(g.Kp, g.Ki, g.Kd)
	runner, p, err := buildRunner(cfg, ctrl)
	if err != nil {
		return err
	}

	sess, err := runner.Start(p.InitialState(cfg.InitialPV), cfg.LoopConfig())
	if err != nil {
		return err
	}

	return tui.Run(tui.NewModel(tui.Options{
		Name:  cfg.Plant,
		Gains: [3]float64{g.Kp, g.Ki, g.Kd},
		Nudge: nudge,
	}, ctrl, sess))
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	plantName := args[0]

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEG\tTICKS\tFAULTS\tIAE\tOVERSHOOT%\tSS_ERR\tEFFORT")

	for _, name := range args[1:] {
		cfg, err := resolveConfig(cmd, plantName)
		if err != nil {
			return err
		}
		cfg.Integrator = name

		runner, p, err := buildRunner(cfg, cfg.Controller())
		if err != nil {
			return err
		}
		for _, m := range metrics.Defaults() {
			runner.AddMetric(m)
		}

		result, err := runner.Run(context.Background(), p.InitialState(cfg.InitialPV), cfg.LoopConfig())
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%.2f\t%.6f\t%.4f\n",
			name,
			result.Ticks,
			len(result.Faults),
			result.Metrics["iae"],
			result.Metrics["overshoot_pct"],
			result.Metrics["steady_state_error"],
			result.Metrics["control_effort"],
		)
	}

	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if cfg.Jitter == 0 {
		slog.Warn("ensemble without jitter repeats an identical run", "runs", runs)
	}

	p, err := plant.Get(cfg.Plant, cfg.PlantParams)
	if err != nil {
		return err
	}

	build := func() (*loop.Runner, error) {
		r, _, err := buildRunner(cfg, cfg.Controller())
		if err != nil {
			return nil, err
		}
		for _, m := range metrics.Defaults() {
			r.AddMetric(m)
		}
		return r, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := loop.NewEnsemble(build, runs, cfg.Seed).Run(ctx, p.InitialState(cfg.InitialPV), cfg.LoopConfig())
	if err != nil {
		return err
	}

	faulted := 0
	for _, r := range results {
		if len(r.Faults) > 0 {
			faulted++
		}
	}
	fmt.Printf("%d runs, %d with faults\n\n", len(results), faulted)

	spread := loop.Summarize(results)
	names := make([]string, 0, len(spread))
	for name := range spread {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX\tN")
	for _, name := range names {
		s := spread[name]
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\t%d\n", name, s.Mean, s.Std, s.Min, s.Max, s.N)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tPLANT\tTIME\tDURATION\tDT\tKP\tKI\tKD\tFAULTS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%g\t%g\t%g\t%d\n",
			run.ID,
			run.Plant,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Gains["Kp"],
			run.Gains["Ki"],
			run.Gains["Kd"],
			run.Faults,
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

	samples, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("plant: %s\n", meta.Plant)
	fmt.Printf("samples: %d\n\n", len(samples))

	sp := make([]float64, len(samples))
	pv := make([]float64, len(samples))
	out := make([]float64, len(samples))
	for i, s := range samples {
		sp[i], pv[i], out[i] = s.Setpoint, s.PV, s.Output
	}

	fmt.Println(asciigraph.PlotMany([][]float64{sp, pv},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
		asciigraph.Caption("setpoint (yellow) and process value (green)"),
	))
	fmt.Println()

	fmt.Println(asciigraph.Plot(out,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("controller output"),
	))
	fmt.Println()

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
