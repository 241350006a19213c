package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/florianHoidn/rl-drone-env/internal/config"
)

var (
	dataDir string
	verbose bool
	logger  = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "dronesim",
	})

	// Flight overrides shared by run, live, ensemble and serve.
	configFile string
	dt         float64
	duration   float64
	seed       int64
	controller string
	setParams  []string
	noClamp    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "dronesim",
		Short:        "quadrotor flight dynamics and RL environment",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		RunE: runMenu,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dronesim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "fly a preset or config file and print its metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFlight,
	}
	flightFlags(runCmd)
	runCmd.Flags().Bool("save", false, "store the run under --data")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "fly in the terminal with live views",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	flightFlags(liveCmd)
	liveCmd.Flags().String("theme", "", "colour theme ("+strings.Join(vizThemes(), ", ")+")")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "fly perturbed copies concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	flightFlags(ensembleCmd)
	ensembleCmd.Flags().Int("runs", 16, "number of runs")
	ensembleCmd.Flags().Float64("pos-noise", 0.05, "initial position std dev (m)")
	ensembleCmd.Flags().Float64("rate-noise", 0.5, "initial angular rate std dev (rad/s)")

	serveCmd := &cobra.Command{
		Use:   "serve [preset]",
		Short: "serve the agent protocol on stdin/stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	flightFlags(serveCmd)

	spacesCmd := &cobra.Command{
		Use:   "spaces",
		Short: "describe observation and action spaces",
		Args:  cobra.NoArgs,
		RunE:  printSpaces,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search controller parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	flightFlags(tuneCmd)
	tuneCmd.Flags().StringSlice("grid", []string{"kp=2:8:4"}, "param=min:max:steps")
	tuneCmd.Flags().String("metric", "altitude_error", "metric to minimize")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "sweep one controller parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	flightFlags(sweepCmd)
	sweepCmd.Flags().String("param", "kp", "parameter to sweep")
	sweepCmd.Flags().Float64("min", 1, "first value")
	sweepCmd.Flags().Float64("max", 10, "last value")
	sweepCmd.Flags().Int("steps", 10, "number of values")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on a hovering vehicle",
		RunE:  compareIntegrators,
	}
	flightFlags(compareCmd)
	compareCmd.Flags().Float64("rpm-offset", 500, "rpm added to rotors 0 and 2")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark engine steps",
		Args:  cobra.NoArgs,
		RunE:  benchEngine,
	}
	benchCmd.Flags().Int("steps", 100000, "steps to time")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	vehicleCmd := &cobra.Command{
		Use:   "vehicle [file]",
		Short: "print a vehicle description as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printVehicle,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored run columns",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSlice("columns", []string{"px", "py", "pz"}, "columns to plot")
	plotCmd.Flags().String("out", "", "write an image (png, svg, pdf, eps) instead of drawing in the terminal")
	plotCmd.Flags().Bool("ground", false, "plot the ground track instead of columns")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response, spectra and divergence of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64("target", config.DefaultTargetZ, "altitude target for the step response")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	rootCmd.AddCommand(runCmd, liveCmd, ensembleCmd, serveCmd, spacesCmd, scenarioCmd, tuneCmd, sweepCmd,
		compareCmd, benchCmd, presetsCmd, vehicleCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, exportCSVCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("failed", "err", err)
		os.Exit(1)
	}
}

func flightFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&controller, "controller", "", "controller (none, hover, constant, altitude_hold, linear_hover)")
	cmd.Flags().StringSliceVar(&setParams, "set", nil, "controller parameter name=value")
	cmd.Flags().BoolVar(&noClamp, "no-clamp", false, "reject out-of-range rotor commands instead of clamping")
}

// flightConfig resolves the config from --config, a preset argument or the
// defaults, then applies the flags the user set explicitly.
func flightConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case len(args) > 0:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)", args[0], strings.Join(config.ListPresets(), ", "))
		}
	default:
		cfg = config.DefaultConfig()
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
	if controller != "" {
		cfg.Controller = controller
	}
	if noClamp {
		cfg.ClampActions = false
	}
	for _, kv := range setParams {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want name=value", kv)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", kv, err)
		}
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}
