package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/florianHoidn/rl-drone-env/internal/analysis"
	"github.com/florianHoidn/rl-drone-env/internal/automation"
	"github.com/florianHoidn/rl-drone-env/internal/config"
	"github.com/florianHoidn/rl-drone-env/internal/env"
	"github.com/florianHoidn/rl-drone-env/internal/experiment"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/sim"
	"github.com/florianHoidn/rl-drone-env/internal/storage"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
	"github.com/florianHoidn/rl-drone-env/internal/viz"
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D7FF"))

func runFlight(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.NewRegistry())
	if err != nil {
		return err
	}
	exp.SetLogger(logger)

	logger.Debug("flying", "controller", cfg.Controller, "dt", cfg.Dt, "duration", cfg.Duration)
	start := time.Now()
	res, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	printResult(exp.Metadata().Name, res, time.Since(start))

	if save, _ := cmd.Flags().GetBool("save"); save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(exp.Metadata(), res)
		if err != nil {
			return err
		}
		logger.Info("saved run", "id", id)
	}
	return nil
}

func printResult(name string, res *sim.Result, elapsed time.Duration) {
	fmt.Println(titleStyle.Render(name))
	f := res.Final()
	fmt.Printf("steps %d in %v", res.StepsTaken, elapsed.Round(time.Microsecond))
	if res.Terminated {
		fmt.Print(" (left bounds)")
	}
	fmt.Println()
	fmt.Printf("final position %+.3f %+.3f %+.3f  tilt %.1f°\n",
		f.Position.X, f.Position.Y, f.Position.Z, f.Orientation.Tilt()*180/math.Pi)
	if len(res.Errors) > 0 {
		fmt.Printf("%d step errors, first: %v\n", len(res.Errors), res.Errors[0])
	}
	printMetrics(res.Metrics)
}

func printMetrics(m map[string]float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedNames(m) {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, m[name])
	}
	w.Flush()
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func liveModel(cfg *config.Config, theme string) (viz.Model, error) {
	exp, err := experiment.New(cfg, experiment.NewRegistry())
	if err != nil {
		return viz.Model{}, err
	}
	s := exp.Simulator()
	c := exp.Config()
	name := c.Name
	if name == "" {
		name = c.Controller
	}
	return viz.NewModel(s.Engine(), s.Controller(), c.InitialState(), viz.Options{
		Name:   name,
		Dt:     c.Dt,
		Bounds: c.Bounds,
		Theme:  theme,
	}), nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	theme, _ := cmd.Flags().GetString("theme")
	m, err := liveModel(cfg, theme)
	if err != nil {
		return err
	}
	return viz.Run(m)
}

func runMenu(cmd *cobra.Command, args []string) error {
	var items []viz.MenuItem
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		items = append(items, viz.MenuItem{
			Name:        name,
			Description: fmt.Sprintf("%s, %.0f s", p.Controller, p.Duration),
		})
	}
	return viz.Run(viz.NewMenu(items, func(name string) (viz.Model, error) {
		return liveModel(config.GetPreset(name), "")
	}))
}

func vizThemes() []string { return viz.ThemeNames() }

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.NewRegistry())
	if err != nil {
		return err
	}
	n, _ := cmd.Flags().GetInt("runs")
	posNoise, _ := cmd.Flags().GetFloat64("pos-noise")
	rateNoise, _ := cmd.Flags().GetFloat64("rate-noise")

	ens := exp.Ensemble(n, posNoise, rateNoise)
	ens.Logger = logger
	start := time.Now()
	results, err := ens.Run(cmd.Context(), exp.Config().InitialState(), exp.SimConfig())
	if err != nil {
		return err
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Println(titleStyle.Render(fmt.Sprintf("%d runs in %v", len(results), time.Since(start).Round(time.Millisecond))))
	fmt.Printf("stable %d  unstable %d\n\n", stable, unstable)

	byMetric := map[string][]float64{}
	for _, r := range results {
		for k, v := range r.Metrics {
			byMetric[k] = append(byMetric[k], v)
		}
	}
	names := make([]string, 0, len(byMetric))
	for k := range byMetric {
		names = append(names, k)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, k := range names {
		s := analysis.Summarize(byMetric[k])
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\n", k, s.Mean, s.StdDev, s.Min, s.Max)
	}
	return w.Flush()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	spec, err := cfg.LoadVehicle()
	if err != nil {
		return err
	}
	e := env.New(spec, cfg.InitialState(),
		env.WithBounds(cfg.Bounds),
		env.WithLogger(logger),
		env.WithEngineOptions(physics.WithActionClamping(cfg.ClampActions)),
	)
	logger.Info("serving", "dt", cfg.Dt, "observation_bytes", env.ObservationSize, "response_bytes", env.ResponseSize)
	return e.Serve(cmd.Context(), os.Stdin, os.Stdout, cfg.Dt)
}

func printSpaces(cmd *cobra.Command, args []string) error {
	obs, act := env.ObservationSpace(), env.ActionSpace()
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(map[string]any{
		"observation": obs,
		"action":      act,
		"hover_bias":  env.StableHoverBias,
	})
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
	results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), st, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTEPS\tTERMINATED\tALT ERR\tRUN")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%v\t%.4g\t%s\n",
			r.Name, r.Result.StepsTaken, r.Result.Terminated, r.Result.Metrics["altitude_error"], r.RunID)
	}
	w.Flush()
	return err
}

// parseGrid reads "name=min:max:steps".
func parseGrid(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	parts := strings.Split(rng, ":")
	if !ok || len(parts) != 3 {
		return "", nil, fmt.Errorf("grid %q: want name=min:max:steps", spec)
	}
	lo, err1 := strconv.ParseFloat(parts[0], 64)
	hi, err2 := strconv.ParseFloat(parts[1], 64)
	n, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || n < 1 {
		return "", nil, fmt.Errorf("grid %q: bad range", spec)
	}
	return name, (&automation.ParameterSweep{Min: lo, Max: hi, NumSteps: n}).Values(), nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	grids, _ := cmd.Flags().GetStringSlice("grid")
	metric, _ := cmd.Flags().GetString("metric")

	var params []string
	var ranges [][]float64
	for _, g := range grids {
		name, values, err := parseGrid(g)
		if err != nil {
			return err
		}
		params = append(params, name)
		ranges = append(ranges, values)
	}
	gs, err := automation.NewGridSearch(params, ranges)
	if err != nil {
		return err
	}

	start := time.Now()
	best, val, err := gs.Search(cmd.Context(), cfg, experiment.NewRegistry(), metric)
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("best %s %.6g (%v)", metric, val, time.Since(start).Round(time.Millisecond))))
	printMetrics(best)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	param, _ := cmd.Flags().GetString("param")
	lo, _ := cmd.Flags().GetFloat64("min")
	hi, _ := cmd.Flags().GetFloat64("max")
	n, _ := cmd.Flags().GetInt("steps")

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base: cfg, Param: param, Min: lo, Max: hi, NumSteps: n,
	}, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	names := sortedNames(results[0].Metrics)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(param), strings.ToUpper(strings.Join(names, "\t")))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g", r.Value)
		for _, k := range names {
			fmt.Fprintf(w, "\t%.4g", r.Metrics[k])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, nil)
	if err != nil {
		return err
	}
	spec, err := cfg.LoadVehicle()
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	names := args
	if len(names) == 0 {
		names = reg.ListIntegrators()
	}

	offset, _ := cmd.Flags().GetFloat64("rpm-offset")
	u := physics.Uniform(spec.HoverRPM())
	u.RPM[0] += offset
	u.RPM[2] += offset

	reports, err := reg.CompareIntegrators(spec, cfg.InitialState(), u, cfg.Duration, cfg.Dt, names)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tMAX ERROR\tTIME")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%d\t%.3e\t%v\n", r.Name, r.Steps, r.MaxError, r.Elapsed.Round(time.Microsecond))
	}
	return w.Flush()
}

func benchEngine(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("steps")
	spec := vehicle.Crazyflie()
	engine := physics.NewEngine(spec)
	x0 := physics.DefaultState()
	x0.Position.Z = 1
	engine.Reset(x0)
	u := physics.Uniform(spec.HoverRPM())

	start := time.Now()
	for i := 0; i < n; i++ {
		if err := engine.ApplyControl(u, config.DefaultDt); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("%d steps in %v (%.0f steps/s, %v/step)\n",
		n, elapsed.Round(time.Microsecond), float64(n)/elapsed.Seconds(), elapsed/time.Duration(max(n, 1)))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCONTROLLER\tDURATION\tTARGET Z")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%.1fs\t%.2f\n", name, p.Controller, p.Duration, p.ControllerParams.TargetZ)
	}
	return w.Flush()
}

func printVehicle(cmd *cobra.Command, args []string) error {
	spec := vehicle.Crazyflie()
	if len(args) > 0 {
		s, err := vehicle.Load(args[0])
		if err != nil {
			return err
		}
		spec = s
	}
	data, err := vehicle.Marshal(spec)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
