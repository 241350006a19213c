package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"

	"github.com/florianHoidn/rl-drone-env/internal/analysis"
	"github.com/florianHoidn/rl-drone-env/internal/config"
	"github.com/florianHoidn/rl-drone-env/internal/dynamo"
	"github.com/florianHoidn/rl-drone-env/internal/experiment"
	"github.com/florianHoidn/rl-drone-env/internal/export"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/storage"
	"github.com/florianHoidn/rl-drone-env/internal/viz"
)

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
	fmt.Fprintln(w, "ID\tCTRL\tTIME\tDURATION\tDT\tSTEPS\tTERMINATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%v\n",
			run.ID,
			run.Controller,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			run.Terminated,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	columns, _ := cmd.Flags().GetStringSlice("columns")
	out, _ := cmd.Flags().GetString("out")
	ground, _ := cmd.Flags().GetBool("ground")

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	table, err := st.LoadTable(runID)
	if err != nil {
		return err
	}
	if len(table.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	if out != "" {
		var p *plot.Plot
		if ground {
			p, err = export.GroundTrackPlot(meta.Name, table)
		} else {
			p, err = export.ColumnsPlot(meta.Name, table, columns...)
		}
		if err != nil {
			return err
		}
		if err := export.Save(out, p, export.DefaultWidth, export.DefaultHeight); err != nil {
			return err
		}
		logger.Info("wrote plot", "path", out)
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(table.Rows))
	if ground {
		columns = []string{"px", "py"}
	}
	series := make([][]float64, 0, len(columns))
	for _, name := range columns {
		col, err := table.Column(name)
		if err != nil {
			return err
		}
		series = append(series, col)
	}
	fmt.Println(viz.MultiChart(series, columns, meta.Name, 80, 12))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	target, _ := cmd.Flags().GetFloat64("target")

	st := storage.New(dataDir)
	run, err := st.LoadRun(runID)
	if err != nil {
		return err
	}
	if len(run.States) < 2 {
		return fmt.Errorf("run %s has too few samples", runID)
	}
	meta := run.Meta

	fmt.Println(titleStyle.Render(meta.ID))
	z := make([]float64, len(run.States))
	tilt := make([]float64, len(run.States))
	for i, s := range run.States {
		z[i] = s.Position.Z
		tilt[i] = s.Orientation.Tilt() * 180 / math.Pi
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tMEAN\tSTD\tMIN\tMAX\tRMS")
	for _, row := range []struct {
		name string
		s    analysis.Summary
	}{{"altitude (m)", analysis.Summarize(z)}, {"tilt (deg)", analysis.Summarize(tilt)}} {
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n", row.name, row.s.Mean, row.s.StdDev, row.s.Min, row.s.Max, row.s.RMS)
	}
	w.Flush()

	resp, err := analysis.StepResponse(run.Times, z, target)
	if err != nil {
		return err
	}
	fmt.Printf("\naltitude step to %.2f m\n", target)
	fmt.Printf("  rise time     %.3f s\n", resp.RiseTime)
	fmt.Printf("  overshoot     %.3f m\n", resp.Overshoot)
	fmt.Printf("  settling time %.3f s\n", resp.SettlingTime)
	fmt.Printf("  final error   %.4f m\n", resp.FinalError)

	fmt.Println("\ndominant frequencies")
	table, err := st.LoadTable(runID)
	if err != nil {
		return err
	}
	for _, name := range []string{"pz", "wx", "wy", "wz"} {
		col, err := table.Column(name)
		if err != nil {
			return err
		}
		fmt.Printf("  %-3s %.3f Hz\n", name, analysis.DominantFrequency(col, meta.Dt))
	}

	rate, label, err := divergence(run)
	if err != nil {
		return err
	}
	fmt.Printf("\nlargest divergence rate %.4f 1/s (perturbing %s)\n", rate, label)
	return nil
}

// divergence estimates the divergence rate around the first recorded state
// under the first recorded action for every state component and returns the
// largest.
func divergence(run *storage.Run) (float64, string, error) {
	cfg := config.DefaultConfig()
	cfg.Vehicle = run.Meta.Vehicle
	spec, err := cfg.LoadVehicle()
	if err != nil {
		return 0, "", err
	}
	integ, err := experiment.NewRegistry().GetIntegrator("rk4")
	if err != nil {
		return 0, "", err
	}

	u := physics.Uniform(spec.HoverRPM())
	if len(run.Actions) > 0 {
		u = run.Actions[0]
	}
	dyn := physics.NewDynamics(spec)
	x0 := dynamo.State(run.States[0].Flatten())
	ctrl := dynamo.Control(u.Slice())

	best, label := math.Inf(-1), ""
	for i, name := range physics.StateLabels {
		r := analysis.DivergenceRate(dyn, integ, x0, ctrl, i, run.Meta.Dt, run.Meta.Duration, 1e-6)
		if r > best {
			best, label = r, name
		}
	}
	return best, label, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportCSV(os.Stdout, args[0])
}
