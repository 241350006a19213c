package automation

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/florianHoidn/rl-drone-env/internal/config"
	"github.com/florianHoidn/rl-drone-env/internal/experiment"
	"github.com/florianHoidn/rl-drone-env/internal/storage"
)

const scenarioYAML = `
name: smoke
description: hover then drop
steps:
  - preset: hover
    duration: 0.5
    save_as: hover-short
  - preset: drop
  - controller: altitude_hold
    duration: 0.25
    params:
      target_z: 0.5
`

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "smoke" || len(sc.Steps) != 3 {
		t.Fatalf("parsed %+v", sc)
	}
	if sc.Steps[2].Params["target_z"] != 0.5 {
		t.Errorf("params = %v", sc.Steps[2].Params)
	}

	if _, err := ParseScenario([]byte("name: empty\n")); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestScenarioStepConfig(t *testing.T) {
	tests := []struct {
		name    string
		step    ScenarioStep
		wantErr bool
		check   func(*testing.T, *config.Config)
	}{
		{
			name: "preset override",
			step: ScenarioStep{Preset: "hover", Duration: 2, SaveAs: "h"},
			check: func(t *testing.T, c *config.Config) {
				if c.Duration != 2 || c.Name != "h" || c.Controller != "hover" {
					t.Errorf("got %+v", c)
				}
			},
		},
		{
			name: "defaults with params",
			step: ScenarioStep{Params: map[string]float64{"kp": 3}},
			check: func(t *testing.T, c *config.Config) {
				if c.ControllerParams.Kp != 3 || c.Controller != "altitude_hold" {
					t.Errorf("got %+v", c)
				}
			},
		},
		{name: "unknown preset", step: ScenarioStep{Preset: "loop"}, wantErr: true},
		{name: "unknown param", step: ScenarioStep{Params: map[string]float64{"gain": 1}}, wantErr: true},
		{name: "missing config file", step: ScenarioStep{Config: "/nonexistent/cfg.yaml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.step.Resolve()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	store := storage.New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), store, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].RunID == "" || results[1].RunID != "" {
		t.Errorf("only the first step should be saved: %+v", results)
	}
	if !results[1].Result.Terminated {
		t.Error("drop step should hit the floor")
	}

	runs, err := store.List()
	if err != nil || len(runs) != 1 || runs[0].Name != "hover-short" {
		t.Errorf("stored runs = %v, %v", runs, err)
	}
}

func TestRunScenarioStopsOnError(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Preset: "hover", Duration: 0.1},
		{Controller: "bogus"},
		{Preset: "hover"},
	}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil, quietLogger())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(results) != 1 {
		t.Errorf("expected the first result only, got %d", len(results))
	}
}

func TestSweepValues(t *testing.T) {
	s := &ParameterSweep{Min: 1, Max: 2, NumSteps: 5}
	want := []float64{1, 1.25, 1.5, 1.75, 2}
	got := s.Values()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Values()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if got := (&ParameterSweep{Min: 3, NumSteps: 1}).Values(); len(got) != 1 || got[0] != 3 {
		t.Errorf("single step = %v", got)
	}
}

func TestGridSearchMatchesSweep(t *testing.T) {
	base := config.GetPreset("climb")
	base.Duration = 2
	reg := experiment.NewRegistry()
	kps := []float64{2, 6}

	sweep := &ParameterSweep{Base: base, Param: "kp", Min: kps[0], Max: kps[1], NumSteps: 2}
	swept, err := RunSweep(context.Background(), sweep, reg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	bestKp, bestErr := 0.0, math.Inf(1)
	for _, r := range swept {
		if v := r.Metrics["altitude_error"]; v < bestErr {
			bestKp, bestErr = r.Value, v
		}
	}

	gs, err := NewGridSearch([]string{"kp"}, [][]float64{kps})
	if err != nil {
		t.Fatal(err)
	}
	params, val, err := gs.Search(context.Background(), base, reg, "altitude_error")
	if err != nil {
		t.Fatal(err)
	}
	if params["kp"] != bestKp || math.Abs(val-bestErr) > 1e-12 {
		t.Errorf("grid search picked kp=%v (%v), sweep best kp=%v (%v)", params["kp"], val, bestKp, bestErr)
	}

	if _, err := NewGridSearch([]string{"kp", "kd"}, [][]float64{kps}); err == nil {
		t.Error("expected error for mismatched ranges")
	}
	if _, _, err := gs.Search(context.Background(), base, reg, "nope"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestGridSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gs, _ := NewGridSearch([]string{"kp"}, [][]float64{{1}})
	if _, _, err := gs.Search(ctx, config.DefaultConfig(), experiment.NewRegistry(), "altitude_error"); err == nil {
		t.Error("expected context error")
	}
}
