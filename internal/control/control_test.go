package control

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

func TestNone(t *testing.T) {
	a := NewNone().Compute(physics.DefaultState(), 0)
	if a != (physics.ControlAction{}) {
		t.Errorf("expected zero action, got %v", a)
	}
}

func TestHover(t *testing.T) {
	spec := vehicle.Crazyflie()
	a := NewHover(spec).Compute(physics.DefaultState(), 3)
	for i, rpm := range a.RPM {
		if rpm != spec.HoverRPM() {
			t.Errorf("rotor %d = %f, want %f", i, rpm, spec.HoverRPM())
		}
	}
}

func TestPID(t *testing.T) {
	p := NewPID(2, 0, 1, 1)
	if u := p.Update(0, 0); u != 2 {
		t.Errorf("first output = %f, want 2", u)
	}
	// measurement rising at 1 per second damps the output
	if u := p.Update(0.5, 0.5); math.Abs(u-(2*0.5-1)) > 1e-12 {
		t.Errorf("second output = %f, want 0", u)
	}

	p = NewPID(0, 1, 0, 1)
	p.IntegralLimit = 0.3
	p.Update(0, 0)
	for i := 1; i <= 10; i++ {
		p.Update(0, float64(i))
	}
	if p.Integral() != 0.3 {
		t.Errorf("integral = %f, want clamped 0.3", p.Integral())
	}
	p.Reset()
	if p.Integral() != 0 {
		t.Errorf("Reset did not clear integral")
	}
}

func TestAltitudeHold_EquilibriumIsHover(t *testing.T) {
	spec := vehicle.Crazyflie()
	h, err := NewAltitudeHold(spec, 0)
	if err != nil {
		t.Fatal(err)
	}
	a := h.Compute(physics.DefaultState(), 0)
	for i, rpm := range a.RPM {
		if math.Abs(rpm-spec.HoverRPM()) > 1e-6 {
			t.Errorf("rotor %d = %f, want hover %f", i, rpm, spec.HoverRPM())
		}
	}
}

func fly(t *testing.T, ctrl Controller, start physics.DroneState, seconds float64) *physics.Engine {
	t.Helper()
	e := physics.NewEngine(vehicle.Crazyflie())
	e.Reset(start)
	dt := 1.0 / 240
	for i := 0; i < int(seconds/dt); i++ {
		a := ctrl.Compute(e.State(), float64(i)*dt)
		if err := e.ApplyControl(a, dt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	return e
}

func TestAltitudeHold_Climb(t *testing.T) {
	h, err := NewAltitudeHold(vehicle.Crazyflie(), 1)
	if err != nil {
		t.Fatal(err)
	}
	e := fly(t, h, physics.DefaultState(), 6)

	if z := e.Position().Z; math.Abs(z-1) > 0.05 {
		t.Errorf("altitude after 6 s = %f, want 1", z)
	}
	if tilt := e.Orientation().Tilt(); tilt > 1e-6 {
		t.Errorf("vertical climb tilted by %g rad", tilt)
	}
}

func TestAltitudeHold_Levels(t *testing.T) {
	h, err := NewAltitudeHold(vehicle.Crazyflie(), 0)
	if err != nil {
		t.Fatal(err)
	}
	start := physics.DefaultState()
	start.Orientation = linalg.QuatFromAxisAngle(linalg.Vec3{X: 1, Y: 1}, 0.2)
	start.AngularVelocity = linalg.Vec3{Z: 2}

	e := fly(t, h, start, 2)
	if tilt := e.Orientation().Tilt(); tilt > 0.02 {
		t.Errorf("tilt after 2 s = %f rad", tilt)
	}
	if wz := e.State().AngularVelocity.Z; math.Abs(wz) > 0.1 {
		t.Errorf("yaw rate not damped: %f", wz)
	}
}

func TestAltitudeHold_Params(t *testing.T) {
	h, err := NewAltitudeHold(vehicle.Crazyflie(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.SetParam("target_z", 2.5); err != nil {
		t.Fatalf("SetParam(target_z): %v", err)
	}
	if err := h.SetParam("att_kp", 100); err != nil {
		t.Fatalf("SetParam(att_kp): %v", err)
	}
	before := h.GetParams()
	if err := h.SetParam("bogus", 7); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("SetParam(bogus): expected ErrUnknownParam, got %v", err)
	}
	if !reflect.DeepEqual(h.GetParams(), before) {
		t.Errorf("unknown name changed parameters")
	}

	params := h.GetParams()
	if params["target_z"] != 2.5 || h.TargetZ() != 2.5 {
		t.Errorf("target_z not applied: %v", params)
	}
	if params["att_kp"] != 100 {
		t.Errorf("att_kp not applied: %v", params)
	}

	want := []string{"att_kd", "att_kp", "kd", "ki", "kp", "target_z", "yaw_kd"}
	if got := ParamNames(h); !reflect.DeepEqual(got, want) {
		t.Errorf("ParamNames = %v, want %v", got, want)
	}
}

func TestAltitudeHold_SingularLayout(t *testing.T) {
	spec := vehicle.Crazyflie()
	spec.RotorPositions = [vehicle.NumRotors]linalg.Vec3{}
	if _, err := NewAltitudeHold(spec, 1); !errors.Is(err, ErrSingularMixer) {
		t.Errorf("expected ErrSingularMixer, got %v", err)
	}
}

func TestStateFeedback(t *testing.T) {
	k := mat.NewDense(physics.ActionDim, physics.StateDim, nil)
	k.Set(0, 2, 100)
	target := physics.DefaultState()
	target.Position.Z = 1
	f, err := NewStateFeedback(k, target, physics.Uniform(1000))
	if err != nil {
		t.Fatal(err)
	}

	s := target
	s.Position.Z = 0.5
	a := f.Compute(s, 0)
	want := [physics.ActionDim]float64{1050, 1000, 1000, 1000}
	if a.RPM != want {
		t.Errorf("got %v, want %v", a.RPM, want)
	}

	if _, err := NewStateFeedback(mat.NewDense(2, 2, nil), target, physics.ControlAction{}); err == nil {
		t.Error("expected dimension error")
	}
}

func TestLinearHover(t *testing.T) {
	spec := vehicle.Crazyflie()
	f, err := NewLinearHover(spec, 1)
	if err != nil {
		t.Fatal(err)
	}

	at := physics.DefaultState()
	at.Position.Z = 1
	for i, rpm := range f.Compute(at, 0).RPM {
		if math.Abs(rpm-spec.HoverRPM()) > 1e-9 {
			t.Errorf("rotor %d = %v at target, want hover", i, rpm)
		}
	}

	low := at
	low.Position.Z = 0.8
	for i, rpm := range f.Compute(low, 0).RPM {
		if rpm <= spec.HoverRPM() {
			t.Errorf("rotor %d = %v below target, want more than hover", i, rpm)
		}
	}

	e := physics.NewEngine(spec)
	e.Reset(low)
	const dt = 1.0 / 240
	for i := 0; i < 5*240; i++ {
		if err := e.ApplyControl(f.Compute(e.State(), float64(i)*dt), dt); err != nil {
			t.Fatal(err)
		}
	}
	if z := e.State().Position.Z; math.Abs(z-1) > 0.02 {
		t.Errorf("z = %v after 5 s, want within 2 cm of 1", z)
	}
}
