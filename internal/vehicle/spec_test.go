package vehicle

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/florianHoidn/rl-drone-env/internal/linalg"
)

func TestCrazyflieValid(t *testing.T) {
	if err := Crazyflie().Validate(); err != nil {
		t.Fatalf("default spec invalid: %v", err)
	}
}

func TestRotorThrust(t *testing.T) {
	s := Crazyflie()
	tests := []struct {
		rpm  float64
		want float64
	}{
		{0, 0},
		{10000, 3.16e-10 * 1e8},
		{MaxRPM, 3.16e-10 * MaxRPM * MaxRPM},
	}
	for _, tt := range tests {
		if got := s.RotorThrust(tt.rpm); math.Abs(got-tt.want) > 1e-15 {
			t.Errorf("RotorThrust(%f) = %g, want %g", tt.rpm, got, tt.want)
		}
	}
}

func TestWrench_BalancedAtEqualRPM(t *testing.T) {
	s := Crazyflie()
	rpm := 12000.0
	thrust, torque := s.Wrench([NumRotors]float64{rpm, rpm, rpm, rpm})

	want := 4 * s.RotorThrust(rpm)
	if math.Abs(thrust.Z-want) > 1e-15 || thrust.X != 0 || thrust.Y != 0 {
		t.Errorf("thrust = %v, want (0,0,%g)", thrust, want)
	}
	if torque.Norm() > 1e-18 {
		t.Errorf("expected zero net torque, got %v", torque)
	}
}

func TestWrench_Components(t *testing.T) {
	s := Crazyflie()
	rpm := [NumRotors]float64{10000, 0, 0, 0}
	thrust, torque := s.Wrench(rpm)

	f := s.RotorThrust(10000)
	if math.Abs(thrust.Z-f) > 1e-15 {
		t.Errorf("thrust.z = %g, want %g", thrust.Z, f)
	}

	// rotor 0 sits at (+x, -y) and spins with a negative reaction torque
	want := linalg.Vec3{X: -0.028 * f, Y: -0.028 * f, Z: -f * s.TorqueCoef}
	if math.Abs(torque.X-want.X) > 1e-15 || math.Abs(torque.Y-want.Y) > 1e-15 || math.Abs(torque.Z-want.Z) > 1e-15 {
		t.Errorf("torque = %v, want %v", torque, want)
	}
}

func TestHoverRPM(t *testing.T) {
	s := Crazyflie()
	hover := s.HoverRPM()
	if hover <= MinRPM || hover >= MaxRPM {
		t.Fatalf("hover rpm out of range: %f", hover)
	}
	total := 4 * s.RotorThrust(hover)
	weight := s.Mass * StandardGravity
	if math.Abs(total-weight) > 1e-12 {
		t.Errorf("hover thrust %g does not balance weight %g", total, weight)
	}
}

func TestHoverRPM_Linear(t *testing.T) {
	s := Crazyflie()
	s.ThrustCoefs = linalg.Vec3{X: 0.01, Y: 1e-5}
	hover := s.HoverRPM()
	if math.Abs(4*s.RotorThrust(hover)-s.Mass*StandardGravity) > 1e-12 {
		t.Errorf("linear hover rpm %f does not balance weight", hover)
	}
}

func TestRPMForThrust(t *testing.T) {
	s := Crazyflie()
	for _, rpm := range []float64{0, 5000, 14000, MaxRPM} {
		got := s.RPMForThrust(s.RotorThrust(rpm))
		if math.Abs(got-rpm) > 1e-6 {
			t.Errorf("RPMForThrust(RotorThrust(%f)) = %f", rpm, got)
		}
	}
	if !math.IsNaN(s.RPMForThrust(-1)) {
		t.Errorf("expected NaN for negative thrust with a pure quadratic model")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"zero mass", func(s *Spec) { s.Mass = 0 }},
		{"nan mass", func(s *Spec) { s.Mass = math.NaN() }},
		{"nan coef", func(s *Spec) { s.ThrustCoefs.Z = math.NaN() }},
		{"too heavy to hover", func(s *Spec) { s.Mass = 0.1 }},
		{"non-unit thrust dir", func(s *Spec) { s.ThrustDirections[2] = linalg.Vec3{Z: 2} }},
		{"wrong inverse", func(s *Spec) { s.InertiaInv = linalg.Mat3Diag(1, 1, 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Crazyflie()
			tt.mutate(s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("expected ErrInvalidSpec, got %v", err)
			}
		})
	}
}

func TestInvertInertia(t *testing.T) {
	inv, err := InvertInertia(Crazyflie().Inertia)
	if err != nil {
		t.Fatalf("invert failed: %v", err)
	}
	want := Crazyflie().InertiaInv
	for i := range inv {
		if math.Abs(inv[i]-want[i]) > 1e-6 {
			t.Errorf("inv[%d] = %f, want %f", i, inv[i], want[i])
		}
	}

	if _, err := InvertInertia(linalg.Mat3{}); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("expected ErrInvalidSpec for singular inertia, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cf.yaml")
	if err := Save(path, Crazyflie()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *s != *Crazyflie() {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", s, Crazyflie())
	}
}

func TestParse_ComputesInverse(t *testing.T) {
	doc := `
name: heavy
thrust_coefs: [0, 0, 1.0e-8]
torque_coef: 0.01
mass: 1.2
inertia: [0.01, 0, 0, 0, 0.01, 0, 0, 0, 0.02]
rotors:
  - {position: [0.2, -0.2, 0], thrust_direction: [0, 0, 1], torque_direction: [0, 0, -1]}
  - {position: [-0.2, -0.2, 0], thrust_direction: [0, 0, 1], torque_direction: [0, 0, 1]}
  - {position: [-0.2, 0.2, 0], thrust_direction: [0, 0, 1], torque_direction: [0, 0, -1]}
  - {position: [0.2, 0.2, 0], thrust_direction: [0, 0, 1], torque_direction: [0, 0, 1]}
`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if math.Abs(s.InertiaInv[8]-50) > 1e-9 {
		t.Errorf("expected computed J_inv[2][2] = 50, got %f", s.InertiaInv[8])
	}
}

func TestParse_RotorCount(t *testing.T) {
	_, err := Parse([]byte("mass: 1\nrotors: []\n"))
	if !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("expected ErrInvalidSpec, got %v", err)
	}
}
