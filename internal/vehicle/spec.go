package vehicle

import (
	"errors"
	"fmt"
	"math"

	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

const (
	NumRotors = 4

	MinRPM = 0.0
	MaxRPM = 21702.0

	StandardGravity = 9.81
)

var ErrInvalidSpec = errors.New("vehicle: invalid specification")

// Spec holds the physical constants of one drone configuration. Rotor i is
// described by RotorPositions[i], ThrustDirections[i] and TorqueDirections[i],
// all in the body frame.
type Spec struct {
	Name             string
	ThrustCoefs      linalg.Vec3 // c0 + c1*rpm + c2*rpm^2
	TorqueCoef       float64
	Mass             float64
	Inertia          linalg.Mat3
	InertiaInv       linalg.Mat3
	RotorPositions   [NumRotors]linalg.Vec3
	ThrustDirections [NumRotors]linalg.Vec3
	TorqueDirections [NumRotors]linalg.Vec3
}

// Crazyflie returns the calibrated spec of a Crazyflie 2.x class micro quad.
func Crazyflie() *Spec {
	up := linalg.Vec3{Z: 1}
	return &Spec{
		Name:        "crazyflie",
		ThrustCoefs: linalg.Vec3{X: 0, Y: 0, Z: 3.16e-10},
		TorqueCoef:  0.005964552,
		Mass:        0.027,
		Inertia:     linalg.Mat3Diag(3.85e-6, 3.85e-6, 5.9675e-6),
		InertiaInv:  linalg.Mat3Diag(259740.2597402597, 259740.2597402597, 167574.36112274823),
		RotorPositions: [NumRotors]linalg.Vec3{
			{X: 0.028, Y: -0.028},
			{X: -0.028, Y: -0.028},
			{X: -0.028, Y: 0.028},
			{X: 0.028, Y: 0.028},
		},
		ThrustDirections: [NumRotors]linalg.Vec3{up, up, up, up},
		TorqueDirections: [NumRotors]linalg.Vec3{
			{Z: -1}, {Z: 1}, {Z: -1}, {Z: 1},
		},
	}
}

func (s *Spec) RotorThrust(rpm float64) float64 {
	return s.ThrustCoefs.X + s.ThrustCoefs.Y*rpm + s.ThrustCoefs.Z*rpm*rpm
}

// Wrench sums the body-frame thrust and torque produced by the four rotors.
// Each rotor contributes a reaction torque along its torque direction and a
// moment-arm torque r × f.
func (s *Spec) Wrench(rpm [NumRotors]float64) (thrust, torque linalg.Vec3) {
	for i := 0; i < NumRotors; i++ {
		mag := s.RotorThrust(rpm[i])
		f := s.ThrustDirections[i].Scale(mag)
		thrust.AddInPlace(f)
		torque.AddScaled(s.TorqueDirections[i], mag*s.TorqueCoef)
		torque.AddCross(s.RotorPositions[i], f)
	}
	return thrust, torque
}

// HoverRPM is the rotor speed at which four equal rotors carry the vehicle's
// weight under standard gravity, assuming vertical thrust directions.
func (s *Spec) HoverRPM() float64 {
	return s.RPMForThrust(s.Mass * StandardGravity / NumRotors)
}

// RPMForThrust inverts RotorThrust, taking the larger root of the quadratic.
// It returns NaN when no real rotor speed produces thrust f.
func (s *Spec) RPMForThrust(f float64) float64 {
	c0, c1, c2 := s.ThrustCoefs.X, s.ThrustCoefs.Y, s.ThrustCoefs.Z
	if c2 == 0 {
		if c1 == 0 {
			return math.NaN()
		}
		return (f - c0) / c1
	}
	disc := c1*c1 - 4*c2*(c0-f)
	if disc < 0 {
		return math.NaN()
	}
	return (-c1 + math.Sqrt(disc)) / (2 * c2)
}

// MaxThrust is the total thrust with every rotor at MaxRPM.
func (s *Spec) MaxThrust() float64 {
	return NumRotors * s.RotorThrust(MaxRPM)
}

// Validate rejects specs the engine cannot fly, including one whose rotors at
// MaxRPM cannot lift its weight.
func (s *Spec) Validate() error {
	if !(s.Mass > 0) || math.IsInf(s.Mass, 0) {
		return fmt.Errorf("%w: mass must be positive, got %g", ErrInvalidSpec, s.Mass)
	}
	if !s.ThrustCoefs.IsFinite() || math.IsNaN(s.TorqueCoef) || math.IsInf(s.TorqueCoef, 0) {
		return fmt.Errorf("%w: non-finite thrust or torque coefficients", ErrInvalidSpec)
	}
	if w := s.Mass * StandardGravity; !(s.MaxThrust() > w) {
		return fmt.Errorf("%w: max thrust %g N cannot lift weight %g N", ErrInvalidSpec, s.MaxThrust(), w)
	}
	for i := 0; i < NumRotors; i++ {
		if n := s.ThrustDirections[i].Norm(); math.Abs(n-1) > 1e-9 {
			return fmt.Errorf("%w: rotor %d thrust direction not unit length (%g)", ErrInvalidSpec, i, n)
		}
		if !s.RotorPositions[i].IsFinite() || !s.TorqueDirections[i].IsFinite() {
			return fmt.Errorf("%w: rotor %d geometry not finite", ErrInvalidSpec, i)
		}
	}

	var prod mat.Dense
	prod.Mul(dense(s.Inertia), dense(s.InertiaInv))
	if !mat.EqualApprox(&prod, eye3(), 1e-9) {
		return fmt.Errorf("%w: inertia_inv is not the inverse of inertia", ErrInvalidSpec)
	}
	return nil
}

// InvertInertia returns J⁻¹ for a non-singular inertia tensor.
func InvertInertia(j linalg.Mat3) (linalg.Mat3, error) {
	var inv mat.Dense
	if err := inv.Inverse(dense(j)); err != nil {
		return linalg.Mat3{}, fmt.Errorf("%w: inertia not invertible: %v", ErrInvalidSpec, err)
	}
	var out linalg.Mat3
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			out[i*3+k] = inv.At(i, k)
		}
	}
	return out, nil
}

func dense(m linalg.Mat3) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0], m[1], m[2],
		m[3], m[4], m[5],
		m[6], m[7], m[8],
	})
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}
