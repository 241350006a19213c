package physics

import (
	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// Gravity is the world-frame gravitational acceleration.
var Gravity = linalg.Vec3{Z: -vehicle.StandardGravity}

// Model is the continuous-time vector field of one vehicle: thrust and torque
// from the rotors plus gravity acting on a single rigid body.
type Model struct {
	spec    vehicle.Spec
	gravity linalg.Vec3
}

// NewModel copies spec; later changes to *spec do not affect the model.
func NewModel(spec *vehicle.Spec) Model {
	return Model{spec: *spec, gravity: Gravity}
}

func (m *Model) Spec() vehicle.Spec   { return m.spec }
func (m *Model) Gravity() linalg.Vec3 { return m.gravity }

// Derivative evaluates ds/dt at state s under action a.
func (m *Model) Derivative(s DroneState, a ControlAction) DroneState {
	thrust, torque := m.spec.Wrench(a.RPM)
	return m.derive(s, thrust, torque)
}

func (m *Model) derive(s DroneState, thrust, torque linalg.Vec3) DroneState {
	var d DroneState

	d.Position = s.LinearVelocity
	d.Orientation = linalg.QuatDerivative(s.Orientation, s.AngularVelocity)

	d.LinearVelocity = linalg.Rotate(s.Orientation, thrust)
	d.LinearVelocity.ScaleInPlace(1.0 / m.spec.Mass)
	d.LinearVelocity.AddInPlace(m.gravity)

	// Euler: J ω̇ = τ − ω × (J ω)
	w := s.AngularVelocity
	tau := torque.Sub(w.Cross(m.spec.Inertia.MulVec(w)))
	d.AngularVelocity = m.spec.InertiaInv.MulVec(tau)

	return d
}

// Energy is translational plus rotational kinetic energy plus potential
// energy relative to z = 0.
func (m *Model) Energy(s DroneState) float64 {
	v := s.LinearVelocity
	w := s.AngularVelocity
	ke := 0.5 * m.spec.Mass * v.Dot(v)
	keRot := 0.5 * w.Dot(m.spec.Inertia.MulVec(w))
	pe := -m.spec.Mass * m.gravity.Dot(s.Position)
	return ke + keRot + pe
}
