package physics

import (
	"math"

	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

const (
	StateDim  = 13
	ActionDim = vehicle.NumRotors

	MinRPM = vehicle.MinRPM
	MaxRPM = vehicle.MaxRPM
)

// DroneState is the full instantaneous state of the rigid body. Position and
// LinearVelocity are world-frame; AngularVelocity is body-frame.
type DroneState struct {
	Position        linalg.Vec3
	Orientation     linalg.Quat
	LinearVelocity  linalg.Vec3
	AngularVelocity linalg.Vec3
}

// DefaultState is at rest at the origin with identity orientation.
func DefaultState() DroneState {
	return DroneState{Orientation: linalg.QuatIdentity()}
}

// AddScaled adds d*s to every component of x. Used to form RK stages.
func (x *DroneState) AddScaled(d DroneState, s float64) {
	x.Position.AddScaled(d.Position, s)
	x.Orientation.AddScaled(d.Orientation, s)
	x.LinearVelocity.AddScaled(d.LinearVelocity, s)
	x.AngularVelocity.AddScaled(d.AngularVelocity, s)
}

func (x DroneState) IsFinite() bool {
	return x.Position.IsFinite() && x.Orientation.IsFinite() &&
		x.LinearVelocity.IsFinite() && x.AngularVelocity.IsFinite()
}

// bounded reports whether the squared magnitude of every vector in x fits in
// a float64.
func (x DroneState) bounded() bool {
	for _, v := range [...]linalg.Vec3{x.Position, x.LinearVelocity, x.AngularVelocity} {
		if math.IsInf(v.Dot(v), 0) {
			return false
		}
	}
	return true
}

// Flatten returns the 13 scalars in the order
// px py pz qx qy qz qw vx vy vz wx wy wz.
func (x DroneState) Flatten() []float64 {
	return x.AppendTo(make([]float64, 0, StateDim))
}

func (x DroneState) AppendTo(dst []float64) []float64 {
	return append(dst,
		x.Position.X, x.Position.Y, x.Position.Z,
		x.Orientation.X, x.Orientation.Y, x.Orientation.Z, x.Orientation.W,
		x.LinearVelocity.X, x.LinearVelocity.Y, x.LinearVelocity.Z,
		x.AngularVelocity.X, x.AngularVelocity.Y, x.AngularVelocity.Z,
	)
}

// StateFromSlice is the inverse of Flatten. v must hold at least StateDim values.
func StateFromSlice(v []float64) DroneState {
	_ = v[StateDim-1]
	return DroneState{
		Position:        linalg.Vec3{X: v[0], Y: v[1], Z: v[2]},
		Orientation:     linalg.Quat{X: v[3], Y: v[4], Z: v[5], W: v[6]},
		LinearVelocity:  linalg.Vec3{X: v[7], Y: v[8], Z: v[9]},
		AngularVelocity: linalg.Vec3{X: v[10], Y: v[11], Z: v[12]},
	}
}

// StateLabels names the flattened components.
var StateLabels = [StateDim]string{
	"px", "py", "pz",
	"qx", "qy", "qz", "qw",
	"vx", "vy", "vz",
	"wx", "wy", "wz",
}

// ControlAction holds the commanded speed of each rotor in rpm.
type ControlAction struct {
	RPM [ActionDim]float64
}

func Uniform(rpm float64) ControlAction {
	return ControlAction{RPM: [ActionDim]float64{rpm, rpm, rpm, rpm}}
}

func (a ControlAction) IsFinite() bool {
	for _, r := range a.RPM {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return false
		}
	}
	return true
}

// InRange reports whether every rotor command lies in [MinRPM, MaxRPM].
func (a ControlAction) InRange() bool {
	for _, r := range a.RPM {
		if r < MinRPM || r > MaxRPM {
			return false
		}
	}
	return true
}

func (a ControlAction) Clamp() ControlAction {
	for i, r := range a.RPM {
		if r < MinRPM {
			a.RPM[i] = MinRPM
		} else if r > MaxRPM {
			a.RPM[i] = MaxRPM
		}
	}
	return a
}

func (a ControlAction) Slice() []float64 {
	return a.RPM[:]
}

// ActionFromSlice copies up to ActionDim values; missing rotors get zero.
func ActionFromSlice(v []float64) ControlAction {
	var a ControlAction
	copy(a.RPM[:], v)
	return a
}
