package physics

import (
	"github.com/florianHoidn/rl-drone-env/internal/dynamo"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// Dynamics exposes a Model over flat 13-element state vectors so the generic
// integrators can advance the same vector field as the Engine.
type Dynamics struct {
	model Model
}

func NewDynamics(spec *vehicle.Spec) *Dynamics {
	return &Dynamics{model: NewModel(spec)}
}

// Derive treats u as rotor speeds in rpm. Missing entries are zero.
func (d *Dynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	ds := d.model.Derivative(StateFromSlice(x), ActionFromSlice(u))
	return ds.AppendTo(make(dynamo.State, 0, StateDim))
}

func (d *Dynamics) StateDim() int   { return StateDim }
func (d *Dynamics) ControlDim() int { return ActionDim }

func (d *Dynamics) Energy(x dynamo.State) float64 {
	return d.model.Energy(StateFromSlice(x))
}

// Project renormalizes the quaternion part of x in place. A degenerate
// quaternion becomes the identity.
func (d *Dynamics) Project(x dynamo.State) {
	s := StateFromSlice(x)
	if !normalize(&s.Orientation) {
		s.Orientation = DefaultState().Orientation
	}
	x[3], x[4], x[5], x[6] = s.Orientation.X, s.Orientation.Y, s.Orientation.Z, s.Orientation.W
}
