package control

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// StateFeedback commands Bias - K·(x - Target) in rpm, with x the flattened
// state. K is ActionDim×StateDim.
type StateFeedback struct {
	K      *mat.Dense
	Target physics.DroneState
	Bias   physics.ControlAction

	err, u *mat.VecDense
}

func NewStateFeedback(k *mat.Dense, target physics.DroneState, bias physics.ControlAction) (*StateFeedback, error) {
	if r, c := k.Dims(); r != physics.ActionDim || c != physics.StateDim {
		return nil, fmt.Errorf("gain matrix is %d×%d, want %d×%d", r, c, physics.ActionDim, physics.StateDim)
	}
	return &StateFeedback{
		K:      k,
		Target: target,
		Bias:   bias,
		err:    mat.NewVecDense(physics.StateDim, nil),
		u:      mat.NewVecDense(physics.ActionDim, nil),
	}, nil
}

func (f *StateFeedback) Compute(s physics.DroneState, t float64) physics.ControlAction {
	x, ref := s.Flatten(), f.Target.Flatten()
	for i := range x {
		f.err.SetVec(i, x[i]-ref[i])
	}
	f.u.MulVec(f.K, f.err)

	a := f.Bias
	for i := range a.RPM {
		a.RPM[i] -= f.u.AtVec(i)
	}
	return a.Clamp()
}

// Indices into the flattened state.
const (
	idxPZ = 2
	idxQX = 3
	idxQY = 4
	idxVZ = 9
	idxWX = 10
	idxWY = 11
	idxWZ = 12
)

// NewLinearHover linearizes the altitude-hold loop around hover at targetZ:
// PD on altitude, PD on roll and pitch and yaw-rate damping, all mapped to
// rotor speed through the mixer and the thrust slope at hover rpm. Lateral
// position is not controlled.
func NewLinearHover(spec *vehicle.Spec, targetZ float64) (*StateFeedback, error) {
	m, err := mixer(spec)
	if err != nil {
		return nil, err
	}

	hover := spec.HoverRPM()
	c := spec.ThrustCoefs
	slope := c.Y + 2*c.Z*hover

	// Wrench per unit state error. Roll and pitch are about twice qx and qy
	// near level.
	g := mat.NewDense(4, physics.StateDim, nil)
	g.Set(0, idxPZ, spec.Mass*DefaultKp)
	g.Set(0, idxVZ, spec.Mass*DefaultKd)
	g.Set(1, idxQX, 2*spec.Inertia.At(0, 0)*DefaultAttKp)
	g.Set(1, idxWX, spec.Inertia.At(0, 0)*DefaultAttKd)
	g.Set(2, idxQY, 2*spec.Inertia.At(1, 1)*DefaultAttKp)
	g.Set(2, idxWY, spec.Inertia.At(1, 1)*DefaultAttKd)
	g.Set(3, idxWZ, spec.Inertia.At(2, 2)*DefaultYawKd)

	var k mat.Dense
	k.Mul(m, g)
	k.Scale(1/slope, &k)

	target := physics.DefaultState()
	target.Position.Z = targetZ
	return NewStateFeedback(&k, target, physics.Uniform(hover))
}
