package control

import (
	"errors"

	"github.com/florianHoidn/rl-drone-env/internal/physics"
)

// ErrUnknownParam is returned by SetParam for a name GetParams does not list.
var ErrUnknownParam = errors.New("control: unknown parameter")

// Controller maps the current vehicle state to a rotor command.
type Controller interface {
	Compute(s physics.DroneState, t float64) physics.ControlAction
}

// Resetter is implemented by controllers that carry internal state between
// calls.
type Resetter interface {
	Reset()
}

// Configurable exposes named parameters for live tuning.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Compute(s physics.DroneState, t float64) physics.ControlAction {
	return physics.ControlAction{}
}

// Constant commands the same action every step.
type Constant struct {
	Action physics.ControlAction
}

func NewConstant(a physics.ControlAction) *Constant {
	return &Constant{Action: a}
}

func (c *Constant) Compute(s physics.DroneState, t float64) physics.ControlAction {
	return c.Action
}
