package metrics

import (
	"math"

	"github.com/florianHoidn/rl-drone-env/internal/physics"
)

// ControlEffort is the mean over steps and rotors of |rpm - hover| as a
// fraction of the rotor speed range.
type ControlEffort struct {
	name    string
	hover   float64
	sum     float64
	samples int
}

func NewControlEffort(hoverRPM float64) *ControlEffort {
	return &ControlEffort{
		name:  "control_effort",
		hover: hoverRPM,
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(s physics.DroneState, a physics.ControlAction, t float64) {
	for _, rpm := range a.RPM {
		c.sum += math.Abs(rpm-c.hover) / (physics.MaxRPM - physics.MinRPM)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples*physics.ActionDim)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
