package metrics

import (
	"math"

	"github.com/florianHoidn/rl-drone-env/internal/physics"
)

// AltitudeError is the mean |z - target| over the run.
type AltitudeError struct {
	name    string
	target  float64
	sum     float64
	samples int
}

func NewAltitudeError(target float64) *AltitudeError {
	return &AltitudeError{
		name:   "altitude_error",
		target: target,
	}
}

func (m *AltitudeError) Name() string { return m.name }

func (m *AltitudeError) Observe(s physics.DroneState, a physics.ControlAction, t float64) {
	m.sum += math.Abs(s.Position.Z - m.target)
	m.samples++
}

func (m *AltitudeError) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *AltitudeError) Reset() {
	m.sum = 0
	m.samples = 0
}
