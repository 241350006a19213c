package metrics

import "github.com/florianHoidn/rl-drone-env/internal/physics"

// Stability is the fraction of steps whose tilt stays at or below the
// threshold in radians.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x physics.DroneState, a physics.ControlAction, t float64) {
	s.samples++
	if !x.IsFinite() || x.Orientation.Tilt() > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
