package env

import (
	"math"

	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
)

// Reward weights.
const (
	OrientationWeight = 5.0
	PositionWeight    = 5.0
	VelocityWeight    = 0.01
	ControlWeight     = 0.01

	RewardScale  = 0.5
	RewardOffset = 2.0
)

// Reward scores a state by how level, how close to spawn and how still the
// vehicle is, and how far the previous rotor command strayed from hover.
type Reward struct {
	Spawn    linalg.Vec3
	HoverRPM float64
}

func NewReward(spawn linalg.Vec3) Reward {
	return Reward{Spawn: spawn, HoverRPM: ActionToRPM(StableHoverBias)}
}

func (r Reward) Compute(s physics.DroneState, prev physics.ControlAction) float64 {
	w := s.Orientation.W
	rew := -OrientationWeight * (1 - w*w)
	rew -= PositionWeight * r.Spawn.Sub(s.Position).L1()
	rew -= VelocityWeight * s.LinearVelocity.L1()
	rew -= ControlWeight * r.controlCost(prev)
	return RewardScale*rew + RewardOffset
}

func (r Reward) controlCost(a physics.ControlAction) float64 {
	const invRange = 1.0 / (physics.MaxRPM - physics.MinRPM)
	cost := 0.0
	for _, rpm := range a.RPM {
		d := (rpm - r.HoverRPM) * invRange
		cost += d * d
	}
	return cost
}

// Bounds ends an episode once the vehicle leaves a box around its spawn
// point. Radius and MaxTilt are ignored when not positive.
type Bounds struct {
	Floor   float64 `yaml:"floor"`
	Radius  float64 `yaml:"radius"`
	MaxTilt float64 `yaml:"max_tilt"`
}

func DefaultBounds() Bounds {
	return Bounds{Floor: -1, Radius: 5, MaxTilt: math.Pi / 2}
}

// Exceeded reports whether s is outside the bounds or not finite.
func (b Bounds) Exceeded(spawn linalg.Vec3, s physics.DroneState) bool {
	if !s.IsFinite() {
		return true
	}
	if s.Position.Z < b.Floor {
		return true
	}
	if b.Radius > 0 {
		dx, dy := s.Position.X-spawn.X, s.Position.Y-spawn.Y
		if math.Hypot(dx, dy) > b.Radius {
			return true
		}
	}
	return b.MaxTilt > 0 && s.Orientation.Tilt() > b.MaxTilt
}
