package metrics

import (
	"github.com/florianHoidn/rl-drone-env/internal/env"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
)

// Return accumulates the environment reward. Each observed state is scored
// against the action applied before it, so the first state contributes
// nothing.
type Return struct {
	name    string
	reward  env.Reward
	prev    physics.ControlAction
	started bool
	total   float64
}

func NewReturn(reward env.Reward) *Return {
	return &Return{
		name:   "return",
		reward: reward,
	}
}

func (r *Return) Name() string { return r.name }

func (r *Return) Observe(s physics.DroneState, a physics.ControlAction, t float64) {
	if r.started {
		r.total += r.reward.Compute(s, r.prev)
	}
	r.prev = a
	r.started = true
}

func (r *Return) Value() float64 { return r.total }

func (r *Return) Reset() {
	r.prev = physics.ControlAction{}
	r.started = false
	r.total = 0
}
