package analysis

import (
	"math"

	"github.com/florianHoidn/rl-drone-env/internal/dynamo"
)

// DivergenceRate estimates the largest Lyapunov exponent of dyn around x0
// with the control u held fixed. Component idx of x0 is perturbed by
// perturbation; the separation is renormalized back to that size after every
// step and the mean logarithmic growth per second is returned. A positive
// value means nearby trajectories separate exponentially. Zero is returned
// when x0 or u do not fit dyn.
func DivergenceRate(
	dyn dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	u dynamo.Control,
	idx int,
	dt, duration float64,
	perturbation float64,
) float64 {
	if dynamo.CheckDims(dyn, x0, u) != nil {
		return 0
	}
	if idx < 0 || idx >= len(x0) || !(perturbation > 0) || !(dt > 0) {
		return 0
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[idx] += perturbation

	t := 0.0
	sumLog := 0.0
	for t+dt <= duration+1e-12 {
		x = integ.Step(dyn, x, u, t, dt)
		xp = integ.Step(dyn, xp, u, t, dt)
		t += dt

		sep := xp.Sub(x).Norm()
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			break
		}
		sumLog += math.Log(sep / perturbation)

		scale := perturbation / sep
		for i := range xp {
			xp[i] = x[i] + (xp[i]-x[i])*scale
		}
	}

	if t == 0 {
		return 0
	}
	return sumLog / t
}
