package integrators

import "github.com/florianHoidn/rl-drone-env/internal/dynamo"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	project(dyn, result)
	return result
}

func project(dyn dynamo.System, x dynamo.State) {
	if p, ok := dyn.(dynamo.Projector); ok {
		p.Project(x)
	}
}
