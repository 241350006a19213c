// Package dynamo provides generic ODE primitives over flat state vectors.
//
// The flight-dynamics engine in package physics integrates its typed state
// directly. dynamo exists so the same vector field can be driven by the
// interchangeable integrators in package integrators:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator], [AdaptiveIntegrator]: numerical steppers
//   - [Projector]: optional post-step projection back onto a manifold
//
// # Example
//
//	dyn := physics.NewDynamics(vehicle.Crazyflie())
//	integ := integrators.NewRK45()
//	x = integ.Step(dyn, x, u, t, dt)
package dynamo
