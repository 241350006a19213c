// Package physics integrates the rigid-body flight dynamics of a quadrotor.
//
// An [Engine] owns one vehicle. Each call to [Engine.ApplyControl] holds the
// rotor command fixed and advances the state by one classical Runge-Kutta
// step, then renormalizes the orientation quaternion:
//
//	spec := vehicle.Crazyflie()
//	eng := physics.NewEngine(spec)
//	eng.Reset(physics.DefaultState())
//	err := eng.ApplyControl(physics.Uniform(spec.HoverRPM()), 1.0/60)
//
// Position and linear velocity are expressed in the world frame, angular
// velocity and all rotor forces in the body frame. Gravity points along -z.
//
// [Dynamics] exposes the same vector field as a [dynamo.System] for the
// generic integrators in package integrators.
package physics
