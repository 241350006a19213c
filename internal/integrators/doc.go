// Package integrators implements fixed-step and adaptive ODE solvers over
// [dynamo.System]. Systems that also implement [dynamo.Projector] are
// projected after every step.
package integrators
