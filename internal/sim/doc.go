// Package sim is the host loop around a physics.Engine: it asks a
// controller for an action each tick, feeds metrics and observers, applies
// the action and records the trajectory.
package sim
