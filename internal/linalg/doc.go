// Package linalg provides the small fixed-size vector, quaternion and matrix
// arithmetic used by the flight-dynamics engine.
//
// Every operation comes in a value form returning a fresh result:
//
//	v := a.Add(b).Scale(dt)
//
// and, where the engine accumulates partial sums, a pointer form that adds
// into an existing value:
//
//	torque.AddCross(r, f) // torque += r × f
//
// Accumulating forms never clear their receiver. Nothing here allocates.
package linalg
