// Package control provides rotor-command policies for a single quadrotor.
//
// Controllers implement [Controller] and are called once per tick with the
// current state:
//
//   - [None]: all rotors stopped (free fall)
//   - [Constant]: a fixed command, e.g. [NewHover]
//   - [AltitudeHold]: altitude PID with level-attitude stabilization
//   - [StateFeedback]: linear feedback on the full state, e.g. [NewLinearHover]
//
// # Usage
//
//	ctrl, err := control.NewAltitudeHold(spec, 1.5)
//	action := ctrl.Compute(engine.State(), t)
//	err = engine.ApplyControl(action, dt)
//
// Controllers implementing [Configurable] support live tuning.
package control
