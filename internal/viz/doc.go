// Package viz draws flights in the terminal.
//
// [Model] is a Bubble Tea program that flies one engine under a controller
// in real time, with braille side and top views, rotor bars and an altitude
// chart. [Menu] picks a flight before handing over to a Model.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial state
//	Tab   - Select controller parameter
//	↑/↓   - Tune the selected parameter by 5%
//	[ ]   - Step back and forward through history
//	T     - Cycle colour themes
//	?     - Help overlay
package viz
