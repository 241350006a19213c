// Package env wraps the flight-dynamics engine as a reinforcement-learning
// environment: a locked action hand-off from the agent, a fixed binary
// observation and action encoding, the hover reward, and episode bounds.
//
// [Environment.Serve] speaks a minimal framed protocol suitable for a child
// process driven over stdin and stdout. Each tick the agent writes four
// little-endian float32 values in [-1, 1] and reads back 13 float64 state
// values, a float32 reward and one done byte.
package env
