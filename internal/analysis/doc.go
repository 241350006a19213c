// Package analysis extracts figures of merit from recorded flights.
//
//   - [PowerSpectrum] and [DominantFrequency]: oscillation content of a
//     state component, via the FFT
//   - [StepResponse]: rise time, overshoot and settling time of a setpoint
//     change
//   - [Summarize]: mean, spread and extremes of a series
//   - [DivergenceRate]: largest Lyapunov-style growth rate of a small
//     perturbation under a fixed rotor command
package analysis
