package control

import "math"

// PID is a scalar loop on the error Target - measured. The derivative acts on
// the measurement so a setpoint change does not kick the output, and the
// integral is clamped to ±IntegralLimit when that is positive.
type PID struct {
	Kp, Ki, Kd    float64
	Target        float64
	IntegralLimit float64

	integral float64
	prevMeas float64
	prevT    float64
	primed   bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, Target: target}
}

// Update returns the loop output for a measurement taken at time t.
func (p *PID) Update(measured, t float64) float64 {
	err := p.Target - measured
	if !p.primed {
		p.prevMeas, p.prevT, p.primed = measured, t, true
		return p.Kp*err + p.Ki*p.integral
	}

	dt := t - p.prevT
	if dt <= 0 {
		return p.Kp*err + p.Ki*p.integral
	}

	p.integral += err * dt
	if p.IntegralLimit > 0 {
		p.integral = math.Max(-p.IntegralLimit, math.Min(p.IntegralLimit, p.integral))
	}
	rate := (measured - p.prevMeas) / dt
	p.prevMeas, p.prevT = measured, t

	return p.Kp*err + p.Ki*p.integral - p.Kd*rate
}

func (p *PID) Reset() {
	p.integral = 0
	p.prevMeas = 0
	p.primed = false
}

func (p *PID) Integral() float64 { return p.integral }
