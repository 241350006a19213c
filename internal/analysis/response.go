package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrLengthMismatch = errors.New("analysis: times and values differ in length")

// SettlingBand is the tolerance of SettlingTime as a fraction of the step size.
const SettlingBand = 0.02

// Response characterises how a series approaches a setpoint.
type Response struct {
	// RiseTime is the time from 10% to 90% of the step; NaN if never reached.
	RiseTime float64
	// Overshoot is the peak excursion past the target as a fraction of the
	// step size.
	Overshoot float64
	// SettlingTime is the first time after which the series stays within
	// SettlingBand of the target; NaN if it never settles.
	SettlingTime float64
	// FinalError is target minus the last value.
	FinalError float64
}

// StepResponse analyses values sampled at times as a step from values[0] to
// target.
func StepResponse(times, values []float64, target float64) (Response, error) {
	if len(times) != len(values) {
		return Response{}, ErrLengthMismatch
	}
	if len(values) == 0 {
		return Response{RiseTime: math.NaN(), SettlingTime: math.NaN()}, nil
	}

	start := values[0]
	step := target - start
	r := Response{
		RiseTime:     math.NaN(),
		SettlingTime: math.NaN(),
		FinalError:   target - values[len(values)-1],
	}
	if step == 0 {
		r.RiseTime = 0
		r.SettlingTime = 0
		return r, nil
	}

	// Progress towards the target, 0 at the start and 1 on it.
	progress := func(v float64) float64 { return (v - start) / step }

	t10, t90 := math.NaN(), math.NaN()
	peak := 0.0
	for i, v := range values {
		p := progress(v)
		if math.IsNaN(t10) && p >= 0.1 {
			t10 = times[i]
		}
		if math.IsNaN(t90) && p >= 0.9 {
			t90 = times[i]
		}
		peak = math.Max(peak, p)
	}
	if !math.IsNaN(t90) {
		r.RiseTime = t90 - t10
	}
	r.Overshoot = math.Max(0, peak-1)

	last := len(values)
	for i := len(values) - 1; i >= 0; i-- {
		if math.Abs(1-progress(values[i])) > SettlingBand {
			break
		}
		last = i
	}
	if last < len(values) {
		r.SettlingTime = times[last]
	}
	return r, nil
}

type Summary struct {
	Min, Max float64
	Mean     float64
	StdDev   float64
	RMS      float64
}

func Summarize(series []float64) Summary {
	if len(series) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(series, nil)
	if len(series) == 1 {
		std = 0
	}
	return Summary{
		Min:    floats.Min(series),
		Max:    floats.Max(series),
		Mean:   mean,
		StdDev: std,
		RMS:    floats.Norm(series, 2) / math.Sqrt(float64(len(series))),
	}
}
