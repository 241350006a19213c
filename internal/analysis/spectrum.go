package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the one-sided magnitude spectrum of series sampled
// every dt seconds. The mean is removed and a Hann window applied first.
// freqs[i] is the frequency in Hz of power[i].
func PowerSpectrum(series []float64, dt float64) (freqs, power []float64) {
	n := len(series)
	if n < 2 || !(dt > 0) {
		return nil, nil
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range series {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * w
	}

	spectrum := fft.FFTReal(windowed)
	half := n/2 + 1
	freqs = make([]float64, half)
	power = make([]float64, half)
	for i := 0; i < half; i++ {
		freqs[i] = float64(i) / (float64(n) * dt)
		power[i] = cmplx.Abs(spectrum[i])
	}
	return freqs, power
}

// DominantFrequency returns the non-zero frequency in Hz with the most power,
// or 0 when the series is constant or too short.
func DominantFrequency(series []float64, dt float64) float64 {
	freqs, power := PowerSpectrum(series, dt)
	best, bestP := 0.0, 0.0
	for i := 1; i < len(power); i++ {
		if power[i] > bestP {
			best, bestP = freqs[i], power[i]
		}
	}
	if bestP < 1e-12 {
		return 0
	}
	return best
}
