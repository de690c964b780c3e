package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |X_k|²/n for k = 0..n/2 of the mean-removed series.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	spectrum := fft.FFTReal(centered(data))

	ps := make([]float64, n/2+1)
	for k := range ps {
		a := cmplx.Abs(spectrum[k])
		ps[k] = a * a / float64(n)
	}
	return ps
}

// DominantFrequency returns the frequency of the strongest non-zero bin of a
// series sampled every dt, and its power.
func DominantFrequency(data []float64, dt float64) (freq, power float64) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return 0, 0
	}
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	return float64(best) / (float64(len(data)) * dt), ps[best]
}

// Autocorrelation returns the autocorrelation of the mean-removed series for
// lags 0..maxLag, normalised to 1 at lag 0. A constant series yields zeros
// after lag 0.
func Autocorrelation(data []float64, maxLag int) []float64 {
	c := correlate(centered(data), maxLag)
	if len(c) == 0 {
		return c
	}
	c0 := c[0]
	for k := range c {
		if c0 == 0 {
			c[k] = 0
			continue
		}
		c[k] /= c0
	}
	if c0 == 0 {
		c[0] = 1
	}
	return c
}

// correlate returns (1/(n-k)) Σ x_t x_{t+k} for k = 0..maxLag, computed by
// zero padding to avoid circular wrap-around.
func correlate(x []float64, maxLag int) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	maxLag = max(0, min(maxLag, n-1))

	padded := make([]float64, 2*n)
	copy(padded, x)
	spectrum := fft.FFTReal(padded)
	for i, v := range spectrum {
		spectrum[i] = complex(real(v)*real(v)+imag(v)*imag(v), 0)
	}
	raw := fft.IFFT(spectrum)

	c := make([]float64, maxLag+1)
	for k := range c {
		c[k] = real(raw[k]) / float64(n-k)
	}
	return c
}

func centered(data []float64) []float64 {
	mean := stat.Mean(data, nil)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v - mean
	}
	return out
}

// CorrelationTime integrates a normalised correlation function sampled every
// dt up to its first zero crossing with the trapezoid rule.
func CorrelationTime(acf []float64, dt float64) float64 {
	var tau float64
	for k := 1; k < len(acf); k++ {
		if acf[k] <= 0 || math.IsNaN(acf[k]) {
			break
		}
		tau += 0.5 * (acf[k-1] + acf[k]) * dt
	}
	return tau
}
