package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/bdsim/internal/sim"
)

var ErrTooShort = errors.New("analysis: not enough samples")

// MSDCurve returns the mean squared displacement for frame lags 0..maxLag,
// averaged over every time origin and tracked particle. Particles are matched
// by their index within a frame. lags holds the elapsed time of each lag
// measured from the first frame. A trailing frame off the sampling grid is
// ignored.
func MSDCurve(frames []sim.Frame, maxLag int) (lags, msd []float64) {
	frames = onGrid(frames)
	if len(frames) == 0 {
		return nil, nil
	}
	maxLag = max(0, min(maxLag, len(frames)-1))
	np := trackedCount(frames)

	lags = make([]float64, maxLag+1)
	msd = make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		lags[k] = frames[k].Time - frames[0].Time
		if np == 0 {
			continue
		}
		var sum float64
		origins := len(frames) - k
		for t := 0; t < origins; t++ {
			a, b := frames[t].Particles, frames[t+k].Particles
			for j := 0; j < np; j++ {
				sum += r3.Norm2(r3.Sub(b[j].Pos, a[j].Pos))
			}
		}
		msd[k] = sum / float64(origins*np)
	}
	return lags, msd
}

// VACF returns <v(0)·v(k)> over frame lags 0..maxLag, averaged over time
// origins and tracked particles. A trailing frame off the sampling grid is
// ignored.
func VACF(frames []sim.Frame, maxLag int) []float64 {
	frames = onGrid(frames)
	np := trackedCount(frames)
	if np == 0 {
		return nil
	}
	maxLag = max(0, min(maxLag, len(frames)-1))

	out := make([]float64, maxLag+1)
	series := make([]float64, len(frames))
	for j := 0; j < np; j++ {
		for axis := 0; axis < 3; axis++ {
			for t, fr := range frames {
				series[t] = component(fr.Particles[j].Vel, axis)
			}
			for k, c := range correlate(series, maxLag) {
				out[k] += c
			}
		}
	}
	for k := range out {
		out[k] /= float64(np)
	}
	return out
}

// onGrid drops the last frame when its interval differs from the sampling
// interval. A run records its final step even when the step count is not a
// multiple of the sampling period.
func onGrid(frames []sim.Frame) []sim.Frame {
	n := len(frames)
	if n < 3 {
		return frames
	}
	every := frames[1].Time - frames[0].Time
	last := frames[n-1].Time - frames[n-2].Time
	if math.Abs(last-every) > 1e-9*math.Abs(every) {
		return frames[:n-1]
	}
	return frames
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func trackedCount(frames []sim.Frame) int {
	if len(frames) == 0 {
		return 0
	}
	n := len(frames[0].Particles)
	for _, fr := range frames[1:] {
		n = min(n, len(fr.Particles))
	}
	return n
}

// DiffusionFit is a least squares line through an MSD curve.
type DiffusionFit struct {
	D         float64
	Slope     float64
	Intercept float64
	R2        float64
}

// FitDiffusion fits msd = a + b·t and returns D = b/(2·dim).
func FitDiffusion(lags, msd []float64, dim int) (DiffusionFit, error) {
	if len(lags) != len(msd) {
		return DiffusionFit{}, fmt.Errorf("analysis: %d lags for %d msd values", len(lags), len(msd))
	}
	if len(lags) < 2 {
		return DiffusionFit{}, ErrTooShort
	}
	if dim < 1 {
		return DiffusionFit{}, fmt.Errorf("analysis: dimension %d", dim)
	}

	alpha, beta := stat.LinearRegression(lags, msd, nil, false)
	return DiffusionFit{
		D:         beta / float64(2*dim),
		Slope:     beta,
		Intercept: alpha,
		R2:        stat.RSquared(lags, msd, nil, alpha, beta),
	}, nil
}
