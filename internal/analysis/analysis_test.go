package analysis_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/analysis"
	"github.com/san-kum/bdsim/internal/sim"
)

func sine(n, period int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * float64(i) / float64(period))
	}
	return out
}

// frames builds nf frames of np particles where particle j sits at
// pos(j, t) and moves with vel.
func frames(nf, np int, dt float64, pos func(j int, t float64) r3.Vec, vel r3.Vec) []sim.Frame {
	out := make([]sim.Frame, nf)
	for i := range out {
		t := float64(i) * dt
		fr := sim.Frame{Time: t, Step: int64(i)}
		for j := 0; j < np; j++ {
			fr.Particles = append(fr.Particles, sim.Snapshot{ID: j, Pos: pos(j, t), Vel: vel})
		}
		out[i] = fr
	}
	return out
}

var _ = Describe("Spectrum", func() {
	It("peaks at the driving frequency", func() {
		data := sine(64, 8)
		ps := analysis.PowerSpectrum(data)
		Expect(ps).To(HaveLen(33))

		freq, power := analysis.DominantFrequency(data, 0.5)
		Expect(freq).To(BeNumerically("~", 0.25, 1e-12))
		Expect(power).To(BeNumerically("~", ps[8], 1e-12))
	})

	It("handles an empty series", func() {
		Expect(analysis.PowerSpectrum(nil)).To(BeEmpty())
		freq, _ := analysis.DominantFrequency(nil, 1)
		Expect(freq).To(BeZero())
	})
})

var _ = Describe("Autocorrelation", func() {
	It("anticorrelates a sine at half a period", func() {
		acf := analysis.Autocorrelation(sine(64, 8), 8)
		Expect(acf).To(HaveLen(9))
		Expect(acf[0]).To(BeNumerically("~", 1, 1e-9))
		Expect(acf[4]).To(BeNumerically("~", -1, 1e-9))
		Expect(acf[8]).To(BeNumerically("~", 1, 1e-9))
	})

	It("is flat for a constant series", func() {
		acf := analysis.Autocorrelation([]float64{3, 3, 3, 3}, 2)
		Expect(acf).To(Equal([]float64{1, 0, 0}))
	})

	It("clamps the lag to the series length", func() {
		Expect(analysis.Autocorrelation(sine(10, 4), 100)).To(HaveLen(10))
	})

	It("integrates an exponential decay to its time constant", func() {
		dt := 0.01
		acf := make([]float64, 1000)
		for k := range acf {
			acf[k] = math.Exp(-float64(k) * dt)
		}
		Expect(analysis.CorrelationTime(acf, dt)).To(BeNumerically("~", 1, 1e-3))
	})

	It("stops at the first zero crossing", func() {
		Expect(analysis.CorrelationTime([]float64{1, 0.5, -0.1, 0.9}, 1)).To(BeNumerically("~", 0.75, 1e-12))
	})
})

var _ = Describe("Transport", func() {
	It("measures ballistic displacement", func() {
		fr := frames(20, 3, 0.1, func(j int, t float64) r3.Vec {
			return r3.Vec{X: float64(j) + 2*t}
		}, r3.Vec{X: 2})

		lags, msd := analysis.MSDCurve(fr, 5)
		Expect(lags).To(HaveLen(6))
		for k := range msd {
			d := 2 * 0.1 * float64(k)
			Expect(lags[k]).To(BeNumerically("~", 0.1*float64(k), 1e-12))
			Expect(msd[k]).To(BeNumerically("~", d*d, 1e-9))
		}
	})

	It("ignores a trailing frame off the sampling grid", func() {
		pos := func(j int, t float64) r3.Vec { return r3.Vec{X: float64(j) + 2*t} }
		fr := frames(10, 2, 0.1, pos, r3.Vec{X: 2})
		last := fr[len(fr)-1]
		tail := sim.Frame{Time: last.Time + 0.03, Step: last.Step + 1}
		for j := range last.Particles {
			tail.Particles = append(tail.Particles, sim.Snapshot{ID: j, Pos: pos(j, tail.Time), Vel: r3.Vec{X: 2}})
		}
		fr = append(fr, tail)

		lags, msd := analysis.MSDCurve(fr, 20)
		Expect(lags).To(HaveLen(10))
		for k := range msd {
			d := 2 * 0.1 * float64(k)
			Expect(lags[k]).To(BeNumerically("~", 0.1*float64(k), 1e-12))
			Expect(msd[k]).To(BeNumerically("~", d*d, 1e-9))
		}
		Expect(analysis.VACF(fr, 20)).To(HaveLen(10))
	})

	It("correlates constant velocities fully", func() {
		fr := frames(16, 2, 0.1, func(int, float64) r3.Vec { return r3.Vec{} }, r3.Vec{X: 1, Y: 2, Z: 2})
		vacf := analysis.VACF(fr, 4)
		Expect(vacf).To(HaveLen(5))
		for _, c := range vacf {
			Expect(c).To(BeNumerically("~", 9, 1e-9))
		}
	})

	It("returns nothing without particles", func() {
		Expect(analysis.VACF(nil, 3)).To(BeNil())
		lags, msd := analysis.MSDCurve(nil, 3)
		Expect(lags).To(BeNil())
		Expect(msd).To(BeNil())
	})

	It("recovers the diffusion coefficient from a linear MSD", func() {
		lags := make([]float64, 10)
		msd := make([]float64, 10)
		for i := range lags {
			lags[i] = float64(i) * 0.5
			msd[i] = 0.1 + 6*0.5*lags[i]
		}
		fit, err := analysis.FitDiffusion(lags, msd, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(fit.D).To(BeNumerically("~", 0.5, 1e-9))
		Expect(fit.Intercept).To(BeNumerically("~", 0.1, 1e-9))
		Expect(fit.R2).To(BeNumerically("~", 1, 1e-9))
	})

	It("rejects short or mismatched curves", func() {
		_, err := analysis.FitDiffusion([]float64{1}, []float64{1}, 3)
		Expect(err).To(MatchError(analysis.ErrTooShort))

		_, err = analysis.FitDiffusion([]float64{1, 2}, []float64{1}, 3)
		Expect(err).To(HaveOccurred())

		_, err = analysis.FitDiffusion([]float64{1, 2}, []float64{1, 2}, 0)
		Expect(err).To(HaveOccurred())
	})
})
