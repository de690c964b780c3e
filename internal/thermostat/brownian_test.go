package thermostat_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/friction"
	"github.com/san-kum/bdsim/internal/noise"
	"github.com/san-kum/bdsim/internal/thermostat"
)

var _ = Describe("Brownian", func() {
	var b *thermostat.Brownian

	BeforeEach(func() {
		var err error
		b, err = thermostat.NewBrownian(thermostat.Params{
			Gamma:         friction.Anisotropic(r3.Vec{X: 1, Y: 2, Z: 4}),
			GammaRotation: friction.Isotropic(3),
			KT:            2,
			Seed:          17,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("derives sigma_pos_inv with the positional coefficient", func() {
		inv := b.SigmaPosInv()
		Expect(inv.X).To(BeNumerically("~", math.Sqrt(1.0/4), 1e-15))
		Expect(inv.Y).To(BeNumerically("~", math.Sqrt(2.0/4), 1e-15))
		Expect(inv.Z).To(BeNumerically("~", math.Sqrt(4.0/4), 1e-15))
		Expect(b.SigmaPosRotInv().X).To(BeNumerically("~", math.Sqrt(3.0/4), 1e-15))
	})

	It("derives sigma_vel with the velocity coefficient", func() {
		Expect(b.SigmaVel()).To(BeNumerically("~", math.Sqrt(2), 1e-15))
		Expect(b.SigmaVelRot()).To(BeNumerically("~", math.Sqrt(2), 1e-15))
	})

	It("recomputes amplitudes when the temperature changes", func() {
		Expect(b.SetTemperature(0)).To(Succeed())
		Expect(math.IsInf(b.SigmaPosInv().X, 1)).To(BeTrue())
		Expect(b.SigmaVel()).To(BeZero())
	})

	It("rejects negative temperatures", func() {
		Expect(b.SetTemperature(-1)).To(MatchError(thermostat.ErrNegativeTemperature))
		Expect(b.KT()).To(Equal(2.0))
	})

	It("rejects negative friction", func() {
		Expect(b.SetGamma(friction.Isotropic(-1))).To(MatchError(friction.ErrNegative))
		_, err := thermostat.NewBrownian(thermostat.Params{GammaRotation: friction.Isotropic(-2)})
		Expect(err).To(MatchError(friction.ErrNegative))
	})

	It("advances and restores the noise counter", func() {
		before := b.Noise(3, noise.TranslationWalk)
		b.Advance()
		Expect(b.Counter().Value).To(Equal(uint64(1)))
		Expect(b.Noise(3, noise.TranslationWalk)).NotTo(Equal(before))

		b.Restore(noise.Counter{Seed: 17, Value: 0})
		Expect(b.Noise(3, noise.TranslationWalk)).To(Equal(before))
	})

	Describe("WalkAmplitude", func() {
		DescribeTable("collapses degenerate amplitudes to zero",
			func(inv, want float64) {
				Expect(thermostat.WalkAmplitude(inv)).To(Equal(want))
			},
			Entry("infinite (zero temperature)", math.Inf(1), 0.0),
			Entry("zero (zero friction)", 0.0, 0.0),
			Entry("nan", math.NaN(), 0.0),
			Entry("regular", 0.5, 2.0),
		)
	})

	It("treats zero friction at finite temperature as zero amplitude", func() {
		inv := thermostat.SigmaPosInv(friction.Isotropic(0), 1)
		Expect(thermostat.WalkAmplitude(inv.X)).To(BeZero())
	})
})
