package lattice_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/bdsim/internal/lattice"
	"github.com/san-kum/bdsim/internal/noise"
	"github.com/san-kum/bdsim/internal/particle"
)

func particles(n int, box float64) []particle.Particle {
	ps := make([]particle.Particle, n)
	for i := range ps {
		f := float64(i) / float64(n)
		ps[i] = particle.New(i, r3.Vec{X: f * box, Y: (1 - f) * box, Z: 0.37 * float64(i%11)})
	}
	return ps
}

var _ = Describe("Coupling", func() {
	var (
		geom lattice.Geometry
		grid *lattice.Grid
	)

	BeforeEach(func() {
		var err error
		geom, err = lattice.NewGeometry(r3.Vec{X: 4, Y: 4, Z: 4}, 0.5)
		Expect(err).NotTo(HaveOccurred())
		grid = lattice.NewGrid(geom)
	})

	It("rejects invalid parameters", func() {
		_, err := lattice.NewCoupling(grid, lattice.CouplingParams{Gamma: -1})
		Expect(err).To(MatchError(lattice.ErrInvalidCoupling))
		_, err = lattice.NewCoupling(grid, lattice.CouplingParams{Gamma: 1, KT: -1})
		Expect(err).To(MatchError(lattice.ErrInvalidCoupling))
		_, err = lattice.NewCoupling(nil, lattice.CouplingParams{Gamma: 1})
		Expect(err).To(MatchError(lattice.ErrInvalidCoupling))
	})

	Context("without noise", func() {
		var c *lattice.Coupling

		BeforeEach(func() {
			var err error
			c, err = lattice.NewCoupling(grid, lattice.CouplingParams{Gamma: 2})
			Expect(err).NotTo(HaveOccurred())
		})

		It("drags a resting particle along with the flow", func() {
			grid.SetUniformVelocity(r3.Vec{X: 0.5})
			ps := []particle.Particle{particle.New(0, r3.Vec{X: 1.1, Y: 2.2, Z: 3.3})}

			c.Apply(ps, 0.01)

			Expect(ps[0].Force.X).To(BeNumerically("~", 1.0, 1e-12))
			Expect(ps[0].Force.Y).To(BeNumerically("~", 0.0, 1e-12))
			total := grid.TotalForceDensity()
			Expect(total.X).To(BeNumerically("~", -1.0/geom.CellVolume(), 1e-12))
		})

		It("adds to forces already on the particle", func() {
			ps := []particle.Particle{particle.New(0, r3.Vec{X: 1})}
			ps[0].Force = r3.Vec{Z: 3}
			ps[0].Vel = r3.Vec{Y: 1}

			c.Apply(ps, 0.01)

			Expect(ps[0].Force).To(Equal(r3.Vec{Y: -2, Z: 3}))
		})

		It("leaves a particle co-moving with the fluid untouched", func() {
			grid.SetUniformVelocity(r3.Vec{X: 1, Y: 1})
			ps := []particle.Particle{particle.New(0, r3.Vec{X: 2, Y: 2, Z: 2})}
			ps[0].Vel = r3.Vec{X: 1, Y: 1}

			c.Apply(ps, 0.01)

			Expect(r3.Norm(ps[0].Force)).To(BeNumerically("<", 1e-12))
			Expect(r3.Norm(grid.TotalForceDensity())).To(BeNumerically("<", 1e-12))
		})
	})

	Context("with noise", func() {
		const (
			gamma = 2.0
			kT    = 1.0
			dt    = 0.5
		)

		newCoupling := func(seed uint64) *lattice.Coupling {
			c, err := lattice.NewCoupling(lattice.NewGrid(geom), lattice.CouplingParams{Gamma: gamma, KT: kT, Seed: seed})
			Expect(err).NotTo(HaveOccurred())
			return c
		}

		It("conserves momentum between particles and fluid", func() {
			c := newCoupling(5)
			ps := particles(500, 4)
			c.Apply(ps, dt)

			var onParticles r3.Vec
			for i := range ps {
				onParticles = r3.Add(onParticles, ps[i].Force)
			}
			onFluid := r3.Scale(geom.CellVolume(), c.Fluid().TotalForceDensity())
			Expect(r3.Norm(r3.Add(onParticles, onFluid))).To(BeNumerically("<", 1e-9))
		})

		It("draws forces with variance 2 kT gamma / dt", func() {
			c := newCoupling(9)
			const n = 20000
			ps := make([]particle.Particle, n)
			for i := range ps {
				ps[i] = particle.New(i, r3.Vec{X: 1, Y: 1, Z: 1})
			}
			c.Apply(ps, dt)

			xs := make([]float64, n)
			for i := range ps {
				xs[i] = ps[i].Force.Z
			}
			mean, variance := stat.MeanVariance(xs, nil)
			Expect(mean).To(BeNumerically("~", 0, 0.1))
			Expect(variance / (2 * kT * gamma / dt)).To(BeNumerically("~", 1, 0.05))
		})

		It("advances its own counter once per application", func() {
			c := newCoupling(1)
			ps := particles(10, 4)
			c.Apply(ps, dt)
			c.Apply(ps, dt)
			Expect(c.Counter().Value).To(Equal(uint64(2)))
			Expect(c.Counter().Seed).To(Equal(uint64(1)))
		})

		It("is reproducible and independent of the worker count", func() {
			a, b := newCoupling(3), newCoupling(3)
			a.SetWorkers(1)
			b.SetWorkers(6)
			b.SetMinChunk(8)

			pa, pb := particles(300, 4), particles(300, 4)
			a.Apply(pa, dt)
			b.Apply(pb, dt)

			for i := range pa {
				Expect(pb[i].Force).To(Equal(pa[i].Force))
			}
			ta, tb := a.Fluid().TotalForceDensity(), b.Fluid().TotalForceDensity()
			Expect(tb.X).To(BeNumerically("~", ta.X, 1e-9))
			Expect(tb.Y).To(BeNumerically("~", ta.Y, 1e-9))
			Expect(tb.Z).To(BeNumerically("~", ta.Z, 1e-9))
		})

		It("draws fresh noise each application and resumes from a restored counter", func() {
			a := newCoupling(3)
			pa := particles(4, 4)
			a.Apply(pa, dt)
			first := pa[0].Force
			pa[0].ResetForces()
			a.Apply(pa, dt)
			Expect(pa[0].Force).NotTo(Equal(first))

			b := newCoupling(3)
			b.Restore(noise.Counter{Seed: 3, Value: 1})
			pb := particles(4, 4)
			b.Apply(pb, dt)
			Expect(pb[0].Force).To(Equal(pa[0].Force))
		})
	})
})
