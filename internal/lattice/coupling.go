package lattice

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/noise"
	"github.com/san-kum/bdsim/internal/parallel"
	"github.com/san-kum/bdsim/internal/particle"
)

var ErrInvalidCoupling = errors.New("lattice: invalid coupling")

// CouplingParams configures the particle/fluid point coupling.
type CouplingParams struct {
	Gamma   float64
	KT      float64
	Seed    uint64
	Counter uint64
}

// Coupling exchanges momentum between point particles and a Grid. Each
// particle feels F = -gamma (v - u(x)) + sqrt(2 kT gamma / dt) xi and the
// fluid receives -F / agrid³ at the particle position.
//
// The coupling keeps its own noise counter, independent of the Brownian
// thermostat.
type Coupling struct {
	fluid   *Grid
	gamma   float64
	kT      float64
	counter noise.Counter
	pool    *AccumulatorPool

	workers  int
	minChunk int
}

func NewCoupling(fluid *Grid, p CouplingParams) (*Coupling, error) {
	if fluid == nil {
		return nil, fmt.Errorf("%w: nil fluid", ErrInvalidCoupling)
	}
	if p.Gamma < 0 || math.IsNaN(p.Gamma) {
		return nil, fmt.Errorf("%w: gamma %g", ErrInvalidCoupling, p.Gamma)
	}
	if p.KT < 0 || math.IsNaN(p.KT) {
		return nil, fmt.Errorf("%w: kT %g", ErrInvalidCoupling, p.KT)
	}
	return &Coupling{
		fluid:    fluid,
		gamma:    p.Gamma,
		kT:       p.KT,
		counter:  noise.Counter{Seed: p.Seed, Value: p.Counter},
		pool:     NewAccumulatorPool(fluid.Geometry()),
		workers:  parallel.Workers(0),
		minChunk: 256,
	}, nil
}

func (c *Coupling) Fluid() *Grid   { return c.fluid }
func (c *Coupling) Gamma() float64 { return c.gamma }
func (c *Coupling) KT() float64    { return c.kT }

func (c *Coupling) SetWorkers(n int) { c.workers = parallel.Workers(n) }

func (c *Coupling) SetMinChunk(n int) {
	if n < 1 {
		n = 1
	}
	c.minChunk = n
}

func (c *Coupling) Counter() noise.Counter { return c.counter }

func (c *Coupling) Restore(ctr noise.Counter) { c.counter = ctr }

// Force returns the coupling force on p for the current counter value.
func (c *Coupling) Force(p *particle.Particle, dt float64) r3.Vec {
	u := InterpolatedVelocity(c.fluid, p.Pos)
	f := r3.Scale(-c.gamma, r3.Sub(p.Vel, u))

	if c.kT > 0 && c.gamma > 0 && dt > 0 {
		amp := math.Sqrt(2 * c.kT * c.gamma / dt)
		xi := c.counter.Generator().Vec3(c.counter.Value, p.ID, noise.LatticeCoupling)
		f = r3.Add(f, r3.Scale(amp, xi))
	}
	return f
}

// Apply advances the coupling counter, adds the coupling force to every
// particle and scatters the reaction onto the fluid. Workers scatter into
// private accumulators which are merged into the fluid in chunk order.
func (c *Coupling) Apply(ps []particle.Particle, dt float64) {
	c.counter.Increment()

	volume := c.fluid.Geometry().CellVolume()
	accs := make([]*Accumulator, parallel.Chunks(len(ps), c.workers, c.minChunk))
	parallel.For(len(ps), c.workers, c.minChunk, func(chunk, start, end int) {
		acc := c.pool.Get()
		for i := start; i < end; i++ {
			p := &ps[i]
			f := c.Force(p, dt)
			p.Force = r3.Add(p.Force, f)
			AddForceDensity(acc, p.Pos, r3.Scale(-1/volume, f))
		}
		accs[chunk] = acc
	})

	for _, acc := range accs {
		c.fluid.Merge(acc)
		c.pool.Put(acc)
	}
}

func (c *Coupling) LogValue() slog.Value {
	g := c.fluid.Geometry()
	return slog.GroupValue(
		slog.Float64("gamma", c.gamma),
		slog.Float64("kT", c.kT),
		slog.Float64("agrid", g.Agrid),
		slog.Any("shape", g.Shape),
		slog.Uint64("counter", c.counter.Value),
	)
}
