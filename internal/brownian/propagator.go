package brownian

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/parallel"
	"github.com/san-kum/bdsim/internal/particle"
	"github.com/san-kum/bdsim/internal/thermostat"
)

// Context is the state shared by all particles of a sweep.
type Context struct {
	SimTime float64 `yaml:"sim_time" json:"sim_time"`
	Steps   int64   `yaml:"steps" json:"steps"`

	// ResortNeeded is raised when a particle moved more than half the skin
	// since the last neighbour list rebuild. It is only cleared by
	// Acknowledge.
	ResortNeeded bool `yaml:"resort_needed" json:"resort_needed"`
}

// Acknowledge clears the resort flag once the rebuild has been done.
func (c *Context) Acknowledge() { c.ResortNeeded = false }

// Propagate applies one full Brownian step to p and reports whether it left
// its Verlet skin.
func Propagate(th *thermostat.Brownian, p *particle.Particle, dt, skin float64) (resort bool) {
	if thermalized(th, p) {
		Drag(th, p, dt)
		DragVel(th, p, dt)
		RandomWalk(th, p, dt)
		RandomWalkVel(th, p, dt)

		half := 0.5 * skin
		if r3.Norm2(r3.Sub(p.Pos, p.PosAtRebuild)) > half*half {
			resort = true
		}
	}

	if !p.CanRotate() {
		return resort
	}
	DragRot(th, p, dt)
	DragVelRot(th, p, dt)
	RandomWalkRot(th, p, dt)
	RandomWalkVelRot(th, p, dt)
	return resort
}

// DefaultMinChunk is the smallest number of particles handed to a worker.
const DefaultMinChunk = 256

// Propagator sweeps particle slices.
type Propagator struct {
	thermostat *thermostat.Brownian
	skin       float64
	workers    int
	minChunk   int
}

func NewPropagator(th *thermostat.Brownian, skin float64) *Propagator {
	return &Propagator{
		thermostat: th,
		skin:       skin,
		workers:    parallel.Workers(0),
		minChunk:   DefaultMinChunk,
	}
}

// SetWorkers sets the goroutine count; n <= 0 selects GOMAXPROCS.
func (pr *Propagator) SetWorkers(n int) { pr.workers = parallel.Workers(n) }

func (pr *Propagator) SetMinChunk(n int) {
	if n < 1 {
		n = 1
	}
	pr.minChunk = n
}

func (pr *Propagator) Skin() float64 { return pr.skin }

func (pr *Propagator) Thermostat() *thermostat.Brownian { return pr.thermostat }

// Sweep advances the noise counter, propagates every particle and then
// advances the simulation time by dt. The resort flag of the returned
// context is the OR of ctx's flag and every particle's Verlet check.
func (pr *Propagator) Sweep(ps []particle.Particle, dt float64, ctx Context) Context {
	pr.thermostat.Advance()

	resort := make([]bool, parallel.Chunks(len(ps), pr.workers, pr.minChunk))
	parallel.For(len(ps), pr.workers, pr.minChunk, func(chunk, start, end int) {
		for i := start; i < end; i++ {
			if Propagate(pr.thermostat, &ps[i], dt, pr.skin) {
				resort[chunk] = true
			}
		}
	})

	for _, r := range resort {
		ctx.ResortNeeded = ctx.ResortNeeded || r
	}
	ctx.SimTime += dt
	ctx.Steps++
	return ctx
}
