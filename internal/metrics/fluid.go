package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/lattice"
	"github.com/san-kum/bdsim/internal/particle"
)

// FluidSpeed is the magnitude of the mean lattice velocity at the last
// observation.
type FluidSpeed struct {
	name  string
	grid  *lattice.Grid
	value float64
}

func NewFluidSpeed(grid *lattice.Grid) *FluidSpeed {
	return &FluidSpeed{name: "fluid_speed", grid: grid}
}

func (f *FluidSpeed) Name() string { return f.name }

func (f *FluidSpeed) Observe(_ []particle.Particle, _ float64) {
	f.value = r3.Norm(f.grid.MeanVelocity())
}

func (f *FluidSpeed) Value() float64 { return f.value }

func (f *FluidSpeed) Reset() { f.value = 0 }
