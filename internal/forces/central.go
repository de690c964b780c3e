package forces

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/parallel"
	"github.com/san-kum/bdsim/internal/particle"
)

// Pair is an isotropic pair interaction of the separation r.
type Pair interface {
	Energy(r float64) float64
	// Force returns -dU/dr.
	Force(r float64) float64
}

type LennardJones struct {
	Epsilon float64 `yaml:"epsilon"`
	Sigma   float64 `yaml:"sigma"`
}

func (lj LennardJones) Energy(r float64) float64 {
	s6 := math.Pow(lj.Sigma/r, 6)
	return 4 * lj.Epsilon * (s6*s6 - s6)
}

func (lj LennardJones) Force(r float64) float64 {
	s6 := math.Pow(lj.Sigma/r, 6)
	return 24 * lj.Epsilon * (2*s6*s6 - s6) / r
}

// CentralPotential restricts a pair interaction to 0 < r - Offset <= Cutoff
// and evaluates it at r - Offset. Shift is added to the energy in range.
type CentralPotential struct {
	Pair   Pair
	Cutoff float64
	Offset float64
	Shift  float64
}

// NewCentralPotential returns a potential shifted so the energy vanishes at
// the cutoff.
func NewCentralPotential(pair Pair, cutoff, offset float64) CentralPotential {
	return CentralPotential{
		Pair:   pair,
		Cutoff: cutoff,
		Offset: offset,
		Shift:  -pair.Energy(cutoff),
	}
}

func (c CentralPotential) InRange(r float64) bool {
	reff := r - c.Offset
	return reff <= c.Cutoff && reff > 0
}

func (c CentralPotential) Energy(r float64) float64 {
	if !c.InRange(r) {
		return 0
	}
	return c.Pair.Energy(r-c.Offset) + c.Shift
}

// Force returns the force on the first particle of a pair separated by
// r12 = pos1 - pos2 at distance r.
func (c CentralPotential) Force(r float64, r12 r3.Vec) r3.Vec {
	if !c.InRange(r) {
		return r3.Vec{}
	}
	return r3.Scale(c.Pair.Force(r-c.Offset)/r, r12)
}

// Range is the largest distance with a non-zero interaction.
func (c CentralPotential) Range() float64 { return c.Cutoff + c.Offset }

// MinimumImage folds a separation vector into the nearest periodic image.
// Axes with a non-positive box length are open.
func MinimumImage(d, box r3.Vec) r3.Vec {
	return r3.Vec{X: image(d.X, box.X), Y: image(d.Y, box.Y), Z: image(d.Z, box.Z)}
}

func image(d, l float64) float64 {
	if l <= 0 {
		return d
	}
	return d - l*math.Round(d/l)
}

// Pairwise applies a central potential between every particle pair. Each
// worker owns a range of particles and sums the forces acting on them, so
// no force is written twice.
type Pairwise struct {
	Potential CentralPotential
	Periodic  bool
	Workers   int
}

func (Pairwise) Name() string { return "pairwise" }

func (pw Pairwise) separation(a, b r3.Vec, box r3.Vec) r3.Vec {
	d := r3.Sub(a, b)
	if pw.Periodic {
		d = MinimumImage(d, box)
	}
	return d
}

func (pw Pairwise) Apply(ps []particle.Particle, box r3.Vec) {
	parallel.For(len(ps), parallel.Workers(pw.Workers), 64, func(_, start, end int) {
		for i := start; i < end; i++ {
			var f r3.Vec
			for j := range ps {
				if j == i {
					continue
				}
				d := pw.separation(ps[i].Pos, ps[j].Pos, box)
				r := r3.Norm(d)
				f = r3.Add(f, pw.Potential.Force(r, d))
			}
			ps[i].Force = r3.Add(ps[i].Force, f)
		}
	})
}

func (pw Pairwise) Energy(ps []particle.Particle, box r3.Vec) float64 {
	var e float64
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			d := pw.separation(ps[i].Pos, ps[j].Pos, box)
			e += pw.Potential.Energy(r3.Norm(d))
		}
	}
	return e
}
