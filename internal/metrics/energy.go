package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/forces"
	"github.com/san-kum/bdsim/internal/particle"
)

// KineticTemperature is the time average of sum m v² / (3 N).
type KineticTemperature struct {
	name    string
	total   float64
	samples int
}

func NewKineticTemperature() *KineticTemperature {
	return &KineticTemperature{name: "kinetic_temperature"}
}

func (k *KineticTemperature) Name() string { return k.name }

func (k *KineticTemperature) Observe(ps []particle.Particle, t float64) {
	if len(ps) == 0 {
		return
	}
	k.total += InstantTemperature(ps)
	k.samples++
}

func (k *KineticTemperature) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticTemperature) Reset() {
	k.total = 0
	k.samples = 0
}

// InstantTemperature returns sum m v² / (3 N) for ps, skipping virtual
// particles.
func InstantTemperature(ps []particle.Particle) float64 {
	var sum float64
	n := 0
	for i := range ps {
		if ps[i].Virtual {
			continue
		}
		sum += ps[i].Mass * r3.Norm2(ps[i].Vel)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(3*n)
}

// PotentialEnergy averages the energy of a force provider per particle.
type PotentialEnergy struct {
	name     string
	provider forces.EnergyProvider
	box      r3.Vec
	total    float64
	samples  int
}

func NewPotentialEnergy(p forces.EnergyProvider, box r3.Vec) *PotentialEnergy {
	return &PotentialEnergy{
		name:     "energy_" + p.Name(),
		provider: p,
		box:      box,
	}
}

func (e *PotentialEnergy) Name() string { return e.name }

func (e *PotentialEnergy) Observe(ps []particle.Particle, t float64) {
	if len(ps) == 0 {
		return
	}
	e.total += e.provider.Energy(ps, e.box) / float64(len(ps))
	e.samples++
}

func (e *PotentialEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *PotentialEnergy) Reset() {
	e.total = 0
	e.samples = 0
}
