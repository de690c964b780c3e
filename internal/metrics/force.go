package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/particle"
)

// MeanForce is the average force magnitude per particle, taken over all
// observations. Forces are read after the sweep, so this is the force that
// drove the last step.
type MeanForce struct {
	name    string
	sum     float64
	samples int
}

func NewMeanForce() *MeanForce {
	return &MeanForce{
		name: "mean_force",
	}
}

func (m *MeanForce) Name() string {
	return m.name
}

func (m *MeanForce) Observe(ps []particle.Particle, t float64) {
	for i := range ps {
		m.sum += r3.Norm(ps[i].Force)
	}
	m.samples += len(ps)
}

func (m *MeanForce) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanForce) Reset() {
	m.sum = 0
	m.samples = 0
}
