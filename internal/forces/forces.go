// Package forces accumulates conservative and external forces on particles
// before each Brownian sweep. Providers add to Force and Torque; they never
// clear them.
package forces

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/particle"
)

type Provider interface {
	Name() string
	Apply(ps []particle.Particle, box r3.Vec)
}

// EnergyProvider is implemented by providers with a potential energy.
type EnergyProvider interface {
	Provider
	Energy(ps []particle.Particle, box r3.Vec) float64
}

// External adds each particle's own ExtForce and ExtTorque.
type External struct{}

func (External) Name() string { return "external" }

func (External) Apply(ps []particle.Particle, _ r3.Vec) {
	for i := range ps {
		ps[i].Force = r3.Add(ps[i].Force, ps[i].ExtForce)
		ps[i].Torque = r3.Add(ps[i].Torque, ps[i].ExtTorque)
	}
}

// ConstantField adds the same force to every particle.
type ConstantField struct {
	Force r3.Vec `yaml:"force"`
}

func (ConstantField) Name() string { return "constant_field" }

func (c ConstantField) Apply(ps []particle.Particle, _ r3.Vec) {
	for i := range ps {
		ps[i].Force = r3.Add(ps[i].Force, c.Force)
	}
}

// Energy is the work against the field measured from the origin.
func (c ConstantField) Energy(ps []particle.Particle, _ r3.Vec) float64 {
	var e float64
	for i := range ps {
		e -= r3.Dot(c.Force, ps[i].Pos)
	}
	return e
}

// HarmonicWell pulls every particle towards Center with stiffness K.
type HarmonicWell struct {
	Center r3.Vec  `yaml:"center"`
	K      float64 `yaml:"k"`
}

func (HarmonicWell) Name() string { return "harmonic_well" }

func (h HarmonicWell) Apply(ps []particle.Particle, _ r3.Vec) {
	for i := range ps {
		d := r3.Sub(ps[i].Pos, h.Center)
		ps[i].Force = r3.Add(ps[i].Force, r3.Scale(-h.K, d))
	}
}

func (h HarmonicWell) Energy(ps []particle.Particle, _ r3.Vec) float64 {
	var e float64
	for i := range ps {
		e += 0.5 * h.K * r3.Norm2(r3.Sub(ps[i].Pos, h.Center))
	}
	return e
}

// Poiseuille drives particles along x with a parabolic channel profile
// across z: inside |z - Center| < Width/2 the force is
// Gamma * VMax * (1 - 4 d² / Width²), outside it is zero.
type Poiseuille struct {
	Gamma  float64 `yaml:"gamma"`
	VMax   float64 `yaml:"v_max"`
	Width  float64 `yaml:"width"`
	Center float64 `yaml:"center"`
}

func (Poiseuille) Name() string { return "poiseuille" }

// Velocity returns the profile velocity at distance d from the channel
// centre.
func (pf Poiseuille) Velocity(d float64) float64 {
	return pf.VMax * (1 - 4*d*d/(pf.Width*pf.Width))
}

func (pf Poiseuille) Apply(ps []particle.Particle, _ r3.Vec) {
	if pf.Width <= 0 {
		return
	}
	for i := range ps {
		d := ps[i].Pos.Z - pf.Center
		if d < 0 {
			d = -d
		}
		if d < 0.5*pf.Width {
			ps[i].Force.X += pf.Gamma * pf.Velocity(d)
		}
	}
}

// Set applies every provider in order.
type Set []Provider

func (s Set) Apply(ps []particle.Particle, box r3.Vec) {
	for _, p := range s {
		p.Apply(ps, box)
	}
}

// Energy sums the energy of the providers that have one.
func (s Set) Energy(ps []particle.Particle, box r3.Vec) float64 {
	var e float64
	for _, p := range s {
		if ep, ok := p.(EnergyProvider); ok {
			e += ep.Energy(ps, box)
		}
	}
	return e
}

// Names lists the provider names in application order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name()
	}
	return names
}
