package particle

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/friction"
)

// AxisMask is a set of Cartesian axes.
type AxisMask uint8

const (
	AxisX AxisMask = 1 << iota
	AxisY
	AxisZ

	NoAxes  AxisMask = 0
	AllAxes          = AxisX | AxisY | AxisZ
)

// Axis returns the mask holding only axis j.
func Axis(j int) AxisMask { return AxisMask(1) << uint(j) }

func (m AxisMask) Has(j int) bool { return m&Axis(j) != 0 }

func (m AxisMask) Empty() bool { return m&AllAxes == 0 }

// Apply zeroes the components of v whose axis is not in the mask.
func (m AxisMask) Apply(v r3.Vec) r3.Vec {
	if !m.Has(0) {
		v.X = 0
	}
	if !m.Has(1) {
		v.Y = 0
	}
	if !m.Has(2) {
		v.Z = 0
	}
	return v
}

// Optional holds a per-particle override that may be unset.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] { return Optional[T]{value: v, set: true} }

func None[T any]() Optional[T] { return Optional[T]{} }

func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

func (o Optional[T]) IsSet() bool { return o.set }

// Or returns the override if set and fallback otherwise.
func (o Optional[T]) Or(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Particle is the kinematic and parameter record the integrator mutates in
// place. Force and Torque are in the lab frame, Omega in the body frame.
type Particle struct {
	ID int `yaml:"id"`

	Pos   r3.Vec      `yaml:"pos"`
	Vel   r3.Vec      `yaml:"vel"`
	Quat  quat.Number `yaml:"quat"`
	Omega r3.Vec      `yaml:"omega"`

	Force  r3.Vec `yaml:"force"`
	Torque r3.Vec `yaml:"torque"`

	Mass    float64 `yaml:"mass"`
	Inertia r3.Vec  `yaml:"inertia"`

	Gamma       Optional[friction.Model] `yaml:"gamma,omitempty"`
	GammaRot    Optional[friction.Model] `yaml:"gamma_rot,omitempty"`
	Temperature Optional[float64]        `yaml:"temperature,omitempty"`

	Virtual  bool     `yaml:"virtual,omitempty"`
	Fixed    AxisMask `yaml:"fixed,omitempty"`
	Rotation AxisMask `yaml:"rotation,omitempty"`

	ExtForce  r3.Vec `yaml:"ext_force"`
	ExtTorque r3.Vec `yaml:"ext_torque"`

	// PosAtRebuild is the position recorded at the last neighbour list
	// rebuild.
	PosAtRebuild r3.Vec `yaml:"pos_at_rebuild"`
}

// New returns a particle at pos with unit mass and inertia, identity
// orientation and rotation disabled.
func New(id int, pos r3.Vec) Particle {
	return Particle{
		ID:           id,
		Pos:          pos,
		Quat:         Identity(),
		Mass:         1,
		Inertia:      r3.Vec{X: 1, Y: 1, Z: 1},
		PosAtRebuild: pos,
	}
}

func (p *Particle) CanRotate() bool { return !p.Rotation.Empty() }

// ResetForces clears the force and torque accumulators.
func (p *Particle) ResetForces() {
	p.Force = r3.Vec{}
	p.Torque = r3.Vec{}
}

// Director is the body z axis expressed in the lab frame.
func (p *Particle) Director() r3.Vec {
	return BodyToLab(p.Quat, r3.Vec{Z: 1})
}

// Clone returns a copy of ps.
func Clone(ps []Particle) []Particle {
	out := make([]Particle, len(ps))
	copy(out, ps)
	return out
}
