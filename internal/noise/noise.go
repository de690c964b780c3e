// Package noise provides reproducible Gaussian noise keyed by a step counter,
// a particle identity and a stream salt.
package noise

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Salt separates noise streams drawn for the same particle in the same step.
type Salt uint64

const (
	TranslationWalk Salt = iota + 1
	TranslationVelocity
	RotationWalk
	RotationVelocity
	LatticeCoupling
)

func (s Salt) String() string {
	switch s {
	case TranslationWalk:
		return "translation_walk"
	case TranslationVelocity:
		return "translation_velocity"
	case RotationWalk:
		return "rotation_walk"
	case RotationVelocity:
		return "rotation_velocity"
	case LatticeCoupling:
		return "lattice_coupling"
	default:
		return fmt.Sprintf("Salt(%d)", uint64(s))
	}
}

// Generator draws noise for a fixed seed. It holds no mutable state.
type Generator struct {
	Seed uint64
}

// uniform maps 53 random bits to (0, 1].
func uniform(x uint64) float64 {
	return float64((x>>11)+1) * 0x1.0p-53
}

// Block returns the raw 256 bit Philox output for (counter, id, salt).
func (g Generator) Block(counter uint64, id int, salt Salt) [4]uint64 {
	return philox(block{counter, uint64(salt), 0, 0}, key{uint64(id), g.Seed})
}

// Uniform3 returns three independent uniforms in (0, 1].
func (g Generator) Uniform3(counter uint64, id int, salt Salt) r3.Vec {
	b := g.Block(counter, id, salt)
	return r3.Vec{X: uniform(b[0]), Y: uniform(b[1]), Z: uniform(b[2])}
}

// Vec3 returns three independent standard normal deviates. Identical
// arguments always yield identical output.
func (g Generator) Vec3(counter uint64, id int, salt Salt) r3.Vec {
	b := g.Block(counter, id, salt)

	r0 := math.Sqrt(-2 * math.Log(uniform(b[0])))
	s0, c0 := math.Sincos(2 * math.Pi * uniform(b[1]))
	r1 := math.Sqrt(-2 * math.Log(uniform(b[2])))
	c1 := math.Cos(2 * math.Pi * uniform(b[3]))

	return r3.Vec{X: r0 * c0, Y: r0 * s0, Z: r1 * c1}
}

// Counter is the per-step noise counter. It must be advanced exactly once
// per step before any particle draws from it.
type Counter struct {
	Seed  uint64 `yaml:"seed" json:"seed"`
	Value uint64 `yaml:"value" json:"value"`
}

func (c *Counter) Increment() { c.Value++ }

func (c Counter) Generator() Generator { return Generator{Seed: c.Seed} }
