// Package friction describes translational and rotational friction
// coefficients, either a single isotropic value or one value per principal
// axis of a particle.
package friction

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNegative is returned when a friction coefficient is negative or NaN.
var ErrNegative = errors.New("friction: coefficient must be non-negative")

// Kind selects how a Model was constructed.
type Kind int

const (
	KindIsotropic Kind = iota
	KindAnisotropic
)

func (k Kind) String() string {
	switch k {
	case KindIsotropic:
		return "isotropic"
	case KindAnisotropic:
		return "anisotropic"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Model is a friction coefficient. The zero value is an isotropic model with
// zero friction.
type Model struct {
	kind  Kind
	gamma r3.Vec
}

// Isotropic returns a model with the same coefficient along every axis.
func Isotropic(gamma float64) Model {
	return Model{kind: KindIsotropic, gamma: r3.Vec{X: gamma, Y: gamma, Z: gamma}}
}

// Anisotropic returns a model with one coefficient per principal axis.
func Anisotropic(gamma r3.Vec) Model {
	return Model{kind: KindAnisotropic, gamma: gamma}
}

func (m Model) Kind() Kind { return m.kind }

// Vec returns the per-axis coefficients.
func (m Model) Vec() r3.Vec { return m.gamma }

// Axis returns the coefficient along axis j (0, 1 or 2).
func (m Model) Axis(j int) float64 {
	switch j {
	case 0:
		return m.gamma.X
	case 1:
		return m.gamma.Y
	default:
		return m.gamma.Z
	}
}

// IsAnisotropic reports whether the coefficients differ between axes. A model
// built with Anisotropic but holding three equal values is not anisotropic.
func (m Model) IsAnisotropic() bool {
	return m.gamma.X != m.gamma.Y || m.gamma.Y != m.gamma.Z
}

func (m Model) Validate() error {
	for j := 0; j < 3; j++ {
		g := m.Axis(j)
		if g < 0 || math.IsNaN(g) {
			return fmt.Errorf("%w: axis %d is %g", ErrNegative, j, g)
		}
	}
	return nil
}

func (m Model) String() string {
	if !m.IsAnisotropic() {
		return fmt.Sprintf("%g", m.gamma.X)
	}
	return fmt.Sprintf("[%g %g %g]", m.gamma.X, m.gamma.Y, m.gamma.Z)
}
