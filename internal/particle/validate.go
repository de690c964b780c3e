package particle

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Setup errors. They describe configuration defects and are not recoverable
// once a run has started.
var (
	ErrInvalidMass        = errors.New("particle: mass must be positive")
	ErrInvalidInertia     = errors.New("particle: inertia must be positive on rotating axes")
	ErrInvalidOrientation = errors.New("particle: orientation quaternion is zero or not finite")
	ErrInvalidOverride    = errors.New("particle: invalid per-particle override")
)

// Validate checks p for setup errors and normalises its orientation.
func Validate(p *Particle) error {
	if !(p.Mass > 0) || math.IsInf(p.Mass, 0) {
		return fmt.Errorf("%w: particle %d has mass %g", ErrInvalidMass, p.ID, p.Mass)
	}

	if p.CanRotate() {
		for j := 0; j < 3; j++ {
			if !p.Rotation.Has(j) {
				continue
			}
			var in float64
			switch j {
			case 0:
				in = p.Inertia.X
			case 1:
				in = p.Inertia.Y
			default:
				in = p.Inertia.Z
			}
			if !(in > 0) {
				return fmt.Errorf("%w: particle %d axis %d has inertia %g", ErrInvalidInertia, p.ID, j, in)
			}
		}
	}

	n := quat.Abs(p.Quat)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return fmt.Errorf("%w: particle %d", ErrInvalidOrientation, p.ID)
	}
	p.Quat = Normalize(p.Quat)

	if g, ok := p.Gamma.Get(); ok {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("%w: particle %d gamma: %v", ErrInvalidOverride, p.ID, err)
		}
	}
	if g, ok := p.GammaRot.Get(); ok {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("%w: particle %d gamma_rot: %v", ErrInvalidOverride, p.ID, err)
		}
	}
	if kT, ok := p.Temperature.Get(); ok && (kT < 0 || math.IsNaN(kT)) {
		return fmt.Errorf("%w: particle %d temperature %g", ErrInvalidOverride, p.ID, kT)
	}

	return nil
}

// ValidateAll runs Validate on every particle and also rejects duplicate
// identities, which would correlate their noise.
func ValidateAll(ps []Particle) error {
	seen := make(map[int]struct{}, len(ps))
	for i := range ps {
		if err := Validate(&ps[i]); err != nil {
			return err
		}
		if _, dup := seen[ps[i].ID]; dup {
			return fmt.Errorf("particle: duplicate id %d", ps[i].ID)
		}
		seen[ps[i].ID] = struct{}{}
	}
	return nil
}
