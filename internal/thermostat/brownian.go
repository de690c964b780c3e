// Package thermostat stores the Brownian thermostat parameters and the noise
// amplitudes derived from them.
package thermostat

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/friction"
	"github.com/san-kum/bdsim/internal/noise"
)

var ErrNegativeTemperature = errors.New("thermostat: temperature must be non-negative")

// Coefficients of the fluctuation-dissipation relations: the positional walk
// has variance 2 kT dt / gamma, the velocity walk variance kT / m.
const (
	PositionTempCoeff = 2.0
	VelocityTempCoeff = 1.0
)

// Params configures a Brownian thermostat.
type Params struct {
	Gamma             friction.Model
	GammaRotation     friction.Model
	KT                float64
	Seed              uint64
	Counter           uint64
	ThermalizeVirtual bool
}

// Brownian holds the global thermostat state. Setters are not safe for
// concurrent use with a running sweep; readers are.
type Brownian struct {
	gamma    friction.Model
	gammaRot friction.Model
	kT       float64

	sigmaPosInv    r3.Vec
	sigmaPosRotInv r3.Vec
	sigmaVel       float64
	sigmaVelRot    float64

	ThermalizeVirtual bool

	counter noise.Counter
}

func NewBrownian(p Params) (*Brownian, error) {
	if err := p.Gamma.Validate(); err != nil {
		return nil, fmt.Errorf("thermostat: gamma: %w", err)
	}
	if err := p.GammaRotation.Validate(); err != nil {
		return nil, fmt.Errorf("thermostat: gamma_rotation: %w", err)
	}
	if err := checkTemperature(p.KT); err != nil {
		return nil, err
	}

	b := &Brownian{
		gamma:             p.Gamma,
		gammaRot:          p.GammaRotation,
		kT:                p.KT,
		ThermalizeVirtual: p.ThermalizeVirtual,
		counter:           noise.Counter{Seed: p.Seed, Value: p.Counter},
	}
	b.recompute()
	return b, nil
}

func checkTemperature(kT float64) error {
	if kT < 0 || math.IsNaN(kT) || math.IsInf(kT, 0) {
		return fmt.Errorf("%w: got %g", ErrNegativeTemperature, kT)
	}
	return nil
}

func (b *Brownian) recompute() {
	b.sigmaPosInv = SigmaPosInv(b.gamma, b.kT)
	b.sigmaPosRotInv = SigmaPosInv(b.gammaRot, b.kT)
	b.sigmaVel = SigmaVel(b.kT)
	b.sigmaVelRot = SigmaVel(b.kT)
}

func (b *Brownian) Gamma() friction.Model         { return b.gamma }
func (b *Brownian) GammaRotation() friction.Model { return b.gammaRot }
func (b *Brownian) KT() float64                   { return b.kT }
func (b *Brownian) SigmaPosInv() r3.Vec           { return b.sigmaPosInv }
func (b *Brownian) SigmaPosRotInv() r3.Vec        { return b.sigmaPosRotInv }
func (b *Brownian) SigmaVel() float64             { return b.sigmaVel }
func (b *Brownian) SigmaVelRot() float64          { return b.sigmaVelRot }

func (b *Brownian) SetTemperature(kT float64) error {
	if err := checkTemperature(kT); err != nil {
		return err
	}
	b.kT = kT
	b.recompute()
	return nil
}

func (b *Brownian) SetGamma(g friction.Model) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("thermostat: gamma: %w", err)
	}
	b.gamma = g
	b.recompute()
	return nil
}

func (b *Brownian) SetGammaRotation(g friction.Model) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("thermostat: gamma_rotation: %w", err)
	}
	b.gammaRot = g
	b.recompute()
	return nil
}

// Counter returns the current noise counter.
func (b *Brownian) Counter() noise.Counter { return b.counter }

// Advance increments the noise counter. Called once per step by the single
// writer before the sweep fans out.
func (b *Brownian) Advance() { b.counter.Increment() }

// Restore resets the counter, typically from a checkpoint.
func (b *Brownian) Restore(c noise.Counter) { b.counter = c }

// Noise draws the salt stream of particle id for the current counter.
func (b *Brownian) Noise(id int, salt noise.Salt) r3.Vec {
	return b.counter.Generator().Vec3(b.counter.Value, id, salt)
}

func (b *Brownian) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("gamma", b.gamma.String()),
		slog.String("gamma_rotation", b.gammaRot.String()),
		slog.Float64("kT", b.kT),
		slog.Uint64("seed", b.counter.Seed),
		slog.Uint64("counter", b.counter.Value),
		slog.Bool("thermalize_virtual", b.ThermalizeVirtual),
	)
}

// SigmaPosInv returns sqrt(gamma / (2 kT)) per axis. At kT == 0 every axis is
// +Inf, the sentinel for a walk that contributes nothing.
func SigmaPosInv(gamma friction.Model, kT float64) r3.Vec {
	if kT <= 0 {
		inf := math.Inf(1)
		return r3.Vec{X: inf, Y: inf, Z: inf}
	}
	g := gamma.Vec()
	d := PositionTempCoeff * kT
	return r3.Vec{X: math.Sqrt(g.X / d), Y: math.Sqrt(g.Y / d), Z: math.Sqrt(g.Z / d)}
}

// SigmaVel returns sqrt(kT).
func SigmaVel(kT float64) float64 {
	if kT <= 0 {
		return 0
	}
	return math.Sqrt(VelocityTempCoeff * kT)
}

// WalkAmplitude converts one axis of sigma_pos_inv into the displacement
// standard deviation per sqrt(dt). Zero friction and zero temperature both
// collapse to no displacement.
func WalkAmplitude(sigmaPosInv float64) float64 {
	if !(sigmaPosInv > 0) || math.IsInf(sigmaPosInv, 1) {
		return 0
	}
	return 1 / sigmaPosInv
}
