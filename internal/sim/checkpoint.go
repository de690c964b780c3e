package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/brownian"
	"github.com/san-kum/bdsim/internal/noise"
	"github.com/san-kum/bdsim/internal/particle"
)

// Checkpoint is everything needed to continue a run bit for bit: the step
// context, both noise counters, the fluid velocities and the particles.
type Checkpoint struct {
	SimTime    float64             `yaml:"sim_time"`
	Steps      int64               `yaml:"steps"`
	Resorts    int                 `yaml:"resorts"`
	Thermostat noise.Counter       `yaml:"thermostat"`
	Coupling   *noise.Counter      `yaml:"coupling,omitempty"`
	Fluid      []r3.Vec            `yaml:"fluid,omitempty"`
	Particles  []particle.Particle `yaml:"particles"`
}

func (s *Simulator) Checkpoint() Checkpoint {
	cp := Checkpoint{
		SimTime:    s.step.SimTime,
		Steps:      s.step.Steps,
		Resorts:    s.resorts,
		Thermostat: s.thermostat.Counter(),
		Particles:  particle.Clone(s.particles),
	}
	if s.coupling != nil {
		c := s.coupling.Counter()
		cp.Coupling = &c
		cp.Fluid = s.coupling.Fluid().Velocities()
	}
	return cp
}

// Restore replaces the simulator state with cp. The particle count and the
// presence of a fluid coupling must match.
func (s *Simulator) Restore(cp Checkpoint) error {
	if len(cp.Particles) != len(s.particles) {
		return fmt.Errorf("%w: %d particles, simulator has %d", ErrCheckpointMismatch, len(cp.Particles), len(s.particles))
	}
	if (cp.Coupling != nil) != (s.coupling != nil) {
		return fmt.Errorf("%w: lattice coupling presence differs", ErrCheckpointMismatch)
	}

	// Validate a clone: stored orientations are restored bit for bit, not
	// renormalised.
	if err := particle.ValidateAll(particle.Clone(cp.Particles)); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointMismatch, err)
	}

	if s.coupling != nil {
		if err := s.coupling.Fluid().LoadVelocities(cp.Fluid); err != nil {
			return fmt.Errorf("%w: %w", ErrCheckpointMismatch, err)
		}
		s.coupling.Fluid().ResetForces()
		s.coupling.Restore(*cp.Coupling)
	}

	copy(s.particles, cp.Particles)
	s.thermostat.Restore(cp.Thermostat)
	s.step = brownian.Context{SimTime: cp.SimTime, Steps: cp.Steps}
	s.resorts = cp.Resorts
	return nil
}
