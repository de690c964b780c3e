package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/brownian"
	"github.com/san-kum/bdsim/internal/forces"
	"github.com/san-kum/bdsim/internal/lattice"
	"github.com/san-kum/bdsim/internal/particle"
	"github.com/san-kum/bdsim/internal/thermostat"
)

type Simulator struct {
	particles  []particle.Particle
	box        r3.Vec
	thermostat *thermostat.Brownian
	propagator *brownian.Propagator
	forces     forces.Set
	coupling   *lattice.Coupling
	density    float64
	metrics    []Metric
	observers  []Observer
	step       brownian.Context
	resorts    int
	logger     *slog.Logger
}

// New validates ps and returns a simulator that owns it. Particle
// orientations are normalised in place.
func New(ps []particle.Particle, box r3.Vec, th *thermostat.Brownian, logger *slog.Logger) (*Simulator, error) {
	if th == nil {
		return nil, fmt.Errorf("%w: nil thermostat", ErrInvalidConfig)
	}
	if !(box.X > 0 && box.Y > 0 && box.Z > 0) {
		return nil, fmt.Errorf("%w: box %v", ErrInvalidConfig, box)
	}
	if err := particle.ValidateAll(ps); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		particles:  ps,
		box:        box,
		thermostat: th,
		propagator: brownian.NewPropagator(th, math.Inf(1)),
		density:    1,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		logger:     logger,
	}, nil
}

func (s *Simulator) AddForce(p forces.Provider) { s.forces = append(s.forces, p) }
func (s *Simulator) AddMetric(m Metric)         { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)     { s.observers = append(s.observers, o) }

// WithCoupling attaches a fluid coupling. Force density scattered during a
// step is applied to the fluid at the end of that step.
func (s *Simulator) WithCoupling(c *lattice.Coupling) *Simulator {
	s.coupling = c
	return s
}

func (s *Simulator) Particles() []particle.Particle   { return s.particles }
func (s *Simulator) Box() r3.Vec                      { return s.box }
func (s *Simulator) Thermostat() *thermostat.Brownian { return s.thermostat }
func (s *Simulator) Coupling() *lattice.Coupling      { return s.coupling }
func (s *Simulator) Forces() forces.Set               { return s.forces }
func (s *Simulator) Context() brownian.Context        { return s.step }
func (s *Simulator) Resorts() int                     { return s.resorts }
func (s *Simulator) Propagator() *brownian.Propagator { return s.propagator }
func (s *Simulator) Metrics() []Metric                { return s.metrics }
func (s *Simulator) SetLogger(l *slog.Logger)         { s.logger = l }
func (s *Simulator) Logger() *slog.Logger             { return s.logger }
func (s *Simulator) FluidDensity() float64            { return s.density }

// Configure applies the run parameters of cfg without stepping.
func (s *Simulator) Configure(cfg Config) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}
	skin := cfg.Skin
	if skin == 0 {
		skin = math.Inf(1)
	}
	s.propagator = brownian.NewPropagator(s.thermostat, skin)
	s.propagator.SetWorkers(cfg.Workers)
	if s.coupling != nil {
		s.coupling.SetWorkers(cfg.Workers)
		s.density = cfg.FluidDensity
	}
	return nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Skin < 0 {
		return fmt.Errorf("%w: skin must be non-negative, got %g", ErrInvalidConfig, cfg.Skin)
	}
	if cfg.SampleEvery < 0 || cfg.Track < 0 {
		return fmt.Errorf("%w: sample_every and track must be non-negative", ErrInvalidConfig)
	}
	if s.coupling != nil && !(cfg.FluidDensity > 0) {
		return fmt.Errorf("%w: fluid density must be positive with lattice coupling, got %g", ErrInvalidConfig, cfg.FluidDensity)
	}
	return nil
}

// Step advances the system by dt: forces are recomputed, the fluid coupling
// acts, every particle is propagated and the neighbour list is rebuilt if
// any particle left its skin.
func (s *Simulator) Step(dt float64) error {
	for i := range s.particles {
		s.particles[i].ResetForces()
	}
	s.forces.Apply(s.particles, s.box)
	if s.coupling != nil {
		s.coupling.Apply(s.particles, dt)
	}

	s.step = s.propagator.Sweep(s.particles, dt, s.step)

	if s.step.ResortNeeded {
		s.rebuild()
		s.step.Acknowledge()
	}

	if s.coupling != nil {
		if err := s.coupling.Fluid().Apply(dt, s.density); err != nil {
			return err
		}
	}
	return nil
}

// rebuild records the positions the next skin check is measured from.
func (s *Simulator) rebuild() {
	for i := range s.particles {
		s.particles[i].PosAtRebuild = s.particles[i].Pos
	}
	s.resorts++
	s.logger.Debug("neighbour list rebuild", "step", s.step.Steps, "time", s.step.SimTime)
}

// Run advances the system for cfg.Duration from its current state. Metrics
// are reset first and observed on every recorded frame, including the
// initial one.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.Configure(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	every := cfg.SampleEvery
	if every == 0 {
		every = 1
	}

	result := &Result{
		Frames:  make([]Frame, 0, steps/every+2),
		Times:   make([]float64, 0, steps/every+2),
		Series:  make(map[string][]float64),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	resorts := s.resorts
	s.sample(result, cfg.Track)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, resorts)
			return result, ctx.Err()
		default:
		}

		if err := s.Step(cfg.Dt); err != nil {
			s.finish(result, resorts)
			return result, &SimulationError{Step: s.step.Steps, Time: s.step.SimTime, Wrapped: err}
		}
		result.StepsTaken++

		for _, obs := range s.observers {
			obs.OnStep(s.particles, s.step.SimTime)
		}

		if cfg.ValidateState {
			if err := s.CheckState(); err != nil {
				s.finish(result, resorts)
				return result, err
			}
		}

		if (i+1)%every == 0 || i == steps-1 {
			s.sample(result, cfg.Track)
		}
	}

	s.finish(result, resorts)
	return result, nil
}

func (s *Simulator) sample(result *Result, track int) {
	t := s.step.SimTime
	result.Frames = append(result.Frames, Frame{
		Time:      t,
		Step:      s.step.Steps,
		Particles: snapshot(s.particles, track),
	})
	result.Times = append(result.Times, t)

	for _, m := range s.metrics {
		m.Observe(s.particles, t)
		result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
	}
}

func (s *Simulator) finish(result *Result, resortsBefore int) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Resorts = s.resorts - resortsBefore
	result.SimTime = s.step.SimTime
}

// CheckState reports the first particle whose position or velocity is no
// longer finite.
func (s *Simulator) CheckState() error {
	if id, ok := s.firstInvalid(); ok {
		return &SimulationError{
			Step:    s.step.Steps,
			Time:    s.step.SimTime,
			Wrapped: fmt.Errorf("%w: particle %d", ErrUnstable, id),
		}
	}
	return nil
}

func (s *Simulator) firstInvalid() (int, bool) {
	for i := range s.particles {
		p := &s.particles[i]
		snap := Snapshot{Pos: p.Pos, Vel: p.Vel}
		if !snap.IsValid() {
			return p.ID, true
		}
	}
	return 0, false
}

// Energy returns the total potential energy of the force providers.
func (s *Simulator) Energy() float64 {
	return s.forces.Energy(s.particles, s.box)
}
