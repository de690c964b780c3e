package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/forces"
	"github.com/san-kum/bdsim/internal/lattice"
	"github.com/san-kum/bdsim/internal/particle"
	"github.com/san-kum/bdsim/internal/sim"
	"github.com/san-kum/bdsim/internal/thermostat"
)

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	logger    *slog.Logger
	simulator *sim.Simulator
}

func New(cfg *config.Config, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		logger:   logger,
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Setup builds the simulator described by the configuration.
func (e *Experiment) Setup() error {
	s, err := Build(e.cfg, e.registry, e.logger)
	if err != nil {
		return err
	}
	e.simulator = s
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, RunConfig(e.cfg))
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Factory returns an ensemble factory. Every member is built from a copy of
// the configuration with its own seed.
func (e *Experiment) Factory() sim.Factory {
	return func(run int, seed uint64) (*sim.Simulator, error) {
		cfg := e.cfg.Clone()
		cfg.Seed = seed
		return Build(cfg, e.registry, e.logger.With("run", run))
	}
}

// RunConfig returns the stepping parameters of cfg, with the fluid density
// taken from the lattice section.
func RunConfig(cfg *config.Config) sim.Config {
	rc := cfg.Run
	if cfg.Lattice != nil {
		rc.FluidDensity = cfg.Lattice.Density
	}
	return rc
}

// Build validates cfg and assembles particles, thermostat, forces, the
// optional lattice coupling and the requested metrics.
func Build(cfg *config.Config, reg *Registry, logger *slog.Logger) (*sim.Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}

	box := cfg.Box.Vec()
	ps, err := Particles(cfg)
	if err != nil {
		return nil, err
	}

	th, err := thermostat.NewBrownian(thermostat.Params{
		Gamma:             cfg.Thermostat.Gamma,
		GammaRotation:     cfg.Thermostat.GammaRotation,
		KT:                cfg.Thermostat.KT,
		Seed:              cfg.Seed,
		ThermalizeVirtual: cfg.Thermostat.ThermalizeVirtual,
	})
	if err != nil {
		return nil, err
	}

	s, err := sim.New(ps, box, th, logger)
	if err != nil {
		return nil, err
	}

	var set forces.Set
	hasExternal := false
	for _, fc := range cfg.Forces {
		p, err := reg.GetForce(fc, cfg.Run.Workers)
		if err != nil {
			return nil, err
		}
		hasExternal = hasExternal || fc.Type == "external"
		set = append(set, p)
	}
	if !hasExternal && (cfg.Particles.ExtForce != config.Vec3{} || cfg.Particles.ExtTorque != config.Vec3{}) {
		set = append(set, forces.External{})
	}
	for _, p := range set {
		s.AddForce(p)
	}

	env := Env{Box: box, Forces: set}
	if cfg.Lattice != nil {
		c, err := buildCoupling(cfg, logger)
		if err != nil {
			return nil, err
		}
		s.WithCoupling(c)
		env.Fluid = c.Fluid()
	}

	for _, name := range cfg.Metrics {
		m, err := reg.GetMetric(name, env)
		if err != nil {
			return nil, err
		}
		s.AddMetric(m)
	}

	logger.Info("simulation built",
		"name", cfg.Name,
		"particles", len(ps),
		"forces", set.Names(),
		"metrics", cfg.Metrics,
		"thermostat", th,
	)
	return s, nil
}

func buildCoupling(cfg *config.Config, logger *slog.Logger) (*lattice.Coupling, error) {
	lc := cfg.Lattice
	box := cfg.Box.Vec()

	geom, err := lattice.NewGeometry(box, lc.Agrid)
	if err != nil {
		return nil, err
	}
	if !geom.Divisible() {
		logger.Warn("box is not a multiple of the lattice spacing",
			"box", box, "agrid", lc.Agrid, "shape", geom.Shape)
	}

	grid := lattice.NewGrid(geom)
	flow := lc.Flow.Vec()
	shear := lc.Shear
	grid.SetField(func(pos r3.Vec) r3.Vec {
		u := flow
		u.X += shear * (pos.Z - 0.5*box.Z)
		return u
	})

	kT := cfg.Thermostat.KT
	if lc.KT != nil {
		kT = *lc.KT
	}
	c, err := lattice.NewCoupling(grid, lattice.CouplingParams{
		Gamma: lc.Gamma,
		KT:    kT,
		Seed:  cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	c.SetWorkers(cfg.Run.Workers)
	logger.Debug("lattice coupling", "coupling", c, "nodes", geom.Nodes())
	return c, nil
}

// Particles generates the initial configuration described by cfg.
func Particles(cfg *config.Config) ([]particle.Particle, error) {
	pc := cfg.Particles
	rotation, err := config.ParseAxes(pc.Rotation)
	if err != nil {
		return nil, err
	}
	fixed, err := config.ParseAxes(pc.Fixed)
	if err != nil {
		return nil, err
	}

	positions, err := layout(pc.Layout, pc.Count, cfg.Box.Vec(), cfg.Seed)
	if err != nil {
		return nil, err
	}

	ps := make([]particle.Particle, pc.Count)
	for i := range ps {
		p := particle.New(i, positions[i])
		p.Mass = pc.Mass
		p.Inertia = pc.Inertia.Vec()
		p.Rotation = rotation
		p.Fixed = fixed
		p.ExtForce = pc.ExtForce.Vec()
		p.ExtTorque = pc.ExtTorque.Vec()
		if pc.Gamma != nil {
			p.Gamma = particle.Some(*pc.Gamma)
		}
		if pc.GammaRot != nil {
			p.GammaRot = particle.Some(*pc.GammaRot)
		}
		if pc.Temperature != nil {
			p.Temperature = particle.Some(*pc.Temperature)
		}
		ps[i] = p
	}
	return ps, nil
}

func layout(kind string, n int, box r3.Vec, seed uint64) ([]r3.Vec, error) {
	pos := make([]r3.Vec, n)
	switch kind {
	case "center":
		for i := range pos {
			pos[i] = r3.Scale(0.5, box)
		}
	case "random":
		rng := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
		for i := range pos {
			pos[i] = r3.Vec{X: rng.Float64() * box.X, Y: rng.Float64() * box.Y, Z: rng.Float64() * box.Z}
		}
	case "lattice":
		side := int(math.Ceil(math.Cbrt(float64(n))))
		for side*side*side < n {
			side++
		}
		a := r3.Vec{X: box.X / float64(side), Y: box.Y / float64(side), Z: box.Z / float64(side)}
		for i := range pos {
			x, y, z := i%side, (i/side)%side, i/(side*side)
			pos[i] = r3.Vec{
				X: (float64(x) + 0.5) * a.X,
				Y: (float64(y) + 0.5) * a.Y,
				Z: (float64(z) + 0.5) * a.Z,
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown layout %q", config.ErrInvalid, kind)
	}
	return pos, nil
}
