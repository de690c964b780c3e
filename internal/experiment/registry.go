package experiment

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/forces"
	"github.com/san-kum/bdsim/internal/lattice"
	"github.com/san-kum/bdsim/internal/metrics"
	"github.com/san-kum/bdsim/internal/sim"
)

// Env is what a metric constructor may depend on.
type Env struct {
	Box    r3.Vec
	Forces forces.Set
	Fluid  *lattice.Grid
}

type Registry struct {
	forces  map[string]func(config.ForceConfig, int) forces.Provider
	metrics map[string]func(Env) (sim.Metric, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		forces:  make(map[string]func(config.ForceConfig, int) forces.Provider),
		metrics: make(map[string]func(Env) (sim.Metric, error)),
	}

	r.forces["external"] = func(config.ForceConfig, int) forces.Provider { return forces.External{} }
	r.forces["constant_field"] = func(fc config.ForceConfig, _ int) forces.Provider {
		return forces.ConstantField{Force: fc.Vector.Vec()}
	}
	r.forces["harmonic_well"] = func(fc config.ForceConfig, _ int) forces.Provider {
		return forces.HarmonicWell{Center: fc.Center.Vec(), K: fc.K}
	}
	r.forces["poiseuille"] = func(fc config.ForceConfig, _ int) forces.Provider {
		return forces.Poiseuille{Gamma: fc.Gamma, VMax: fc.VMax, Width: fc.Width, Center: fc.ChannelCenter}
	}
	r.forces["lennard_jones"] = func(fc config.ForceConfig, workers int) forces.Provider {
		lj := forces.LennardJones{Epsilon: fc.Epsilon, Sigma: fc.Sigma}
		return forces.Pairwise{
			Potential: forces.NewCentralPotential(lj, fc.Cutoff, fc.Offset),
			Periodic:  true,
			Workers:   workers,
		}
	}

	r.metrics["msd"] = func(Env) (sim.Metric, error) { return metrics.NewMSD(), nil }
	r.metrics["diffusion"] = func(Env) (sim.Metric, error) { return metrics.NewDiffusion(), nil }
	for axis := 0; axis < 3; axis++ {
		a := axis
		r.metrics["var_"+string("xyz"[a])] = func(Env) (sim.Metric, error) { return metrics.NewAxisVariance(a), nil }
	}
	r.metrics["orientation"] = func(Env) (sim.Metric, error) { return metrics.NewOrientation(), nil }
	r.metrics["kinetic_temperature"] = func(Env) (sim.Metric, error) { return metrics.NewKineticTemperature(), nil }
	r.metrics["mean_force"] = func(Env) (sim.Metric, error) { return metrics.NewMeanForce(), nil }
	r.metrics["stability"] = func(env Env) (sim.Metric, error) {
		l := max(env.Box.X, env.Box.Y, env.Box.Z)
		return metrics.NewStability(100 * l), nil
	}
	r.metrics["fluid_speed"] = func(env Env) (sim.Metric, error) {
		if env.Fluid == nil {
			return nil, fmt.Errorf("metric fluid_speed needs a lattice")
		}
		return metrics.NewFluidSpeed(env.Fluid), nil
	}

	return r
}

func (r *Registry) GetForce(fc config.ForceConfig, workers int) (forces.Provider, error) {
	fn, ok := r.forces[fc.Type]
	if !ok {
		return nil, fmt.Errorf("unknown force: %s", fc.Type)
	}
	return fn(fc, workers), nil
}

// GetMetric resolves name. Names of the form energy_<provider> measure the
// potential energy of a configured force provider.
func (r *Registry) GetMetric(name string, env Env) (sim.Metric, error) {
	if fn, ok := r.metrics[name]; ok {
		return fn(env)
	}
	if provider, ok := strings.CutPrefix(name, "energy_"); ok {
		for _, p := range env.Forces {
			if p.Name() != provider {
				continue
			}
			ep, ok := p.(forces.EnergyProvider)
			if !ok {
				return nil, fmt.Errorf("force %s has no energy", provider)
			}
			return metrics.NewPotentialEnergy(ep, env.Box), nil
		}
		return nil, fmt.Errorf("metric %s: no force %s configured", name, provider)
	}
	return nil, fmt.Errorf("unknown metric: %s", name)
}

func (r *Registry) ListForces() []string { return sortedKeys(r.forces) }

func (r *Registry) ListMetrics() []string { return sortedKeys(r.metrics) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
