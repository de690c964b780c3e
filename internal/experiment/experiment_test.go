package experiment

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/friction"
	"github.com/san-kum/bdsim/internal/particle"
	"github.com/san-kum/bdsim/internal/sim"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Particles.Count = 27
	cfg.Box = config.Vec3{3, 3, 3}
	cfg.Run.Duration = 0.1
	cfg.Run.SampleEvery = 5
	cfg.Metrics = []string{"msd"}
	return cfg
}

func TestParticlesLattice(t *testing.T) {
	ps, err := Particles(smallConfig())
	require.NoError(t, err)
	require.Len(t, ps, 27)

	seen := make(map[r3.Vec]bool)
	for i, p := range ps {
		assert.Equal(t, i, p.ID)
		assert.Equal(t, p.Pos, p.PosAtRebuild)
		for _, c := range []float64{p.Pos.X, p.Pos.Y, p.Pos.Z} {
			assert.Contains(t, []float64{0.5, 1.5, 2.5}, c)
		}
		seen[p.Pos] = true
	}
	assert.Len(t, seen, 27)
}

func TestParticlesRandomDeterministic(t *testing.T) {
	cfg := smallConfig()
	cfg.Particles.Layout = "random"

	a, err := Particles(cfg)
	require.NoError(t, err)
	b, err := Particles(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for _, p := range a {
		assert.True(t, p.Pos.X >= 0 && p.Pos.X < 3)
		assert.True(t, p.Pos.Y >= 0 && p.Pos.Y < 3)
		assert.True(t, p.Pos.Z >= 0 && p.Pos.Z < 3)
	}

	cfg.Seed++
	c, err := Particles(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a[0].Pos, c[0].Pos)
}

func TestParticlesOverrides(t *testing.T) {
	cfg := smallConfig()
	g := friction.Anisotropic(r3.Vec{X: 1, Y: 2, Z: 3})
	kT := 0.25
	cfg.Particles.Gamma = &g
	cfg.Particles.Temperature = &kT
	cfg.Particles.Rotation = "z"
	cfg.Particles.Fixed = "xy"

	ps, err := Particles(cfg)
	require.NoError(t, err)

	p := ps[5]
	got, ok := p.Gamma.Get()
	require.True(t, ok)
	assert.Equal(t, g, got)
	assert.Equal(t, 0.25, p.Temperature.Or(1))
	assert.False(t, p.GammaRot.IsSet())
	assert.Equal(t, particle.AxisZ, p.Rotation)
	assert.Equal(t, particle.AxisX|particle.AxisY, p.Fixed)
}

func TestBuildWiresForces(t *testing.T) {
	cfg := smallConfig()
	cfg.Forces = []config.ForceConfig{{Type: "constant_field", Vector: config.Vec3{1, 0, 0}}}
	cfg.Particles.ExtForce = config.Vec3{0, 0, 1}
	cfg.Metrics = []string{"msd", "energy_constant_field"}

	s, err := Build(cfg, nil, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"constant_field", "external"}, s.Forces().Names())
	require.Len(t, s.Metrics(), 2)
	assert.Equal(t, "energy_constant_field", s.Metrics()[1].Name())
	assert.Nil(t, s.Coupling())
}

func TestBuildMetricErrors(t *testing.T) {
	tests := []struct {
		name    string
		metrics []string
	}{
		{"unknown", []string{"entropy"}},
		{"energy of missing force", []string{"energy_harmonic_well"}},
		{"energy without potential", []string{"energy_poiseuille"}},
		{"fluid without lattice", []string{"fluid_speed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			cfg.Forces = []config.ForceConfig{{Type: "poiseuille", Gamma: 1, VMax: 1, Width: 2, ChannelCenter: 1.5}}
			cfg.Metrics = tt.metrics
			_, err := Build(cfg, nil, quietLogger())
			assert.Error(t, err)
		})
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Run.Dt = 0
	_, err := Build(cfg, nil, quietLogger())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestBuildLattice(t *testing.T) {
	cfg := smallConfig()
	cfg.Lattice = &config.LatticeConfig{Agrid: 1, Gamma: 1, Density: 2, Flow: config.Vec3{0.3, 0, 0}}
	cfg.Metrics = []string{"fluid_speed"}

	s, err := Build(cfg, nil, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, s.Coupling())

	c := s.Coupling()
	assert.Equal(t, [3]int{3, 3, 3}, c.Fluid().Geometry().Shape)
	assert.Equal(t, cfg.Thermostat.KT, c.KT())
	assert.InDelta(t, 0.3, c.Fluid().MeanVelocity().X, 1e-12)

	rc := RunConfig(cfg)
	assert.Equal(t, 2.0, rc.FluidDensity)
}

func TestBuildLatticeShear(t *testing.T) {
	cfg := smallConfig()
	kT := 0.0
	cfg.Lattice = &config.LatticeConfig{Agrid: 1, Gamma: 1, Density: 1, KT: &kT, Shear: 0.5}

	s, err := Build(cfg, nil, quietLogger())
	require.NoError(t, err)

	grid := s.Coupling().Fluid()
	geom := grid.Geometry()
	assert.Equal(t, 0.0, s.Coupling().KT())
	// node z = 0.5, 1.5, 2.5 around a centre of 1.5
	assert.InDelta(t, -0.5, grid.NodeVelocity(geom.Index(0, 0, 0)).X, 1e-12)
	assert.InDelta(t, 0.0, grid.NodeVelocity(geom.Index(0, 0, 1)).X, 1e-12)
	assert.InDelta(t, 0.5, grid.NodeVelocity(geom.Index(0, 0, 2)).X, 1e-12)
}

func TestExperimentRun(t *testing.T) {
	e := New(smallConfig(), quietLogger())

	_, err := e.Run(context.Background())
	assert.Error(t, err)

	require.NoError(t, e.Setup())
	require.NotNil(t, e.GetSimulator())

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.StepsTaken)
	assert.Len(t, res.Series["msd"], 3)
	assert.Greater(t, res.Metrics["msd"], 0.0)
}

func TestFactoryEnsemble(t *testing.T) {
	e := New(smallConfig(), quietLogger())

	ens := sim.NewEnsemble(e.Factory(), 3, 7)
	ens.SetLimit(2)
	results, err := ens.Run(context.Background(), RunConfig(e.Config()))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NotEqual(t, results[0].Metrics["msd"], results[1].Metrics["msd"])
	assert.Equal(t, uint64(1), e.Config().Seed)
}

func TestPresetsBuild(t *testing.T) {
	for _, name := range config.ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := config.GetPreset(name)
			_, err := Build(cfg, nil, quietLogger())
			assert.NoError(t, err)
		})
	}
}

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()
	assert.ElementsMatch(t, config.ForceTypes, r.ListForces())
	assert.Contains(t, r.ListMetrics(), "var_z")
	assert.IsIncreasing(t, r.ListMetrics())
}
