package config

import (
	"sort"

	"github.com/san-kum/bdsim/internal/friction"
)

func lbKT(kT float64) *float64 { return &kT }

func preset(name string, edit func(c *Config)) *Config {
	c := DefaultConfig()
	c.Name = name
	edit(c)
	return c
}

var Presets = map[string]*Config{
	"free": preset("free", func(c *Config) {
		c.Particles.Count = 500
		c.Particles.Layout = "random"
		c.Metrics = []string{"msd", "diffusion", "var_x", "var_y", "var_z"}
	}),
	"anisotropic": preset("anisotropic", func(c *Config) {
		c.Particles.Count = 500
		c.Particles.Layout = "random"
		c.Particles.Rotation = "all"
		c.Thermostat.Gamma = friction.Anisotropic(Vec3{1, 2, 4}.Vec())
		c.Metrics = []string{"msd", "var_x", "var_y", "var_z", "orientation"}
	}),
	"fixed_axis": preset("fixed_axis", func(c *Config) {
		c.Particles.Count = 200
		c.Particles.Fixed = "z"
		c.Forces = []ForceConfig{{Type: "constant_field", Vector: Vec3{0.5, 0, 0.5}}}
		c.Metrics = []string{"msd", "var_z", "mean_force"}
	}),
	"rotor": preset("rotor", func(c *Config) {
		c.Particles.Count = 200
		c.Particles.Rotation = "all"
		c.Particles.ExtTorque = Vec3{0, 0, 0.5}
		c.Thermostat.GammaRotation = friction.Anisotropic(Vec3{1, 1, 2}.Vec())
		c.Forces = []ForceConfig{{Type: "external"}}
		c.Metrics = []string{"orientation", "kinetic_temperature"}
	}),
	"trap": preset("trap", func(c *Config) {
		c.Particles.Count = 100
		c.Particles.Layout = "center"
		c.Forces = []ForceConfig{{Type: "harmonic_well", Center: Vec3{5, 5, 5}, K: 2}}
		c.Metrics = []string{"msd", "energy_harmonic_well", "stability"}
	}),
	"channel": preset("channel", func(c *Config) {
		c.Particles.Count = 300
		c.Particles.Layout = "random"
		c.Forces = []ForceConfig{{Type: "poiseuille", Gamma: 1, VMax: 1, Width: 8, ChannelCenter: 5}}
		c.Metrics = []string{"msd", "var_x", "mean_force"}
	}),
	"lj_fluid": preset("lj_fluid", func(c *Config) {
		c.Particles.Count = 216
		c.Run.Dt = 0.001
		c.Run.Duration = 2
		c.Run.Skin = 0.3
		c.Forces = []ForceConfig{{Type: "lennard_jones", Epsilon: 1, Sigma: 1, Cutoff: 2.5}}
		c.Metrics = []string{"msd", "energy_pairwise", "stability"}
	}),
	"lb_flow": preset("lb_flow", func(c *Config) {
		c.Particles.Count = 100
		c.Particles.Layout = "random"
		c.Thermostat.KT = 0
		c.Lattice = &LatticeConfig{
			Agrid:   1,
			Gamma:   1,
			KT:      lbKT(0.1),
			Density: 10,
			Flow:    Vec3{0.2, 0, 0},
		}
		c.Metrics = []string{"msd", "kinetic_temperature", "fluid_speed"}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetInfo is a one line description of each preset.
var PresetInfo = map[string]string{
	"free":        "free diffusion in a periodic box",
	"anisotropic": "body-frame friction with rotation",
	"fixed_axis":  "drift along a frozen z axis",
	"rotor":       "torque driven rotation",
	"trap":        "particles in a harmonic well",
	"channel":     "poiseuille drag in a channel",
	"lj_fluid":    "lennard-jones fluid",
	"lb_flow":     "particles coupled to a lattice flow",
}
