package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bdsim/internal/friction"
	"github.com/san-kum/bdsim/internal/particle"
	"github.com/san-kum/bdsim/internal/sim"
)

const (
	DefaultDt          = 0.01
	DefaultDuration    = 10.0
	DefaultSkin        = 0.4
	DefaultSampleEvery = 10
	DefaultTrack       = 64
	DefaultCount       = 100
	DefaultBox         = 10.0
	DefaultKT          = 1.0
	DefaultGamma       = 1.0
)

var ErrInvalid = errors.New("config: invalid configuration")

// Vec3 is a vector written as a three element YAML sequence.
type Vec3 [3]float64

func (v Vec3) Vec() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

type Config struct {
	Name       string           `yaml:"name"`
	Seed       uint64           `yaml:"seed"`
	Box        Vec3             `yaml:"box"`
	Particles  ParticlesConfig  `yaml:"particles"`
	Thermostat ThermostatConfig `yaml:"thermostat"`
	Forces     []ForceConfig    `yaml:"forces,omitempty"`
	Lattice    *LatticeConfig   `yaml:"lattice,omitempty"`
	Run        sim.Config       `yaml:"run"`
	Metrics    []string         `yaml:"metrics"`
}

type ParticlesConfig struct {
	Count  int    `yaml:"count"`
	Layout string `yaml:"layout"`

	Mass     float64 `yaml:"mass"`
	Inertia  Vec3    `yaml:"inertia"`
	Rotation string  `yaml:"rotation"`
	Fixed    string  `yaml:"fixed"`

	// Per-particle overrides applied to every generated particle.
	Gamma       *friction.Model `yaml:"gamma,omitempty"`
	GammaRot    *friction.Model `yaml:"gamma_rot,omitempty"`
	Temperature *float64        `yaml:"temperature,omitempty"`

	ExtForce  Vec3 `yaml:"ext_force"`
	ExtTorque Vec3 `yaml:"ext_torque"`
}

type ThermostatConfig struct {
	KT                float64        `yaml:"kT"`
	Gamma             friction.Model `yaml:"gamma"`
	GammaRotation     friction.Model `yaml:"gamma_rotation"`
	ThermalizeVirtual bool           `yaml:"thermalize_virtual"`
}

// ForceConfig describes one force provider. Only the fields of its Type are
// read.
type ForceConfig struct {
	Type string `yaml:"type"`

	Vector Vec3    `yaml:"vector,omitempty"`
	Center Vec3    `yaml:"center,omitempty"`
	K      float64 `yaml:"k,omitempty"`

	Gamma         float64 `yaml:"gamma,omitempty"`
	VMax          float64 `yaml:"v_max,omitempty"`
	Width         float64 `yaml:"width,omitempty"`
	ChannelCenter float64 `yaml:"channel_center,omitempty"`

	Epsilon float64 `yaml:"epsilon,omitempty"`
	Sigma   float64 `yaml:"sigma,omitempty"`
	Cutoff  float64 `yaml:"cutoff,omitempty"`
	Offset  float64 `yaml:"offset,omitempty"`
}

type LatticeConfig struct {
	Agrid float64 `yaml:"agrid"`
	Gamma float64 `yaml:"gamma"`
	// KT defaults to the thermostat temperature.
	KT      *float64 `yaml:"kT,omitempty"`
	Density float64  `yaml:"density"`
	Flow    Vec3     `yaml:"flow"`
	// Shear, if non-zero, adds Shear * (z - box_z/2) to the x flow.
	Shear float64 `yaml:"shear,omitempty"`
}

var (
	Layouts    = []string{"lattice", "random", "center"}
	ForceTypes = []string{"external", "constant_field", "harmonic_well", "poiseuille", "lennard_jones"}
)

func DefaultConfig() *Config {
	run := sim.DefaultConfig()
	run.Dt = DefaultDt
	run.Duration = DefaultDuration
	run.Skin = DefaultSkin
	run.SampleEvery = DefaultSampleEvery
	run.Track = DefaultTrack

	return &Config{
		Name: "free",
		Seed: 1,
		Box:  Vec3{DefaultBox, DefaultBox, DefaultBox},
		Particles: ParticlesConfig{
			Count:   DefaultCount,
			Layout:  "lattice",
			Mass:    1,
			Inertia: Vec3{1, 1, 1},
		},
		Thermostat: ThermostatConfig{
			KT:            DefaultKT,
			Gamma:         friction.Isotropic(DefaultGamma),
			GammaRotation: friction.Isotropic(DefaultGamma),
		},
		Run:     run,
		Metrics: []string{"msd", "diffusion"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Forces = append([]ForceConfig(nil), c.Forces...)
	out.Metrics = append([]string(nil), c.Metrics...)
	if c.Lattice != nil {
		l := *c.Lattice
		out.Lattice = &l
	}
	return &out
}

// Validate reports the first setup error in c.
func (c *Config) Validate() error {
	for j, l := range c.Box {
		if !(l > 0) || math.IsInf(l, 0) {
			return fmt.Errorf("%w: box length %g on axis %d", ErrInvalid, l, j)
		}
	}
	if !(c.Run.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Run.Dt)
	}
	if !(c.Run.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Run.Duration)
	}
	if c.Particles.Count < 1 {
		return fmt.Errorf("%w: particle count must be positive, got %d", ErrInvalid, c.Particles.Count)
	}
	if !contains(Layouts, c.Particles.Layout) {
		return fmt.Errorf("%w: unknown layout %q", ErrInvalid, c.Particles.Layout)
	}
	if _, err := ParseAxes(c.Particles.Rotation); err != nil {
		return err
	}
	if _, err := ParseAxes(c.Particles.Fixed); err != nil {
		return err
	}
	if c.Thermostat.KT < 0 {
		return fmt.Errorf("%w: kT must be non-negative, got %g", ErrInvalid, c.Thermostat.KT)
	}
	for i, f := range c.Forces {
		if !contains(ForceTypes, f.Type) {
			return fmt.Errorf("%w: force %d has unknown type %q", ErrInvalid, i, f.Type)
		}
	}
	if l := c.Lattice; l != nil {
		if !(l.Agrid > 0) {
			return fmt.Errorf("%w: lattice agrid must be positive, got %g", ErrInvalid, l.Agrid)
		}
		if !(l.Density > 0) {
			return fmt.Errorf("%w: lattice density must be positive, got %g", ErrInvalid, l.Density)
		}
		if l.Gamma < 0 {
			return fmt.Errorf("%w: lattice gamma must be non-negative, got %g", ErrInvalid, l.Gamma)
		}
	}
	return nil
}

// Tunable lists the parameters Set accepts.
var Tunable = []string{"count", "kT", "gamma", "dt", "duration", "skin", "lattice_gamma", "lattice_kT"}

// Set assigns one scalar parameter by name. gamma replaces the translational
// friction with an isotropic one.
func (c *Config) Set(param string, v float64) error {
	switch param {
	case "count":
		c.Particles.Count = int(math.Round(v))
	case "kT":
		c.Thermostat.KT = v
	case "gamma":
		c.Thermostat.Gamma = friction.Isotropic(v)
	case "dt":
		c.Run.Dt = v
	case "duration":
		c.Run.Duration = v
	case "skin":
		c.Run.Skin = v
	case "lattice_gamma", "lattice_kT":
		if c.Lattice == nil {
			return fmt.Errorf("%w: %s needs a lattice section", ErrInvalid, param)
		}
		if param == "lattice_gamma" {
			c.Lattice.Gamma = v
		} else {
			c.Lattice.KT = &v
		}
	default:
		return fmt.Errorf("%w: unknown parameter %q (tunable: %v)", ErrInvalid, param, Tunable)
	}
	return nil
}

// ParseAxes reads an axis set such as "xz". "", "none" and "all" are also
// accepted.
func ParseAxes(s string) (particle.AxisMask, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return particle.NoAxes, nil
	case "all":
		return particle.AllAxes, nil
	}

	var m particle.AxisMask
	for _, r := range strings.ToLower(s) {
		switch r {
		case 'x':
			m |= particle.AxisX
		case 'y':
			m |= particle.AxisY
		case 'z':
			m |= particle.AxisZ
		default:
			return 0, fmt.Errorf("%w: bad axis %q in %q", ErrInvalid, r, s)
		}
	}
	return m, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
