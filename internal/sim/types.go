package sim

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/particle"
)

type Metric interface {
	Name() string
	Observe(ps []particle.Particle, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(ps []particle.Particle, t float64)
}

type Config struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Skin     float64 `yaml:"skin"`

	// SampleEvery is the number of steps between recorded frames and metric
	// observations. Zero samples every step.
	SampleEvery int `yaml:"sample_every"`
	// Track limits each frame to the first Track particles; zero keeps all.
	Track int `yaml:"track"`

	Workers       int     `yaml:"workers"`
	FluidDensity  float64 `yaml:"fluid_density"`
	ValidateState bool    `yaml:"validate_state"`
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10,
		Skin:          0.4,
		SampleEvery:   10,
		Track:         64,
		FluidDensity:  1,
		ValidateState: true,
	}
}

// Snapshot is the recorded kinematic state of one particle.
type Snapshot struct {
	ID   int
	Pos  r3.Vec
	Vel  r3.Vec
	Quat quat.Number
}

func (s Snapshot) IsValid() bool {
	for _, v := range []float64{s.Pos.X, s.Pos.Y, s.Pos.Z, s.Vel.X, s.Vel.Y, s.Vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Frame struct {
	Time      float64
	Step      int64
	Particles []Snapshot
}

func snapshot(ps []particle.Particle, track int) []Snapshot {
	n := len(ps)
	if track > 0 && track < n {
		n = track
	}
	out := make([]Snapshot, n)
	for i := 0; i < n; i++ {
		out[i] = Snapshot{ID: ps[i].ID, Pos: ps[i].Pos, Vel: ps[i].Vel, Quat: ps[i].Quat}
	}
	return out
}

type Result struct {
	Frames  []Frame
	Times   []float64
	Series  map[string][]float64
	Metrics map[string]float64

	StepsTaken int64
	Resorts    int
	SimTime    float64
}

func (r *Result) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("steps", r.StepsTaken),
		slog.Float64("sim_time", r.SimTime),
		slog.Int("resorts", r.Resorts),
		slog.Int("frames", len(r.Frames)),
	}
	for name, v := range r.Metrics {
		attrs = append(attrs, slog.Float64(name, v))
	}
	return slog.GroupValue(attrs...)
}
