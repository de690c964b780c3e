package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/bdsim/internal/analysis"
	"github.com/san-kum/bdsim/internal/particle"
)

// origin remembers the positions of the first observation.
type origin struct {
	pos []r3.Vec
}

func (o *origin) displacements(ps []particle.Particle) []r3.Vec {
	if o.pos == nil || len(o.pos) != len(ps) {
		o.pos = make([]r3.Vec, len(ps))
		for i := range ps {
			o.pos[i] = ps[i].Pos
		}
	}
	d := make([]r3.Vec, len(ps))
	for i := range ps {
		d[i] = r3.Sub(ps[i].Pos, o.pos[i])
	}
	return d
}

func (o *origin) reset() { o.pos = nil }

// MSD is the mean squared displacement from the first observed positions.
type MSD struct {
	name  string
	orig  origin
	value float64
}

func NewMSD() *MSD { return &MSD{name: "msd"} }

func (m *MSD) Name() string { return m.name }

func (m *MSD) Observe(ps []particle.Particle, t float64) {
	m.value = MeanSquaredDisplacement(m.orig.displacements(ps))
}

func (m *MSD) Value() float64 { return m.value }

func (m *MSD) Reset() {
	m.orig.reset()
	m.value = 0
}

// MeanSquaredDisplacement returns the mean of |d|² over d.
func MeanSquaredDisplacement(d []r3.Vec) float64 {
	if len(d) == 0 {
		return 0
	}
	var sum float64
	for _, v := range d {
		sum += r3.Norm2(v)
	}
	return sum / float64(len(d))
}

// AxisVariance is the variance of the displacement along one axis.
type AxisVariance struct {
	name  string
	axis  int
	orig  origin
	value float64
}

func NewAxisVariance(axis int) *AxisVariance {
	return &AxisVariance{name: "var_" + string("xyz"[axis]), axis: axis}
}

func (a *AxisVariance) Name() string { return a.name }

func (a *AxisVariance) Observe(ps []particle.Particle, t float64) {
	d := a.orig.displacements(ps)
	if len(d) < 2 {
		a.value = 0
		return
	}
	xs := make([]float64, len(d))
	for i, v := range d {
		xs[i] = component(v, a.axis)
	}
	a.value = stat.Variance(xs, nil)
}

func (a *AxisVariance) Value() float64 { return a.value }

func (a *AxisVariance) Reset() {
	a.orig.reset()
	a.value = 0
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Diffusion estimates the translational diffusion coefficient from the slope
// of the MSD over every observation.
type Diffusion struct {
	name  string
	orig  origin
	t0    float64
	times []float64
	msd   []float64
}

func NewDiffusion() *Diffusion { return &Diffusion{name: "diffusion"} }

func (d *Diffusion) Name() string { return d.name }

func (d *Diffusion) Observe(ps []particle.Particle, t float64) {
	if len(d.times) == 0 {
		d.t0 = t
	}
	d.times = append(d.times, t-d.t0)
	d.msd = append(d.msd, MeanSquaredDisplacement(d.orig.displacements(ps)))
}

func (d *Diffusion) Value() float64 {
	fit, err := analysis.FitDiffusion(d.times, d.msd, 3)
	if err != nil {
		return 0
	}
	return fit.D
}

func (d *Diffusion) Reset() {
	d.orig.reset()
	d.times = d.times[:0]
	d.msd = d.msd[:0]
}
