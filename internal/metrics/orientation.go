package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/particle"
)

// Orientation is the director autocorrelation <u(t)·u(0)> over rotating
// particles.
type Orientation struct {
	name  string
	u0    []r3.Vec
	value float64
}

func NewOrientation() *Orientation { return &Orientation{name: "orientation"} }

func (o *Orientation) Name() string { return o.name }

func (o *Orientation) Observe(ps []particle.Particle, t float64) {
	if o.u0 == nil || len(o.u0) != len(ps) {
		o.u0 = make([]r3.Vec, len(ps))
		for i := range ps {
			o.u0[i] = ps[i].Director()
		}
	}

	var sum float64
	n := 0
	for i := range ps {
		if !ps[i].CanRotate() {
			continue
		}
		sum += r3.Dot(ps[i].Director(), o.u0[i])
		n++
	}
	if n == 0 {
		o.value = 1
		return
	}
	o.value = sum / float64(n)
}

func (o *Orientation) Value() float64 { return o.value }

func (o *Orientation) Reset() {
	o.u0 = nil
	o.value = 0
}
