package lattice

import "gonum.org/v1/gonum/spatial/r3"

// VelocityField provides fluid velocities at lattice nodes.
type VelocityField interface {
	Geometry() Geometry
	NodeVelocity(index int) r3.Vec
}

// ForceSink receives force density at lattice nodes.
type ForceSink interface {
	Geometry() Geometry
	AddNodeForceDensity(index int, fd r3.Vec)
}

// InterpolatedVelocity returns the trilinear interpolation of the fluid
// velocity at pos.
func InterpolatedVelocity(field VelocityField, pos r3.Vec) r3.Vec {
	s := field.Geometry().Stencil(pos)

	var u r3.Vec
	for c := range s.Index {
		u = r3.Add(u, r3.Scale(s.Weight[c], field.NodeVelocity(s.Index[c])))
	}
	return u
}

// AddForceDensity spreads fd over the eight nodes surrounding pos. The sink
// accumulates; nothing is overwritten.
func AddForceDensity(sink ForceSink, pos, fd r3.Vec) {
	s := sink.Geometry().Stencil(pos)
	for c := range s.Index {
		sink.AddNodeForceDensity(s.Index[c], r3.Scale(s.Weight[c], fd))
	}
}
