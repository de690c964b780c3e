package lattice

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Grid is a prescribed-flow fluid: node velocities are set by the caller and
// updated only by the momentum of the force density applied to them.
type Grid struct {
	geom     Geometry
	velocity []r3.Vec
	force    []r3.Vec
}

func NewGrid(g Geometry) *Grid {
	return &Grid{
		geom:     g,
		velocity: make([]r3.Vec, g.Nodes()),
		force:    make([]r3.Vec, g.Nodes()),
	}
}

func (gr *Grid) Geometry() Geometry { return gr.geom }

func (gr *Grid) NodeVelocity(index int) r3.Vec { return gr.velocity[index] }

func (gr *Grid) SetVelocity(index int, u r3.Vec) { gr.velocity[index] = u }

// SetUniformVelocity sets every node to u.
func (gr *Grid) SetUniformVelocity(u r3.Vec) {
	for i := range gr.velocity {
		gr.velocity[i] = u
	}
}

// SetField sets every node velocity to fn evaluated at the node centre.
func (gr *Grid) SetField(fn func(pos r3.Vec) r3.Vec) {
	for i := range gr.velocity {
		x, y, z := gr.geom.Coords(i)
		gr.velocity[i] = fn(gr.geom.NodePosition(x, y, z))
	}
}

// Velocities returns a copy of the node velocities.
func (gr *Grid) Velocities() []r3.Vec {
	out := make([]r3.Vec, len(gr.velocity))
	copy(out, gr.velocity)
	return out
}

// LoadVelocities replaces every node velocity.
func (gr *Grid) LoadVelocities(u []r3.Vec) error {
	if len(u) != len(gr.velocity) {
		return fmt.Errorf("%w: %d velocities for %d nodes", ErrInvalidGeometry, len(u), len(gr.velocity))
	}
	copy(gr.velocity, u)
	return nil
}

func (gr *Grid) AddNodeForceDensity(index int, fd r3.Vec) {
	gr.force[index] = r3.Add(gr.force[index], fd)
}

func (gr *Grid) NodeForceDensity(index int) r3.Vec { return gr.force[index] }

// TotalForceDensity sums the pending force density over all nodes.
func (gr *Grid) TotalForceDensity() r3.Vec {
	var t r3.Vec
	for _, f := range gr.force {
		t = r3.Add(t, f)
	}
	return t
}

// MeanVelocity returns the node-averaged fluid velocity.
func (gr *Grid) MeanVelocity() r3.Vec {
	var t r3.Vec
	for _, u := range gr.velocity {
		t = r3.Add(t, u)
	}
	return r3.Scale(1/float64(len(gr.velocity)), t)
}

// Apply accelerates every node by its pending force density over dt,
// u += f dt / density, and clears the force density.
func (gr *Grid) Apply(dt, density float64) error {
	if !(density > 0) {
		return fmt.Errorf("%w: fluid density %g", ErrInvalidGeometry, density)
	}
	k := dt / density
	for i, f := range gr.force {
		gr.velocity[i] = r3.Add(gr.velocity[i], r3.Scale(k, f))
	}
	gr.ResetForces()
	return nil
}

func (gr *Grid) ResetForces() {
	for i := range gr.force {
		gr.force[i] = r3.Vec{}
	}
}

// Merge adds the contents of acc to the grid and clears acc.
func (gr *Grid) Merge(acc *Accumulator) {
	for _, i := range acc.touched {
		gr.force[i] = r3.Add(gr.force[i], acc.force[i])
		acc.force[i] = r3.Vec{}
		acc.mark[i] = false
	}
	acc.touched = acc.touched[:0]
}

// Accumulator is a private force density buffer for one worker. Only touched
// nodes are visited when it is merged.
type Accumulator struct {
	geom    Geometry
	force   []r3.Vec
	mark    []bool
	touched []int
}

func NewAccumulator(g Geometry) *Accumulator {
	return &Accumulator{
		geom:  g,
		force: make([]r3.Vec, g.Nodes()),
		mark:  make([]bool, g.Nodes()),
	}
}

func (a *Accumulator) Geometry() Geometry { return a.geom }

func (a *Accumulator) AddNodeForceDensity(index int, fd r3.Vec) {
	if !a.mark[index] {
		a.mark[index] = true
		a.touched = append(a.touched, index)
	}
	a.force[index] = r3.Add(a.force[index], fd)
}

// Touched returns the number of distinct nodes written since the last merge.
func (a *Accumulator) Touched() int { return len(a.touched) }

// AccumulatorPool recycles accumulators of one geometry.
type AccumulatorPool struct {
	pool  sync.Pool
	nodes int
}

func NewAccumulatorPool(g Geometry) *AccumulatorPool {
	return &AccumulatorPool{
		nodes: g.Nodes(),
		pool: sync.Pool{
			New: func() interface{} {
				return NewAccumulator(g)
			},
		},
	}
}

func (p *AccumulatorPool) Get() *Accumulator {
	return p.pool.Get().(*Accumulator)
}

// Put returns acc to the pool. Accumulators must be merged (empty) first;
// anything else is dropped.
func (p *AccumulatorPool) Put(acc *Accumulator) {
	if len(acc.force) == p.nodes && len(acc.touched) == 0 {
		p.pool.Put(acc)
	}
}
