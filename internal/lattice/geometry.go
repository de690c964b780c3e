// Package lattice maps particle positions onto a cubic fluid lattice and
// couples particles to the fluid through trilinear interpolation.
//
// Nodes are cell centred: node (i, j, k) sits at ((i, j, k) + 1/2) * agrid.
// Node arrays are flat, indexed x + Nx*(y + Ny*z).
package lattice

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var ErrInvalidGeometry = errors.New("lattice: invalid geometry")

// divisibilityTol is the relative slack allowed when checking that the box
// is an integer number of cells.
const divisibilityTol = 1e-9

// Geometry describes a periodic box divided into cubic cells of side Agrid.
type Geometry struct {
	Box   r3.Vec
	Agrid float64
	Shape [3]int
}

// NewGeometry validates box and agrid and derives the lattice shape. A box
// that is not a multiple of agrid is accepted; the boundary cell between the
// last node and the image of node 0 is wider by the remainder and Divisible
// reports false.
func NewGeometry(box r3.Vec, agrid float64) (Geometry, error) {
	if !(agrid > 0) || math.IsInf(agrid, 0) {
		return Geometry{}, fmt.Errorf("%w: agrid %g", ErrInvalidGeometry, agrid)
	}

	g := Geometry{Box: box, Agrid: agrid}
	l := [3]float64{box.X, box.Y, box.Z}
	for j := 0; j < 3; j++ {
		if !(l[j] > 0) || math.IsInf(l[j], 0) {
			return Geometry{}, fmt.Errorf("%w: box length %g on axis %d", ErrInvalidGeometry, l[j], j)
		}
		n := int(math.Floor(l[j]/agrid + divisibilityTol))
		if n < 1 {
			return Geometry{}, fmt.Errorf("%w: box length %g smaller than agrid %g", ErrInvalidGeometry, l[j], agrid)
		}
		g.Shape[j] = n
	}
	return g, nil
}

// Divisible reports whether every box length is an integer number of cells.
func (g Geometry) Divisible() bool {
	l := [3]float64{g.Box.X, g.Box.Y, g.Box.Z}
	for j := 0; j < 3; j++ {
		r := l[j]/g.Agrid - float64(g.Shape[j])
		if math.Abs(r) > divisibilityTol*float64(g.Shape[j]) {
			return false
		}
	}
	return true
}

// Nodes returns the total number of lattice nodes.
func (g Geometry) Nodes() int { return g.Shape[0] * g.Shape[1] * g.Shape[2] }

// CellVolume returns agrid³.
func (g Geometry) CellVolume() float64 { return g.Agrid * g.Agrid * g.Agrid }

// Index returns the flat index of node (x, y, z). Coordinates must already be
// inside the lattice.
func (g Geometry) Index(x, y, z int) int {
	return x + g.Shape[0]*(y+g.Shape[1]*z)
}

// Coords is the inverse of Index.
func (g Geometry) Coords(idx int) (x, y, z int) {
	area := g.Shape[0] * g.Shape[1]
	x = idx % g.Shape[0]
	y = (idx % area) / g.Shape[0]
	z = idx / area
	return x, y, z
}

// NodePosition returns the lab position of node (x, y, z).
func (g Geometry) NodePosition(x, y, z int) r3.Vec {
	return r3.Vec{
		X: (float64(x) + 0.5) * g.Agrid,
		Y: (float64(y) + 0.5) * g.Agrid,
		Z: (float64(z) + 0.5) * g.Agrid,
	}
}

// Fold maps pos into the primary box [0, Box).
func (g Geometry) Fold(pos r3.Vec) r3.Vec {
	return r3.Vec{X: fold(pos.X, g.Box.X), Y: fold(pos.Y, g.Box.Y), Z: fold(pos.Z, g.Box.Z)}
}

func fold(x, l float64) float64 {
	x -= l * math.Floor(x/l)
	if x >= l {
		x -= l
	}
	if x < 0 {
		x = 0
	}
	return x
}

// wrap folds a node coordinate into [0, n).
func wrap(i, n int) int {
	m := i % n
	if m < 0 {
		m += n
	}
	return m
}

// Map returns the lower corner node of the cell surrounding pos and the
// linear weights along each axis: delta[j] = 1 - frac_j for the lower node,
// delta[3+j] = frac_j for the upper one. Positions in the boundary cell,
// before the first node centre or past the last one, get lower corner
// Shape-1 and upper corner 0, with frac measured over that cell's width.
func (g Geometry) Map(pos r3.Vec) (ind [3]int, delta [6]float64) {
	p := g.Fold(pos)
	c := [3]float64{p.X, p.Y, p.Z}
	l := [3]float64{g.Box.X, g.Box.Y, g.Box.Z}
	for j := 0; j < 3; j++ {
		n := g.Shape[j]
		lpos := c[j]/g.Agrid - 0.5
		lo := math.Floor(lpos)
		frac := lpos - lo
		if lo < 0 || lo >= float64(n-1) {
			x0 := (float64(n) - 0.5) * g.Agrid
			if lo < 0 {
				x0 -= l[j]
			}
			width := l[j] - float64(n-1)*g.Agrid
			frac = math.Min(math.Max((c[j]-x0)/width, 0), 1)
			lo = float64(n - 1)
		}
		ind[j] = int(lo)
		delta[j] = 1 - frac
		delta[3+j] = frac
	}
	return ind, delta
}

// Stencil holds the eight nodes of the cell surrounding a position, ordered
// with x fastest: corner (x, y, z) is entry (z*2+y)*2+x.
type Stencil struct {
	Nodes  [8][3]int
	Index  [8]int
	Weight [8]float64
}

// Stencil computes the interpolation stencil of pos. Corner nodes outside
// the lattice wrap periodically.
func (g Geometry) Stencil(pos r3.Vec) Stencil {
	ind, delta := g.Map(pos)

	var s Stencil
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				c := (z*2+y)*2 + x
				n := [3]int{
					wrap(ind[0]+x, g.Shape[0]),
					wrap(ind[1]+y, g.Shape[1]),
					wrap(ind[2]+z, g.Shape[2]),
				}
				s.Nodes[c] = n
				s.Index[c] = g.Index(n[0], n[1], n[2])
				s.Weight[c] = delta[3*x+0] * delta[3*y+1] * delta[3*z+2]
			}
		}
	}
	return s
}
