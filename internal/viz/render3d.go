package viz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera projects box coordinates onto the canvas. Points are rotated about
// the box centre, then seen in perspective from Distance along z.
type Camera struct {
	RotX, RotY, RotZ float64
	Zoom             float64
	Distance         float64
	Near             float64
}

func NewCamera() *Camera {
	return &Camera{RotX: -0.5, RotY: 0.6, Zoom: 1.0, Distance: 4, Near: 0.1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project maps p, given in units of the box half-diagonal around the box
// centre, to sub-pixel coordinates of a sw x sh canvas. It returns the depth
// and whether the point lands on the canvas.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, float64, bool) {
	rot := r3.Scale(c.Zoom, c.rotate(p))
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	pScale := float64(min(sw, sh)) / 2.5
	x := int(rot.X*scale*pScale) + sw/2
	y := int(-rot.Y*scale*pScale) + sh/2
	return x, y, rot.Z, x >= 0 && x < sw && y >= 0 && y < sh
}

type segment struct {
	a, b r3.Vec
}

type projected struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Scene is the periodic box outline plus the particle positions, in box
// coordinates.
type Scene struct {
	Box    r3.Vec
	Points []r3.Vec
	// Fold wraps points into the primary box before drawing.
	Fold bool
}

func boxEdges(box r3.Vec) []segment {
	v := make([]r3.Vec, 8)
	for i := range v {
		v[i] = r3.Vec{
			X: float64(i&1) * box.X,
			Y: float64(i>>1&1) * box.Y,
			Z: float64(i>>2&1) * box.Z,
		}
	}
	idx := [][2]int{{0, 1}, {2, 3}, {4, 5}, {6, 7}, {0, 2}, {1, 3}, {4, 6}, {5, 7}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}
	edges := make([]segment, len(idx))
	for i, e := range idx {
		edges[i] = segment{v[e[0]], v[e[1]]}
	}
	return edges
}

func foldCoord(x, l float64) float64 {
	x = math.Mod(x, l)
	if x < 0 {
		x += l
	}
	return x
}

// Render draws the scene far to near.
func Render(c *Canvas, s Scene, cam *Camera) int {
	if c == nil || cam == nil {
		return 0
	}
	centre := r3.Scale(0.5, s.Box)
	norm := r3.Norm(centre)
	if norm == 0 {
		return 0
	}
	toView := func(p r3.Vec) r3.Vec { return r3.Scale(1/norm, r3.Sub(p, centre)) }

	cw, ch := c.Width*2, c.Height*4
	var items []projected
	for _, e := range boxEdges(s.Box) {
		x1, y1, d1, v1 := cam.Project(toView(e.a), cw, ch)
		x2, y2, d2, v2 := cam.Project(toView(e.b), cw, ch)
		if v1 || v2 {
			items = append(items, projected{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}

	drawn := 0
	for _, p := range s.Points {
		if s.Fold {
			p = r3.Vec{X: foldCoord(p.X, s.Box.X), Y: foldCoord(p.Y, s.Box.Y), Z: foldCoord(p.Z, s.Box.Z)}
		}
		x, y, d, ok := cam.Project(toView(p), cw, ch)
		if ok {
			items = append(items, projected{x, y, x, y, d})
			drawn++
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].depth < items[j].depth })
	for _, it := range items {
		if it.x1 == it.x2 && it.y1 == it.y2 {
			c.Set(it.x1, it.y1)
		} else {
			c.DrawLine(it.x1, it.y1, it.x2, it.y2)
		}
	}
	return drawn
}
