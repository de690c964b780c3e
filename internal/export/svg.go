// Package export renders stored runs as SVG images.
package export

import (
	"bufio"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/sim"
	"github.com/san-kum/bdsim/internal/viz"
)

const background = "#0a0a0a"

// CanvasToSVG writes every set sub-pixel of a braille canvas as a dot.
func CanvasToSVG(w io.Writer, canvas *viz.Canvas, scale float64, fill string) error {
	if canvas == nil {
		return fmt.Errorf("export: nil canvas")
	}
	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, fill)

	r := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(bw, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}

	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

// FrameToSVG projects one recorded frame and its box through cam.
func FrameToSVG(w io.Writer, frame sim.Frame, box r3.Vec, cam *viz.Camera, cols, rows int) error {
	canvas := viz.NewCanvas(cols, rows)
	pts := make([]r3.Vec, len(frame.Particles))
	for i, p := range frame.Particles {
		pts[i] = p.Pos
	}
	viz.Render(canvas, viz.Scene{Box: box, Points: pts, Fold: true}, cam)
	return CanvasToSVG(w, canvas, 4, string(viz.CurrentTheme.Primary))
}

// TrajectoriesToSVG draws one path per tracked particle, projected on the
// plane of axes a and b (0, 1 or 2). Particles are matched by their index
// within a frame.
func TrajectoriesToSVG(w io.Writer, frames []sim.Frame, a, b, width, height int) error {
	if len(frames) < 2 || len(frames[0].Particles) == 0 {
		return fmt.Errorf("export: need at least two frames with particles")
	}
	np := len(frames[0].Particles)
	for _, fr := range frames[1:] {
		np = min(np, len(fr.Particles))
	}

	coord := func(v r3.Vec, axis int) float64 {
		switch axis {
		case 0:
			return v.X
		case 1:
			return v.Y
		default:
			return v.Z
		}
	}

	p0 := frames[0].Particles[0].Pos
	minX, maxX := coord(p0, a), coord(p0, a)
	minY, maxY := coord(p0, b), coord(p0, b)
	for _, fr := range frames {
		for _, p := range fr.Particles[:np] {
			x, y := coord(p.Pos, a), coord(p.Pos, b)
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	minY -= rangeY * 0.05
	rangeX *= 1.1
	rangeY *= 1.1

	palette := []string{
		string(viz.CurrentTheme.Primary),
		string(viz.CurrentTheme.Accent),
		string(viz.CurrentTheme.Success),
		string(viz.CurrentTheme.Warning),
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	for j := 0; j < np; j++ {
		fmt.Fprintf(bw, `<path fill="none" stroke="%s" stroke-width="1" d="`, palette[j%len(palette)])
		for i, fr := range frames {
			x := (coord(fr.Particles[j].Pos, a) - minX) / rangeX * float64(width)
			y := float64(height) - (coord(fr.Particles[j].Pos, b)-minY)/rangeY*float64(height)
			if i == 0 {
				fmt.Fprintf(bw, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(bw, " L%.1f,%.1f", x, y)
			}
		}
		bw.WriteString("\"/>\n")
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}
