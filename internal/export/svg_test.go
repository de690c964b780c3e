package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/sim"
	"github.com/san-kum/bdsim/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	var buf bytes.Buffer
	require.NoError(t, CanvasToSVG(&buf, c, 2, "#00ff00"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Contains(t, out, `cx="1.0" cy="1.0"`)
	assert.Contains(t, out, `cx="7.0" cy="7.0"`)
	assert.Contains(t, out, `fill="#00ff00"`)
}

func TestCanvasToSVGNil(t *testing.T) {
	assert.Error(t, CanvasToSVG(&bytes.Buffer{}, nil, 1, "#fff"))
}

func testFrames() []sim.Frame {
	return []sim.Frame{
		{Time: 0, Particles: []sim.Snapshot{{ID: 0, Pos: r3.Vec{X: 1, Y: 1}}, {ID: 1, Pos: r3.Vec{X: 2, Y: 2}}}},
		{Time: 1, Particles: []sim.Snapshot{{ID: 0, Pos: r3.Vec{X: 2, Y: 1}}, {ID: 1, Pos: r3.Vec{X: 3, Y: 3}}}},
		{Time: 2, Particles: []sim.Snapshot{{ID: 0, Pos: r3.Vec{X: 3, Y: 2}}, {ID: 1, Pos: r3.Vec{X: 3, Y: 4}}}},
	}
}

func TestTrajectoriesToSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TrajectoriesToSVG(&buf, testFrames(), 0, 1, 200, 100))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "<path"))
	assert.Equal(t, 4, strings.Count(out, " L"))
	assert.Contains(t, out, `width="200" height="100"`)
}

func TestTrajectoriesToSVGNeedsFrames(t *testing.T) {
	assert.Error(t, TrajectoriesToSVG(&bytes.Buffer{}, testFrames()[:1], 0, 1, 10, 10))
}

func TestFrameToSVG(t *testing.T) {
	var buf bytes.Buffer
	fr := testFrames()[0]
	require.NoError(t, FrameToSVG(&buf, fr, r3.Vec{X: 4, Y: 4, Z: 4}, viz.NewCamera(), 30, 15))
	assert.Contains(t, buf.String(), "<circle")
}
