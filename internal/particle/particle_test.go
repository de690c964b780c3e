package particle

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bdsim/internal/friction"
)

func assertVecInDelta(t *testing.T, want, got r3.Vec, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
	assert.InDelta(t, want.Z, got.Z, delta, "z")
}

func TestAxisMask(t *testing.T) {
	m := AxisX | AxisZ
	assert.True(t, m.Has(0))
	assert.False(t, m.Has(1))
	assert.True(t, m.Has(2))
	assert.Equal(t, r3.Vec{X: 1, Z: 3}, m.Apply(r3.Vec{X: 1, Y: 2, Z: 3}))
	assert.True(t, NoAxes.Empty())
	assert.Equal(t, AxisY, Axis(1))
}

func TestOptional(t *testing.T) {
	unset := None[float64]()
	assert.False(t, unset.IsSet())
	assert.Equal(t, 2.0, unset.Or(2))

	set := Some(0.0)
	v, ok := set.Get()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v, "zero is a valid override")
	assert.Equal(t, 0.0, set.Or(2))
}

func TestOptionalYAML(t *testing.T) {
	var p Particle
	require.NoError(t, yaml.Unmarshal([]byte("temperature: 0\n"), &p))
	v, ok := p.Temperature.Get()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	p = Particle{}
	require.NoError(t, yaml.Unmarshal([]byte("temperature: null\n"), &p))
	assert.False(t, p.Temperature.IsSet())

	o := Some(3.0)
	require.NoError(t, o.UnmarshalYAML(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "~"}))
	assert.False(t, o.IsSet())
}

func TestFrameRoundTrip(t *testing.T) {
	q := Normalize(quat.Number{Real: 0.3, Imag: -0.2, Jmag: 0.7, Kmag: 0.1})
	v := r3.Vec{X: 1, Y: -2, Z: 0.5}

	assertVecInDelta(t, v, LabToBody(q, BodyToLab(q, v)), 1e-12)
	assert.InDelta(t, r3.Norm(v), r3.Norm(BodyToLab(q, v)), 1e-12)
}

func TestBodyToLabQuarterTurn(t *testing.T) {
	q := AxisAngle(r3.Vec{Z: 1}, math.Pi/2)

	assertVecInDelta(t, r3.Vec{Y: 1}, BodyToLab(q, r3.Vec{X: 1}), 1e-12)
	assertVecInDelta(t, r3.Vec{X: -1}, LabToBody(q, r3.Vec{Y: -1}), 1e-12)
}

func TestRotateBodyComposes(t *testing.T) {
	q := Identity()
	for i := 0; i < 4; i++ {
		q = RotateBody(q, r3.Vec{Z: 1}, math.Pi/8)
	}
	want := AxisAngle(r3.Vec{Z: 1}, math.Pi/2)

	assert.InDelta(t, want.Real, q.Real, 1e-12)
	assert.InDelta(t, want.Kmag, q.Kmag, 1e-12)
	assert.InDelta(t, 1.0, quat.Abs(q), 1e-12)
}

func TestRotateBodyUsesBodyAxis(t *testing.T) {
	// Body x points along lab y after a quarter turn about z; a further turn
	// about body x therefore spins about lab y.
	q := AxisAngle(r3.Vec{Z: 1}, math.Pi/2)
	q = RotateBody(q, r3.Vec{X: 1}, math.Pi/2)

	assertVecInDelta(t, r3.Vec{Y: 1}, BodyToLab(q, r3.Vec{X: 1}), 1e-12)
	assertVecInDelta(t, r3.Vec{X: 1}, BodyToLab(q, r3.Vec{Z: 1}), 1e-12)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Particle)
		err    error
	}{
		{"valid", func(p *Particle) {}, nil},
		{"zero mass", func(p *Particle) { p.Mass = 0 }, ErrInvalidMass},
		{"negative mass", func(p *Particle) { p.Mass = -1 }, ErrInvalidMass},
		{"zero inertia on rotating axis", func(p *Particle) {
			p.Rotation = AxisZ
			p.Inertia.Z = 0
		}, ErrInvalidInertia},
		{"zero inertia on locked axis", func(p *Particle) {
			p.Rotation = AxisZ
			p.Inertia.X = 0
		}, nil},
		{"zero quaternion", func(p *Particle) { p.Quat = quat.Number{} }, ErrInvalidOrientation},
		{"negative gamma override", func(p *Particle) {
			p.Gamma = Some(friction.Isotropic(-1))
		}, ErrInvalidOverride},
		{"negative temperature override", func(p *Particle) {
			p.Temperature = Some(-0.5)
		}, ErrInvalidOverride},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(1, r3.Vec{})
			tt.mutate(&p)
			err := Validate(&p)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.err), "expected %v, got %v", tt.err, err)
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	p := New(1, r3.Vec{})
	p.Quat = quat.Number{Real: 2}
	require.NoError(t, Validate(&p))
	assert.Equal(t, Identity(), p.Quat)
}

func TestValidateAllRejectsDuplicates(t *testing.T) {
	ps := []Particle{New(1, r3.Vec{}), New(1, r3.Vec{X: 1})}
	assert.Error(t, ValidateAll(ps))
}
