package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func TestVec3Deterministic(t *testing.T) {
	g := Generator{Seed: 42}
	a := g.Vec3(7, 3, TranslationWalk)
	b := g.Vec3(7, 3, TranslationWalk)
	assert.Equal(t, a, b)

	other := Generator{Seed: 42}
	assert.Equal(t, a, other.Vec3(7, 3, TranslationWalk))
}

func TestPhiloxKnownAnswer(t *testing.T) {
	// Random123 kat_vectors, philox4x64-10 with zero counter and key.
	want := block{0x16554d9eca36314c, 0xdb20fe9d672d0fdc, 0xd7e772cee186176b, 0x7e68b68aec7ba23b}
	assert.Equal(t, want, philox(block{}, key{}))
}

func TestVec3DependsOnEveryKey(t *testing.T) {
	g := Generator{Seed: 42}
	base := g.Vec3(7, 3, TranslationWalk)

	assert.NotEqual(t, base, g.Vec3(8, 3, TranslationWalk), "counter")
	assert.NotEqual(t, base, g.Vec3(7, 4, TranslationWalk), "id")
	assert.NotEqual(t, base, g.Vec3(7, 3, TranslationVelocity), "salt")
	assert.NotEqual(t, base, Generator{Seed: 43}.Vec3(7, 3, TranslationWalk), "seed")
}

func TestUniformRange(t *testing.T) {
	assert.Equal(t, 0x1.0p-53, uniform(0))
	assert.Equal(t, 1.0, uniform(math.MaxUint64))

	g := Generator{Seed: 1}
	for c := uint64(0); c < 1000; c++ {
		u := g.Uniform3(c, 0, LatticeCoupling)
		for _, x := range []float64{u.X, u.Y, u.Z} {
			if x <= 0 || x > 1 {
				t.Fatalf("uniform out of range: %v", x)
			}
		}
	}
}

func sample(g Generator, n int, id int, salt Salt) (xs, ys, zs []float64) {
	xs = make([]float64, n)
	ys = make([]float64, n)
	zs = make([]float64, n)
	for i := 0; i < n; i++ {
		v := g.Vec3(uint64(i), id, salt)
		xs[i], ys[i], zs[i] = v.X, v.Y, v.Z
	}
	return xs, ys, zs
}

func TestVec3Moments(t *testing.T) {
	const n = 100000
	xs, ys, zs := sample(Generator{Seed: 2024}, n, 11, TranslationWalk)

	for i, s := range [][]float64{xs, ys, zs} {
		mean, variance := stat.MeanVariance(s, nil)
		assert.InDelta(t, 0, mean, 0.02, "component %d mean", i)
		assert.InDelta(t, 1, variance, 0.03, "component %d variance", i)
	}

	assert.InDelta(t, 0, stat.Correlation(xs, ys, nil), 0.02)
	assert.InDelta(t, 0, stat.Correlation(ys, zs, nil), 0.02)
	assert.InDelta(t, 0, stat.Correlation(xs, zs, nil), 0.02)
}

func TestSaltsAreIndependent(t *testing.T) {
	const n = 50000
	g := Generator{Seed: 7}
	salts := []Salt{TranslationWalk, TranslationVelocity, RotationWalk, RotationVelocity, LatticeCoupling}

	streams := make([][]float64, len(salts))
	for i, s := range salts {
		streams[i], _, _ = sample(g, n, 5, s)
	}

	for i := range streams {
		for j := i + 1; j < len(streams); j++ {
			c := stat.Correlation(streams[i], streams[j], nil)
			if math.Abs(c) > 0.03 {
				t.Errorf("%v and %v correlate: %f", salts[i], salts[j], c)
			}
		}
	}
}

func TestParticlesAreIndependent(t *testing.T) {
	const n = 50000
	g := Generator{Seed: 7}
	a, _, _ := sample(g, n, 1, TranslationWalk)
	b, _, _ := sample(g, n, 2, TranslationWalk)
	assert.InDelta(t, 0, stat.Correlation(a, b, nil), 0.03)
}

func TestCounter(t *testing.T) {
	c := Counter{Seed: 9}
	c.Increment()
	c.Increment()
	assert.Equal(t, uint64(2), c.Value)
	assert.Equal(t, Generator{Seed: 9}, c.Generator())
}

func TestSaltString(t *testing.T) {
	assert.Equal(t, "rotation_walk", RotationWalk.String())
	assert.Equal(t, "Salt(99)", Salt(99).String())
}
