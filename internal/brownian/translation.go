package brownian

import (
	"math"

	"github.com/san-kum/bdsim/internal/noise"
	"github.com/san-kum/bdsim/internal/particle"
	"github.com/san-kum/bdsim/internal/thermostat"
)

// Drag propagates the position by the viscous drag of the conservative
// force, force*dt/gamma, leaving fixed axes untouched.
func Drag(th *thermostat.Brownian, p *particle.Particle, dt float64) {
	gamma := localGamma(th, p)
	g := arr(gamma.Vec())

	var delta vec3
	if gamma.IsAnisotropic() {
		f := arr(particle.LabToBody(p.Quat, p.Force))
		for j := 0; j < 3; j++ {
			delta[j] = mobility(f[j], g[j]) * dt
		}
		delta = arr(particle.BodyToLab(p.Quat, delta.vec()))
	} else {
		f := arr(p.Force)
		for j := 0; j < 3; j++ {
			delta[j] = mobility(f[j], g[j]) * dt
		}
	}

	pos := arr(p.Pos)
	for j := 0; j < 3; j++ {
		if !p.Fixed.Has(j) {
			pos[j] += delta[j]
		}
	}
	p.Pos = pos.vec()
}

// DragVel sets the terminal velocity force/gamma. The velocity is
// overwritten, not accumulated; fixed axes get exactly zero.
func DragVel(th *thermostat.Brownian, p *particle.Particle, dt float64) {
	gamma := localGamma(th, p)
	g := arr(gamma.Vec())

	var vel vec3
	if gamma.IsAnisotropic() {
		f := arr(particle.LabToBody(p.Quat, p.Force))
		for j := 0; j < 3; j++ {
			vel[j] = mobility(f[j], g[j])
		}
		vel = arr(particle.BodyToLab(p.Quat, vel.vec()))
	} else {
		f := arr(p.Force)
		for j := 0; j < 3; j++ {
			vel[j] = mobility(f[j], g[j])
		}
	}

	for j := 0; j < 3; j++ {
		if p.Fixed.Has(j) {
			vel[j] = 0
		}
	}
	p.Vel = vel.vec()
}

// RandomWalk adds the thermal displacement sqrt(dt)/sigma_pos_inv * xi.
func RandomWalk(th *thermostat.Brownian, p *particle.Particle, dt float64) {
	if !thermalized(th, p) {
		return
	}

	inv := arr(sigmaPosInv(th, p))
	xi := arr(th.Noise(p.ID, noise.TranslationWalk))
	sqrtDt := math.Sqrt(dt)

	var delta vec3
	for j := 0; j < 3; j++ {
		if !p.Fixed.Has(j) {
			delta[j] = thermostat.WalkAmplitude(inv[j]) * sqrtDt * xi[j]
		}
	}
	if !isotropic(inv) {
		delta = arr(particle.BodyToLab(p.Quat, delta.vec()))
	}

	pos := arr(p.Pos)
	for j := 0; j < 3; j++ {
		if !p.Fixed.Has(j) {
			pos[j] += delta[j]
		}
	}
	p.Pos = pos.vec()
}

// RandomWalkVel adds the thermal velocity sqrt(kT/m) * xi on top of the
// terminal velocity set by DragVel.
func RandomWalkVel(th *thermostat.Brownian, p *particle.Particle, dt float64) {
	if !thermalized(th, p) {
		return
	}

	sigma := sigmaVel(th, p)
	xi := arr(th.Noise(p.ID, noise.TranslationVelocity))
	invSqrtMass := 1 / math.Sqrt(p.Mass)

	vel := arr(p.Vel)
	for j := 0; j < 3; j++ {
		if !p.Fixed.Has(j) {
			vel[j] += sigma * xi[j] * invSqrtMass
		}
	}
	p.Vel = vel.vec()
}
