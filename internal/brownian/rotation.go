package brownian

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/noise"
	"github.com/san-kum/bdsim/internal/particle"
	"github.com/san-kum/bdsim/internal/thermostat"
)

// bodyTorque is the torque in the body frame restricted to rotating axes.
func bodyTorque(p *particle.Particle) vec3 {
	return arr(p.Rotation.Apply(particle.LabToBody(p.Quat, p.Torque)))
}

// rotate composes a body frame rotation vector onto the orientation. A zero
// vector is skipped so its axis is never normalised.
func rotate(p *particle.Particle, dphi vec3) {
	v := p.Rotation.Apply(dphi.vec())
	angle := r3.Norm(v)
	if angle == 0 {
		return
	}
	p.Quat = particle.RotateBody(p.Quat, r3.Scale(1/angle, v), angle)
}

// DragRot rotates by torque*dt/gamma_rot about the body axes.
func DragRot(th *thermostat.Brownian, p *particle.Particle, dt float64) {
	g := arr(localGammaRot(th, p).Vec())
	torque := bodyTorque(p)

	var dphi vec3
	for j := 0; j < 3; j++ {
		if !p.Fixed.Has(j) {
			dphi[j] = mobility(torque[j], g[j]) * dt
		}
	}
	rotate(p, dphi)
}

// DragVelRot sets the terminal angular velocity torque/gamma_rot.
func DragVelRot(th *thermostat.Brownian, p *particle.Particle, dt float64) {
	g := arr(localGammaRot(th, p).Vec())
	torque := bodyTorque(p)

	var omega vec3
	for j := 0; j < 3; j++ {
		if !p.Fixed.Has(j) {
			omega[j] = mobility(torque[j], g[j])
		}
	}
	p.Omega = p.Rotation.Apply(omega.vec())
}

// RandomWalkRot rotates by the thermal angle sqrt(dt)/sigma_pos_rot_inv * xi.
func RandomWalkRot(th *thermostat.Brownian, p *particle.Particle, dt float64) {
	inv := arr(sigmaPosRotInv(th, p))
	xi := arr(th.Noise(p.ID, noise.RotationWalk))
	sqrtDt := math.Sqrt(dt)

	var dphi vec3
	for j := 0; j < 3; j++ {
		if !p.Fixed.Has(j) {
			dphi[j] = xi[j] * thermostat.WalkAmplitude(inv[j]) * sqrtDt
		}
	}
	rotate(p, dphi)
}

// RandomWalkVelRot adds sqrt(kT/I) * xi to the angular velocity.
func RandomWalkVelRot(th *thermostat.Brownian, p *particle.Particle, dt float64) {
	sigma := sigmaVelRot(th, p)
	xi := arr(th.Noise(p.ID, noise.RotationVelocity))
	inertia := arr(p.Inertia)

	var domega vec3
	for j := 0; j < 3; j++ {
		if !p.Fixed.Has(j) && p.Rotation.Has(j) {
			domega[j] = sigma * xi[j] / math.Sqrt(inertia[j])
		}
	}
	p.Omega = r3.Add(p.Omega, domega.vec())
}
