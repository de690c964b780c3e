package brownian

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/friction"
	"github.com/san-kum/bdsim/internal/particle"
	"github.com/san-kum/bdsim/internal/thermostat"
)

type vec3 [3]float64

func arr(v r3.Vec) vec3 { return vec3{v.X, v.Y, v.Z} }

func (a vec3) vec() r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

func isotropic(a vec3) bool { return a[0] == a[1] && a[1] == a[2] }

// mobility returns f/gamma, with a zero friction axis frozen instead of
// producing an infinite displacement.
func mobility(f, gamma float64) float64 {
	if gamma == 0 {
		return 0
	}
	return f / gamma
}

func localGamma(th *thermostat.Brownian, p *particle.Particle) friction.Model {
	return p.Gamma.Or(th.Gamma())
}

func localGammaRot(th *thermostat.Brownian, p *particle.Particle) friction.Model {
	return p.GammaRot.Or(th.GammaRotation())
}

// sigmaPosInv resolves sqrt(gamma/(2 kT)) for p. Per-particle gamma and
// temperature each take precedence over the global value independently.
func sigmaPosInv(th *thermostat.Brownian, p *particle.Particle) r3.Vec {
	if !p.Gamma.IsSet() && !p.Temperature.IsSet() {
		return th.SigmaPosInv()
	}
	return thermostat.SigmaPosInv(localGamma(th, p), p.Temperature.Or(th.KT()))
}

func sigmaPosRotInv(th *thermostat.Brownian, p *particle.Particle) r3.Vec {
	if !p.GammaRot.IsSet() && !p.Temperature.IsSet() {
		return th.SigmaPosRotInv()
	}
	return thermostat.SigmaPosInv(localGammaRot(th, p), p.Temperature.Or(th.KT()))
}

func sigmaVel(th *thermostat.Brownian, p *particle.Particle) float64 {
	if kT, ok := p.Temperature.Get(); ok {
		return thermostat.SigmaVel(kT)
	}
	return th.SigmaVel()
}

func sigmaVelRot(th *thermostat.Brownian, p *particle.Particle) float64 {
	if kT, ok := p.Temperature.Get(); ok {
		return thermostat.SigmaVel(kT)
	}
	return th.SigmaVelRot()
}

// thermalized reports whether the translational degrees of freedom of p are
// propagated.
func thermalized(th *thermostat.Brownian, p *particle.Particle) bool {
	return !p.Virtual || th.ThermalizeVirtual
}
