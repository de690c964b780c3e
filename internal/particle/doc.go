// Package particle defines the particle record advanced by the integrators
// together with the pure frame conversions they rely on.
//
// Orientation is a unit quaternion q mapping body frame vectors to the lab
// frame as v_lab = q v_body q*. Rotations about body axes compose on the
// right:
//
//	q = particle.RotateBody(q, axis, angle)
//
// Per-particle parameter overrides use [Optional]; an unset override means
// the thermostat's global value applies.
package particle
