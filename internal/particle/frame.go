package particle

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the orientation with body and lab frames aligned.
func Identity() quat.Number { return quat.Number{Real: 1} }

// Normalize returns q scaled to unit length. The zero quaternion is returned
// unchanged.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return q
	}
	return quat.Scale(1/n, q)
}

// BodyToLab expresses a body frame vector in the lab frame for orientation q.
func BodyToLab(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// LabToBody expresses a lab frame vector in the body frame for orientation q.
func LabToBody(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(quat.Conj(q), p), q)
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// AxisAngle returns the unit quaternion rotating by angle about the unit
// vector axis.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: s * axis.X, Jmag: s * axis.Y, Kmag: s * axis.Z}
}

// RotateBody composes a rotation by angle about a body frame axis onto q.
// axis must be a unit vector.
func RotateBody(q quat.Number, axis r3.Vec, angle float64) quat.Number {
	return Normalize(quat.Mul(q, AxisAngle(axis, angle)))
}
