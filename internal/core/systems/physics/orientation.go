package physics

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quat is a rotation in engine order (w, x, y, z). It is not required to be
// normalised; conversions normalise on read.
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IdentityQuat is the zero rotation.
var IdentityQuat = Quat{W: 1}

// Number converts to a gonum quaternion.
func (q Quat) Number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// QuatFromNumber converts a gonum quaternion into engine order.
func QuatFromNumber(n quat.Number) Quat {
	return Quat{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}

// Slice returns [w, x, y, z].
func (q Quat) Slice() []float64 { return []float64{q.W, q.X, q.Y, q.Z} }

// Normalize returns q scaled to unit length. The zero quaternion maps to
// the identity.
func (q Quat) Normalize() Quat {
	n := q.Number()
	abs := quat.Abs(n)
	if abs == 0 {
		return IdentityQuat
	}
	return QuatFromNumber(quat.Scale(1/abs, n))
}

// AngleToQuat returns the rotation of theta radians about the vertical (z)
// axis with no rotation about x or y.
func AngleToQuat(theta float64) Quat {
	return QuatFromNumber(quat.Exp(quat.Number{Kmag: theta / 2}))
}

// QuatToAngle extracts the vertical-axis rotation using a ZYX Euler
// decomposition. The result lies in (-pi, pi]. Rotations with non-zero roll
// or pitch are not meaningful for planar bodies; the yaw is still returned.
func QuatToAngle(q Quat) float64 {
	q = q.Normalize()
	siny := 2 * (q.W*q.Z + q.X*q.Y)
	cosy := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	return WrapAngle(math.Atan2(siny, cosy))
}

// WrapAngle maps theta into (-pi, pi].
func WrapAngle(theta float64) float64 {
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return theta
	}
	theta = math.Mod(theta, 2*math.Pi)
	if theta > math.Pi {
		theta -= 2 * math.Pi
	} else if theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}
