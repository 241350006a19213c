package linalg

import "math"

// Quat is a Hamilton quaternion with W as the scalar part.
type Quat struct {
	X, Y, Z, W float64
}

func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle returns the rotation of angle radians about axis. A zero
// axis yields the identity.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	n := axis.Norm()
	if n == 0 {
		return QuatIdentity()
	}
	s, c := math.Sincos(angle / 2)
	a := axis.Scale(s / n)
	return Quat{a.X, a.Y, a.Z, c}
}

func (q Quat) Vec() Vec3 {
	return Vec3{q.X, q.Y, q.Z}
}

func (q Quat) Add(o Quat) Quat {
	return Quat{q.X + o.X, q.Y + o.Y, q.Z + o.Z, q.W + o.W}
}

func (q Quat) Scale(s float64) Quat {
	return Quat{q.X * s, q.Y * s, q.Z * s, q.W * s}
}

// Norm scales the components by the largest magnitude first, so finite
// quaternions whose squared norm would overflow still have a finite norm.
func (q Quat) Norm() float64 {
	m := max(math.Abs(q.X), math.Abs(q.Y), math.Abs(q.Z), math.Abs(q.W))
	if m == 0 || math.IsInf(m, 0) || math.IsNaN(m) {
		return m
	}
	x, y, z, w := q.X/m, q.Y/m, q.Z/m, q.W/m
	return m * math.Sqrt(x*x+y*y+z*z+w*w)
}

func (q Quat) IsFinite() bool {
	return isFinite(q.X) && isFinite(q.Y) && isFinite(q.Z) && isFinite(q.W)
}

// Tilt is the angle in radians between the body z axis and the world z axis.
func (q Quat) Tilt() float64 {
	up := Rotate(q, Vec3{Z: 1})
	c := up.Z / up.Norm()
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// Euler returns roll, pitch and yaw (intrinsic Z-Y-X) of a unit quaternion.
func (q Quat) Euler() (roll, pitch, yaw float64) {
	roll = math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))
	pitch = math.Asin(math.Max(-1, math.Min(1, 2*(q.W*q.Y-q.Z*q.X))))
	yaw = math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
	return roll, pitch, yaw
}

func (q *Quat) AddInPlace(o Quat) {
	q.X += o.X
	q.Y += o.Y
	q.Z += o.Z
	q.W += o.W
}

// AddScaled adds o*s to q.
func (q *Quat) AddScaled(o Quat, s float64) {
	q.X += o.X * s
	q.Y += o.Y * s
	q.Z += o.Z * s
	q.W += o.W * s
}

func (q *Quat) ScaleInPlace(s float64) {
	q.X *= s
	q.Y *= s
	q.Z *= s
	q.W *= s
}

// CrossQ is the cross product with the vector part of q as first operand.
func CrossQ(q Quat, v Vec3) Vec3 {
	return Vec3{
		q.Y*v.Z - q.Z*v.Y,
		q.Z*v.X - q.X*v.Z,
		q.X*v.Y - q.Y*v.X,
	}
}

// QuatDerivative returns ½·q⊗(0,ω) for body-frame angular velocity ω.
func QuatDerivative(q Quat, omega Vec3) Quat {
	return Quat{
		X: 0.5 * (q.W*omega.X + q.Y*omega.Z - q.Z*omega.Y),
		Y: 0.5 * (q.W*omega.Y + q.Z*omega.X - q.X*omega.Z),
		Z: 0.5 * (q.W*omega.Z + q.X*omega.Y - q.Y*omega.X),
		W: 0.5 * (-q.X*omega.X - q.Y*omega.Y - q.Z*omega.Z),
	}
}

// Rotate applies the active rotation q to v:
// v' = v + 2w(q_v×v) + 2q_v×(q_v×v).
func Rotate(q Quat, v Vec3) Vec3 {
	t := CrossQ(q, v).Scale(2)
	out := CrossQ(q, t)
	out.AddScaled(t, q.W)
	out.AddInPlace(v)
	return out
}
