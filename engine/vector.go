package engine

import (
	"fmt"
	"math"
)

// Vec3 is a three component vector in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Well-known directions. Forward is +Z, Up is +Y, Right is +X.
var (
	Zero    = Vec3{}
	One     = Vec3{1, 1, 1}
	Up      = Vec3{0, 1, 0}
	Down    = Vec3{0, -1, 0}
	Left    = Vec3{-1, 0, 0}
	Right   = Vec3{1, 0, 0}
	Forward = Vec3{0, 0, 1}
	Back    = Vec3{0, 0, -1}
)

// V is shorthand for Vec3{x, y, z}.
func V(x, y, z float64) Vec3 { return Vec3{x, y, z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Length() }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Normalized returns v scaled to unit length, or Zero for a zero vector.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return Zero
	}
	return v.Scale(1 / l)
}

// Lerp interpolates between v and o; t is clamped to [0, 1].
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	t = math.Max(0, math.Min(1, t))
	return v.Add(o.Sub(v).Scale(t))
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// Identity is the no-op rotation.
var Identity = Quat{W: 1}

// QuatFromEuler builds a rotation from Euler angles in degrees, applied
// Z first, then X, then Y.
func QuatFromEuler(deg Vec3) Quat {
	return axisAngle(Up, deg.Y).Mul(axisAngle(Right, deg.X)).Mul(axisAngle(Forward, deg.Z))
}

func axisAngle(axis Vec3, deg float64) Quat {
	half := deg * math.Pi / 360
	s := math.Sin(half)
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, math.Cos(half)}
}

// Mul composes q and o; the result applies o first.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

func (q Quat) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f, %.3f)", q.X, q.Y, q.Z, q.W)
}
