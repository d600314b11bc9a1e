package vmath

import (
	"github.com/chewxy/math32"
)

// Vec3 is a float32 3D vector for spatial audio calculations
// float32 keeps position updates cheap in per-frame hot paths
type Vec3 struct {
	X, Y, Z float32
}

func Add(a, b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a, b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Scale(v Vec3, s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func Dot(a, b Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func LengthSq(v Vec3) float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func Length(v Vec3) float32 {
	return math32.Sqrt(LengthSq(v))
}

func Normalize(v Vec3) Vec3 {
	mag := Length(v)
	if mag == 0 {
		return Vec3{}
	}
	inv := 1.0 / mag
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// Distance returns the euclidean distance between two points
func Distance(a, b Vec3) float32 {
	return Length(Sub(a, b))
}

// Clamp limits v to the [lo, hi] range
func Clamp(lo, v, hi float32) float32 {
	return math32.Min(math32.Max(v, lo), hi)
}
