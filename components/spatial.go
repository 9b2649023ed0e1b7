package components

import "math"

// Vec2 is a position or displacement in unit-domain coordinates.
type Vec2 struct {
	X, Y float32
}

// Sentinel marks a dead slot.
var Sentinel = Vec2{X: -1, Y: -1}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the Euclidean length.
func (v Vec2) Len() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

// Normalized returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return Vec2{v.X / l, v.Y / l}
}

// Inside reports whether v lies in the open unit square.
func (v Vec2) Inside() bool {
	return v.X > 0 && v.X < 1 && v.Y > 0 && v.Y < 1
}
