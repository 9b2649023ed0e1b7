// Package components defines the per-agent value types held in the particle stores.
package components

import "fmt"

// Shape selects the footprint of the deletion tool.
type Shape int8

const (
	ShapeCircle   Shape = iota // Euclidean distance below size/2
	ShapeSquare                // Chebyshev half-extent test
	ShapeTriangle              // Upright triangle, base at -size/2, tip at +size/2
	ShapeLine                  // Vertical strip of width size, infinite in y
)

// ParseShape converts a config name into a Shape.
func ParseShape(name string) (Shape, error) {
	for i, n := range ShapeNames() {
		if n == name {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shape %q", name)
}

// Valid reports whether s is one of the four known shapes.
func (s Shape) Valid() bool {
	return s >= ShapeCircle && s <= ShapeLine
}

// Contains reports whether the offset (dx, dy) from the tool centre lies inside
// a footprint of the given size. Unknown shapes contain nothing.
func (s Shape) Contains(dx, dy, size float32) bool {
	half := size / 2
	switch s {
	case ShapeCircle:
		return dx*dx+dy*dy < half*half
	case ShapeSquare:
		return absf(dx) < half && absf(dy) < half
	case ShapeTriangle:
		localY := dy + half
		if localY < 0 || localY > size {
			return false
		}
		t := localY / size
		return absf(dx) <= (1-t)*half
	case ShapeLine:
		return absf(dx) < half
	}
	return false
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
