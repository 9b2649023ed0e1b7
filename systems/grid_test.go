package systems

import (
	"slices"
	"testing"

	"github.com/pthm-cable/fibro/components"
)

func TestSpatialGrid_Bucket(t *testing.T) {
	g := NewSpatialGrid(10, 4)
	tests := []struct {
		name   string
		p      components.Vec2
		cx, cy int
	}{
		{"origin", components.Vec2{X: 0, Y: 0}, 0, 0},
		{"interior", components.Vec2{X: 0.55, Y: 0.21}, 5, 2},
		{"upper edge clamps", components.Vec2{X: 1, Y: 1}, 9, 9},
		{"negative clamps", components.Vec2{X: -0.3, Y: 0.5}, 0, 5},
		{"far outside clamps", components.Vec2{X: 4, Y: -2}, 9, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cx, cy := g.Bucket(tc.p)
			if cx != tc.cx || cy != tc.cy {
				t.Errorf("Bucket(%v) = (%d, %d), want (%d, %d)", tc.p, cx, cy, tc.cx, tc.cy)
			}
		})
	}
}

func TestSpatialGrid_OverflowIsDropped(t *testing.T) {
	g := NewSpatialGrid(4, 3)
	p := components.Vec2{X: 0.1, Y: 0.1}
	for i := 0; i < 5; i++ {
		ok := g.Insert(i, p)
		if want := i < 3; ok != want {
			t.Errorf("Insert #%d = %v, want %v", i, ok, want)
		}
	}
	if got := g.Cell(0, 0); !slices.Equal(got, []int32{0, 1, 2}) {
		t.Errorf("Cell(0,0) = %v, want [0 1 2]", got)
	}
	if got := g.Occupancy(0, 0); got != 5 {
		t.Errorf("Occupancy = %d, want raw count 5", got)
	}

	g.Clear()
	if got := g.Cell(0, 0); len(got) != 0 {
		t.Errorf("Cell after Clear = %v, want empty", got)
	}
}

func TestSpatialGrid_NeighborsClippedAtCorner(t *testing.T) {
	g := NewSpatialGrid(4, 8)
	// one index per bucket, index = cy*4 + cx
	for cy := 0; cy < 4; cy++ {
		for cx := 0; cx < 4; cx++ {
			g.Insert(cy*4+cx, components.Vec2{X: (float32(cx) + 0.5) / 4, Y: (float32(cy) + 0.5) / 4})
		}
	}

	got := g.Neighbors(nil, components.Vec2{X: 0.1, Y: 0.1}, 1)
	slices.Sort(got)
	if want := []int32{0, 1, 4, 5}; !slices.Equal(got, want) {
		t.Errorf("corner radius 1 = %v, want %v", got, want)
	}

	got = g.Neighbors(got[:0], components.Vec2{X: 0.4, Y: 0.4}, 1)
	if len(got) != 9 {
		t.Errorf("interior radius 1 returned %d indices, want 9", len(got))
	}

	got = g.Neighbors(got[:0], components.Vec2{X: 0.4, Y: 0.4}, 2)
	if len(got) != 16 {
		t.Errorf("radius 2 returned %d indices, want all 16", len(got))
	}
}
