package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-3 }

func TestNew(t *testing.T) {
	cam := New(1280, 720)
	if cam.X != 0.5 || cam.Y != 0.5 {
		t.Errorf("expected camera at (0.5, 0.5), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Scale() != 720 {
		t.Errorf("expected 720 px per unit, got %f", cam.Scale())
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720)
	sx, sy := cam.WorldToScreen(0.5, 0.5)
	if !near(sx, 640) || !near(sy, 360) {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
	sx, sy = cam.WorldToScreen(0, 0)
	if !near(sx, 280) || !near(sy, 0) {
		t.Errorf("expected domain origin at (280, 0), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720)
	cam.SetZoom(3)
	cam.Pan(200, -150)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}
	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)", tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampedToWalls(t *testing.T) {
	cam := New(1000, 1000)
	cam.SetZoom(4)

	cam.Pan(-1e6, -1e6)
	minX, minY, _, _ := cam.VisibleWorldBounds()
	if !near(minX, 0) || !near(minY, 0) {
		t.Errorf("view passed the origin wall: min (%f, %f)", minX, minY)
	}

	cam.Pan(1e6, 1e6)
	_, _, maxX, maxY := cam.VisibleWorldBounds()
	if !near(maxX, 1) || !near(maxY, 1) {
		t.Errorf("view passed the far wall: max (%f, %f)", maxX, maxY)
	}
}

func TestZoomClamp(t *testing.T) {
	tests := []struct {
		name string
		zoom float32
		want float32
	}{
		{"below min", 0.1, 1},
		{"in range", 2.5, 2.5},
		{"above max", 100, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := New(800, 600)
			cam.SetZoom(tt.zoom)
			if cam.Zoom != tt.want {
				t.Errorf("zoom = %f, want %f", cam.Zoom, tt.want)
			}
		})
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1000, 1000)
	cam.SetZoom(4)
	cam.X, cam.Y = 0.5, 0.5

	if !cam.IsVisible(0.5, 0.5, 0.01) {
		t.Error("centre should be visible")
	}
	if cam.IsVisible(0.05, 0.05, 0.01) {
		t.Error("far corner should be culled at 4x zoom")
	}
	if !cam.IsVisible(0.37, 0.5, 0.01) {
		t.Error("circle overlapping the left view edge should be visible")
	}
}

func TestReset(t *testing.T) {
	cam := New(1000, 1000)
	cam.SetZoom(3)
	cam.Pan(100, 100)
	cam.Reset()
	if cam.X != 0.5 || cam.Y != 0.5 || cam.Zoom != 1 {
		t.Errorf("reset left camera at (%f, %f) zoom %f", cam.X, cam.Y, cam.Zoom)
	}
}
