// Package renderer draws the fibroblast simulation with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fibro/camera"
	"github.com/pthm-cable/fibro/components"
)

// hexColor converts a 0xRRGGBB value to a raylib colour.
func hexColor(rgb uint32, alpha uint8) rl.Color {
	return rl.Color{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: alpha}
}

// CellRenderer draws fibroblasts as discs coloured by cycle phase.
type CellRenderer struct {
	colors []rl.Color
	none   rl.Color
}

// NewCellRenderer creates a cell renderer with the standard phase palette.
func NewCellRenderer() *CellRenderer {
	r := &CellRenderer{none: rl.Color{R: 255, G: 255, B: 255, A: 80}}
	for _, c := range components.PhaseColors() {
		r.colors = append(r.colors, hexColor(c, 230))
	}
	return r
}

// PhaseColor returns the display colour for a phase.
func (r *CellRenderer) PhaseColor(p components.Phase) rl.Color {
	if p >= 0 && int(p) < len(r.colors) {
		return r.colors[p]
	}
	return r.none
}

// Draw renders every visible cell. radius is in domain units.
func (r *CellRenderer) Draw(cam *camera.Camera, pos []components.Vec2, phases []components.Phase, radius float32) {
	px := radius * cam.Scale()
	if px < 1 {
		px = 1
	}
	for i, p := range pos {
		if !cam.IsVisible(p.X, p.Y, radius) {
			continue
		}
		sx, sy := cam.WorldToScreen(p.X, p.Y)
		var ph components.Phase = components.PhaseNone
		if i < len(phases) {
			ph = phases[i]
		}
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, px, r.PhaseColor(ph))
	}
}
