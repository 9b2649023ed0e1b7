package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fibro/camera"
	"github.com/pthm-cable/fibro/components"
)

// ECMRenderer draws deposits as small dots, optionally joined to the deposit
// laid before them by the same cell.
type ECMRenderer struct {
	dot  rl.Color
	link rl.Color
}

// NewECMRenderer creates an ECM renderer.
func NewECMRenderer() *ECMRenderer {
	return &ECMRenderer{
		dot:  rl.Color{R: 220, G: 200, B: 160, A: 160},
		link: rl.Color{R: 200, G: 170, B: 120, A: 110},
	}
}

// Draw renders deposits. links may be nil; a link equal to its own position draws nothing.
func (r *ECMRenderer) Draw(cam *camera.Camera, pos, links []components.Vec2, size float32) {
	px := size * cam.Scale()
	if px < 1 {
		px = 1
	}
	for i, p := range pos {
		visible := cam.IsVisible(p.X, p.Y, size)
		sx, sy := cam.WorldToScreen(p.X, p.Y)
		if i < len(links) {
			l := links[i]
			if l != p && l != components.Sentinel && (visible || cam.IsVisible(l.X, l.Y, size)) {
				lx, ly := cam.WorldToScreen(l.X, l.Y)
				rl.DrawLineV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: lx, Y: ly}, r.link)
			}
		}
		if visible {
			rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, px, r.dot)
		}
	}
}
