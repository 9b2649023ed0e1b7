package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fibro/camera"
)

// OccupancyRenderer shows the fibroblast grid coverage as a texture over the
// domain, with wound buckets tinted.
type OccupancyRenderer struct {
	tex         rl.Texture2D
	res         int
	pixels      []color.RGBA
	initialized bool
}

// NewOccupancyRenderer creates an occupancy renderer.
func NewOccupancyRenderer() *OccupancyRenderer {
	return &OccupancyRenderer{}
}

// Init creates the texture (must be called after the raylib window is created).
func (r *OccupancyRenderer) Init(res int) {
	if r.initialized {
		return
	}
	r.res = res
	img := rl.GenImageColor(res, res, rl.Blank)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	rl.UnloadImage(img)
	r.pixels = make([]color.RGBA, res*res)
	r.initialized = true
}

// Update uploads coverage values (row-major, res×res) and the wound mask.
func (r *OccupancyRenderer) Update(coverage []float64, wound []bool, res int) {
	if !r.initialized {
		r.Init(res)
	}
	if len(coverage) != r.res*r.res || len(wound) != len(coverage) {
		return
	}
	for i, v := range coverage {
		if wound[i] {
			r.pixels[i] = color.RGBA{R: 160, G: 30, B: 40, A: 90}
			continue
		}
		v = min(max(v, 0), 1)
		r.pixels[i] = color.RGBA{R: 255, G: 255, B: 255, A: uint8(v * 60)}
	}
	rl.UpdateTexture(r.tex, r.pixels)
}

// Draw stretches the texture over the unit square as seen by cam.
func (r *OccupancyRenderer) Draw(cam *camera.Camera) {
	if !r.initialized {
		return
	}
	x0, y0 := cam.WorldToScreen(0, 0)
	x1, y1 := cam.WorldToScreen(1, 1)
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(r.res), Height: float32(r.res)}
	dst := rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	rl.DrawTexturePro(r.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (r *OccupancyRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
