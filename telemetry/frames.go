package telemetry

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pthm-cable/fibro/config"
)

// minFramePixels is the smallest edge a frame is upscaled to.
const minFramePixels = 256

var frameLabelColor = color.RGBA{255, 200, 60, 255}

// FrameWriter saves the fibroblast coverage grid as grayscale PNG frames,
// one bucket per scale×scale block, coverage clipped to [0,1].
type FrameWriter struct {
	dir   string
	res   int
	scale int
	meter *WoundMeter
}

// NewFrameWriter creates dir and returns a writer for cfg's grid.
func NewFrameWriter(dir string, cfg *config.Config) (*FrameWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating frame directory: %w", err)
	}
	res := cfg.Derived.GridRes
	scale := 1
	if res < minFramePixels {
		scale = (minFramePixels + res - 1) / res
	}
	return &FrameWriter{dir: dir, res: res, scale: scale, meter: NewWoundMeter(cfg)}, nil
}

// Size returns the frame edge in pixels.
func (fw *FrameWriter) Size() int { return fw.res * fw.scale }

// Render draws the coverage image for counts and stamps the step label.
func (fw *FrameWriter) Render(step int32, counts []int32) *image.RGBA {
	size := fw.Size()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cov := fw.meter.Coverage(counts)
	for cy := 0; cy < fw.res; cy++ {
		// Row 0 is y=0, drawn at the bottom like the viewer.
		py := (fw.res - 1 - cy) * fw.scale
		for cx := 0; cx < fw.res; cx++ {
			v := cov[cy*fw.res+cx]
			v = min(max(v, 0), 1)
			c := color.RGBA{uint8(v * 255), uint8(v * 255), uint8(v * 255), 255}
			px := cx * fw.scale
			for y := py; y < py+fw.scale; y++ {
				for x := px; x < px+fw.scale; x++ {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(frameLabelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(4), Y: fixed.I(13)},
	}
	d.DrawString(fmt.Sprintf("step %d", step))
	return img
}

// Write renders a frame and saves it as frame_<step>.png.
func (fw *FrameWriter) Write(step int32, counts []int32) (string, error) {
	path := filepath.Join(fw.dir, fmt.Sprintf("frame_%06d.png", step))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating frame: %w", err)
	}
	if err := png.Encode(f, fw.Render(step, counts)); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding frame: %w", err)
	}
	return path, f.Close()
}
