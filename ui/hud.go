package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Population   int
	MaxCells     int
	ECMCount     int
	MaxECM       int
	Tick         int32
	Speed        int
	FPS          int32
	Paused       bool
	ScreenHeight int32

	// Per-phase counts indexed like components.Phase, with display names and colours
	PhaseCounts []int
	PhaseNames  []string
	PhaseColors []rl.Color

	WoundAreaMM2 float64
	ClosurePct   float64
	HasWound     bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD in the top-left corner and returns the Y below it.
func (h *HUD) Draw(data HUDData) int32 {
	r := h.renderer
	x := int32(10)
	y := int32(10)

	rl.DrawText(data.Title, x, y, 20, rl.White)
	y += 25

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d", data.Tick, data.Speed, data.FPS),
		x, y, 16, rl.LightGray,
	)
	y += 20

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	rl.DrawText(status, x, y, 16, rl.Yellow)
	y += 24

	width := int32(260)
	lines := int32(len(data.PhaseCounts) + 4)
	r.DrawPanel(x-4, y-4, width, lines*(r.Theme.LineHeight+2)+r.Theme.Padding)

	y = r.DrawBar(x, y, "Cells", ratio(data.Population, data.MaxCells),
		fmt.Sprintf("%d", data.Population), r.Theme.BarFill, width-8)
	y = r.DrawBar(x, y, "ECM", ratio(data.ECMCount, data.MaxECM),
		fmt.Sprintf("%d", data.ECMCount), rl.Color{R: 220, G: 200, B: 160, A: 255}, width-8)

	for i, n := range data.PhaseCounts {
		name := fmt.Sprintf("#%d", i)
		if i < len(data.PhaseNames) {
			name = data.PhaseNames[i]
		}
		fill := r.Theme.BarFill
		if i < len(data.PhaseColors) {
			fill = data.PhaseColors[i]
		}
		y = r.DrawBar(x, y, name, ratio(n, data.Population), fmt.Sprintf("%d", n), fill, width-8)
	}

	if data.HasWound {
		y = r.DrawLabelValue(x, y, "Wound", fmt.Sprintf("%.3f mm²", data.WoundAreaMM2))
		y = r.DrawLabelValue(x, y, "Closure", fmt.Sprintf("%.1f%%", data.ClosurePct))
	}
	return y
}

func ratio(n, d int) float32 {
	if d <= 0 {
		return 0
	}
	return float32(n) / float32(d)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase tick timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel. phases fixes the display order.
func (p *PerfPanel) Draw(avg map[string]time.Duration, total time.Duration, phases []string) {
	x, y := p.x, p.y
	p.renderer.DrawPanel(x-6, y-6, 260, int32(len(phases))*14+48)

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("Total: %s", total.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range phases {
		d := avg[name]
		pct := 0.0
		if total > 0 {
			pct = float64(d) / float64(total) * 100
		}
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-12s %8s %5.1f%%", name, d.Round(time.Microsecond), pct), x, y, 12, color)
		y += 14
	}
}
