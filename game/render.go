package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/telemetry"
	"github.com/pthm-cable/fibro/ui"
)

const controlsLegend = "LMB wound | RMB seed | 1-4 shape | [ ] size | SPACE pause | < > speed | S save | TAB overlays | Arrows/wheel camera"

var (
	backgroundColor = rl.Color{R: 18, G: 20, B: 26, A: 255}
	domainColor     = rl.Color{R: 28, G: 31, B: 40, A: 255}
	gridLineColor   = rl.Color{R: 255, G: 255, B: 255, A: 18}
	toolColor       = rl.Color{R: 255, G: 90, B: 90, A: 200}
)

// Draw renders the game state.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	g.drawDomain()

	counts := g.sim.Fibroblasts.Grid().Counts()
	if g.overlays.IsEnabled(ui.OverlayCoverage) {
		g.occupancy.Update(g.meter.Coverage(counts), g.meter.Mask(counts), g.cfg.Derived.GridRes)
		g.occupancy.Draw(g.camera)
	}
	if g.overlays.IsEnabled(ui.OverlayGrid) {
		g.drawGridLines()
	}

	if g.overlays.IsEnabled(ui.OverlayECM) {
		var links []components.Vec2
		if g.overlays.IsEnabled(ui.OverlayECMLinks) {
			links = g.sim.ECM.Links()
		}
		g.ecm.Draw(g.camera, g.sim.ECM.Positions(), links, g.cfg.Derived.CellRadius32*0.25)
	}
	if g.overlays.IsEnabled(ui.OverlayCells) {
		g.cells.Draw(g.camera, g.sim.Fibroblasts.Positions(), g.sim.Fibroblasts.Phases(), g.cfg.Derived.CellRadius32)
	}

	g.drawToolCursor()
	g.drawUI(counts)

	rl.EndDrawing()
}

// drawDomain fills the unit square.
func (g *Game) drawDomain() {
	x0, y0 := g.camera.WorldToScreen(0, 0)
	x1, y1 := g.camera.WorldToScreen(1, 1)
	rl.DrawRectangleRec(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, domainColor)
}

// drawGridLines outlines the spatial hash buckets.
func (g *Game) drawGridLines() {
	res := g.cfg.Derived.GridRes
	x0, y0 := g.camera.WorldToScreen(0, 0)
	x1, y1 := g.camera.WorldToScreen(1, 1)
	for i := 0; i <= res; i++ {
		t := float32(i) / float32(res)
		x := x0 + (x1-x0)*t
		y := y0 + (y1-y0)*t
		rl.DrawLineV(rl.Vector2{X: x, Y: y0}, rl.Vector2{X: x, Y: y1}, gridLineColor)
		rl.DrawLineV(rl.Vector2{X: x0, Y: y}, rl.Vector2{X: x1, Y: y}, gridLineColor)
	}
}

// drawToolCursor outlines the wound tool footprint under the mouse.
func (g *Game) drawToolCursor() {
	mouse := rl.GetMousePosition()
	if g.tools.Contains(mouse) {
		return
	}
	half := g.tool.SizeUM * float32(1/g.cfg.Derived.UMPerUnit) * g.camera.Scale() / 2
	switch g.tool.Shape {
	case components.ShapeCircle:
		rl.DrawCircleLinesV(mouse, half, toolColor)
	case components.ShapeSquare:
		rl.DrawRectangleLinesEx(rl.Rectangle{X: mouse.X - half, Y: mouse.Y - half, Width: 2 * half, Height: 2 * half}, 1, toolColor)
	case components.ShapeTriangle:
		// Screen y grows downward, so the tip at +size/2 in the domain sits below the base.
		tip := rl.Vector2{X: mouse.X, Y: mouse.Y + half}
		left := rl.Vector2{X: mouse.X - half, Y: mouse.Y - half}
		right := rl.Vector2{X: mouse.X + half, Y: mouse.Y - half}
		rl.DrawTriangleLines(left, tip, right, toolColor)
	case components.ShapeLine:
		_, top := g.camera.WorldToScreen(0, 0)
		_, bottom := g.camera.WorldToScreen(0, 1)
		rl.DrawRectangleLinesEx(rl.Rectangle{X: mouse.X - half, Y: top, Width: 2 * half, Height: bottom - top}, 1, toolColor)
	}
}

// drawUI renders the HUD and panels.
func (g *Game) drawUI(counts []int32) {
	f := g.sim.Fibroblasts
	data := ui.HUDData{
		Title:        "Fibroblast Wound Closure",
		Population:   f.Count(),
		MaxCells:     f.MaxCount(),
		ECMCount:     g.sim.ECM.Count(),
		MaxECM:       g.sim.ECM.MaxCount(),
		Tick:         g.sim.StepCount(),
		Speed:        g.stepsPerUpdate,
		FPS:          rl.GetFPS(),
		Paused:       g.tool.Paused,
		ScreenHeight: int32(g.screenHeight),
		PhaseNames:   components.PhaseNames(),
		PhaseCounts:  make([]int, len(components.PhaseNames())),
	}
	for i := range data.PhaseNames {
		data.PhaseColors = append(data.PhaseColors, g.cells.PhaseColor(components.Phase(i)))
	}
	for _, p := range f.Phases() {
		if p >= 0 && int(p) < len(data.PhaseCounts) {
			data.PhaseCounts[p]++
		}
	}
	if _, ok := g.meter.Initial(); ok {
		data.HasWound = true
		data.WoundAreaMM2 = g.meter.Area(counts)
		data.ClosurePct = g.meter.Closure(data.WoundAreaMM2)
	}

	y := g.hud.Draw(data)
	g.controls.SetPosition(10, y+10)
	g.controls.Draw(g.overlays)
	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		stats := g.perfCollector.Stats()
		g.perfPanel.Draw(stats.PhaseAvg, stats.AvgTickDuration, telemetry.PerfPhases())
	}

	g.tool = g.tools.Draw(g.tool)
	if g.tool.Paused {
		msg := fmt.Sprintf("PAUSED at step %d", g.sim.StepCount())
		w := rl.MeasureText(msg, 20)
		rl.DrawText(msg, int32(g.screenWidth)/2-w/2, 10, 20, rl.Yellow)
	}
}
