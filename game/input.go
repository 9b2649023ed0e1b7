package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/ui"
)

// shapeKeys selects the wound tool shape with the number row.
var shapeKeys = []struct {
	key   int32
	shape components.Shape
}{
	{rl.KeyOne, components.ShapeCircle},
	{rl.KeyTwo, components.ShapeSquare},
	{rl.KeyThree, components.ShapeTriangle},
	{rl.KeyFour, components.ShapeLine},
}

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.tool.Paused = !g.tool.Paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > MinStepsPerUpdate {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < MaxStepsPerUpdate {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if key := rl.GetKeyPressed(); key != 0 {
		if id, on, ok := g.overlays.HandleKeyPress(key); ok {
			slog.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}

	if rl.IsKeyPressed(rl.KeyS) {
		g.saveCheckpoint("manual")
	}

	g.handleToolInput()
	g.handleCameraInput()
}

// handleToolInput applies the wound tool on left click and seeds a cell on
// right click. Clicks over the tool panel belong to the panel.
func (g *Game) handleToolInput() {
	for _, sk := range shapeKeys {
		if rl.IsKeyPressed(sk.key) {
			g.tool.Shape = sk.shape
		}
	}
	if rl.IsKeyPressed(rl.KeyLeftBracket) {
		g.tool.SizeUM = max(g.tool.SizeUM/1.25, ui.MinToolSizeUM)
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		g.tool.SizeUM = min(g.tool.SizeUM*1.25, ui.MaxToolSizeUM)
	}

	mouse := rl.GetMousePosition()
	if g.tools.Contains(mouse) {
		return
	}
	x, y := g.camera.ScreenToWorld(mouse.X, mouse.Y)
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		size := g.tool.SizeUM * float32(1/g.cfg.Derived.UMPerUnit)
		removed := g.sim.Wound(x, y, size, g.tool.Shape)
		slog.Info("wound applied",
			"step", g.sim.StepCount(),
			"shape", g.tool.Shape.String(),
			"x", x, "y", y,
			"size_um", g.tool.SizeUM,
			"cells_removed", removed.Cells,
			"ecm_removed", removed.ECM,
		)
		g.recordWound(y, removed)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		if !g.sim.Seed(x, y) {
			slog.Warn("seed rejected", "x", x, "y", y, "cells", g.sim.Fibroblasts.Count())
		}
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := g.screenSize()
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.perfPanel.SetPosition(int32(w)-270, 10)
	g.tools.SetPosition(w-310, h-140)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	const panSpeed = 8 // screen pixels per frame

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
