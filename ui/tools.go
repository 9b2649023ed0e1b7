package ui

import (
	"fmt"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fibro/components"
)

// Wound tool size limits in micrometres.
const (
	MinToolSizeUM = 50
	MaxToolSizeUM = 2000
)

// ToolState is the wound tool selection edited by the tool panel.
type ToolState struct {
	Shape  components.Shape
	SizeUM float32
	Paused bool
}

// ToolPanel draws the raygui controls for pausing and for the wound tool.
type ToolPanel struct {
	renderer *Renderer
	bounds   rl.Rectangle
	labels   string
}

// NewToolPanel creates a tool panel anchored at (x, y).
func NewToolPanel(x, y float32) *ToolPanel {
	return &ToolPanel{
		renderer: NewRenderer(),
		bounds:   rl.Rectangle{X: x, Y: y, Width: 300, Height: 128},
		labels:   strings.Join(components.ShapeNames(), ";"),
	}
}

// SetPosition moves the panel.
func (p *ToolPanel) SetPosition(x, y float32) {
	p.bounds.X = x
	p.bounds.Y = y
}

// Contains reports whether a screen point is over the panel, so clicks there
// are not treated as wounds.
func (p *ToolPanel) Contains(pt rl.Vector2) bool {
	return rl.CheckCollisionPointRec(pt, p.bounds)
}

// Draw renders the controls and returns the edited state.
func (p *ToolPanel) Draw(st ToolState) ToolState {
	b := p.bounds
	pad := float32(p.renderer.Theme.Padding)
	p.renderer.DrawPanel(int32(b.X), int32(b.Y), int32(b.Width), int32(b.Height))

	x := b.X + pad
	y := b.Y + pad
	w := b.Width - 2*pad

	label := "Pause"
	if st.Paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 90, Height: 24}, label) {
		st.Paused = !st.Paused
	}
	rl.DrawText("Wound tool", int32(x+100), int32(y+6), p.renderer.Theme.HeaderFontSize, p.renderer.Theme.SectionHeader)
	y += 32

	n := float32(len(components.ShapeNames()))
	itemW := (w - (n-1)*2) / n
	active := gui.ToggleGroup(rl.Rectangle{X: x, Y: y, Width: itemW, Height: 22}, p.labels, int32(st.Shape))
	if s := components.Shape(active); s.Valid() {
		st.Shape = s
	}
	y += 32

	st.SizeUM = gui.SliderBar(
		rl.Rectangle{X: x + 40, Y: y, Width: w - 120, Height: 20},
		"size", fmt.Sprintf("%.0f µm", st.SizeUM),
		st.SizeUM, MinToolSizeUM, MaxToolSizeUM,
	)
	return st
}
