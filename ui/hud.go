package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flow/telemetry"
)

// HUDData is the per-frame state shown in the top-left overlay.
type HUDData struct {
	Title          string
	Frame          int64
	SimTime        float64
	Active         int
	MaxParticles   int
	Sanitized      int
	Gravity        string
	Speed          int
	FPS            int32
	Paused         bool
	PointerActive  bool
	SnapshotStatus string
}

// status is the run state line.
func (d HUDData) status() string {
	s := "running"
	if d.Paused {
		s = "paused"
	}
	if d.Speed > 1 {
		s += fmt.Sprintf(" x%d", d.Speed)
	}
	if d.PointerActive {
		s += " | pointer"
	}
	return s
}

// HUD draws the overlay text straight onto the frame, without a panel.
type HUD struct {
	renderer *Renderer
	margin   int32
}

func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer(), margin: 10}
}

// Draw stacks the overlay rows from the top-left corner down.
func (h *HUD) Draw(data HUDData) {
	t := h.renderer.Theme
	x, y := h.margin, h.margin
	line := func(text string, size int32, c rl.Color) {
		rl.DrawText(text, x, y, size, c)
		y += size + 4
	}

	line(data.Title, 20, rl.White)
	line(fmt.Sprintf("%d / %d particles, gravity %s", data.Active, data.MaxParticles, data.Gravity), 16, t.Text)
	line(fmt.Sprintf("frame %d  t=%.2fs  %d fps", data.Frame, data.SimTime, data.FPS), 16, t.Text)
	line(data.status(), 16, t.Heading)
	if data.Sanitized > 0 {
		line(fmt.Sprintf("reset %d non-finite particles", data.Sanitized), 14, t.Warn)
	}
	if data.SnapshotStatus != "" {
		line(data.SnapshotStatus, 14, t.Dim)
	}
}

// DrawControls prints the key legend along the bottom edge.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, legend string) {
	rl.DrawText(legend, h.margin, screenHeight-h.margin-14, 14, h.renderer.Theme.Dim)
}

// PerfPanel renders the per-stage timing breakdown.
type PerfPanel struct {
	renderer *Renderer
	anchor   PanelAnchor
	width    int32
}

func NewPerfPanel(width int32, anchor PanelAnchor) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), anchor: anchor, width: width}
}

// Draw shows step timing and each stage's share of the step. A stage
// above 40% of the step is drawn hot.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, screenW, screenH int32) {
	r := p.renderer
	t := r.Theme
	h := t.Padding*2 + t.Line*4 + int32(len(telemetry.Phases))*(t.Line+2)
	x, y := anchorPosition(p.anchor, p.width, h, screenW, screenH, t.Padding)

	r.DrawPanel(x, y, p.width, h)
	x += t.Padding
	y += t.Padding

	y = r.DrawSectionHeader(x, y, "Pipeline")
	y = r.DrawLabelValue(x, y, "Step", stats.AvgStep.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "Steps/s", fmt.Sprintf("%.0f", stats.StepsPerSecond))
	y = r.DrawLabelValue(x, y, "Slowest", stats.Slowest())

	for _, phase := range telemetry.Phases {
		y = r.DrawBar(x, y, phase, float32(stats.PhasePct[phase]/100), 0.4, p.width-t.Padding*2)
	}
}
