package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flow/mpm"
	"github.com/pthm-cable/flow/ui"
)

const controlsLegend = "[Space] pause  [,/.] speed  [1-4] gravity  [LMB] push  [RMB] orbit  [S] snapshot  [Tab] panel  [P] perf  [V] direction"

// Draw renders the frame.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	g.background.Draw()

	info := g.sim.LastFrame()
	g.sim.View(func(ps []mpm.Particle) {
		g.particleRenderer.Draw(g.camera, ps, g.pointerTarget)
	})

	w, h := int32(g.screenWidth), int32(g.screenHeight)
	g.hud.Draw(ui.HUDData{
		Title:          "Flow",
		Frame:          info.Frame,
		SimTime:        info.Time,
		Active:         info.Active,
		MaxParticles:   g.sim.MaxParticles(),
		Sanitized:      info.Sanitized,
		Gravity:        g.sim.GravityMode().String(),
		Speed:          g.stepsPerUpdate,
		FPS:            rl.GetFPS(),
		Paused:         g.paused,
		PointerActive:  g.pointerTarget != nil,
		SnapshotStatus: g.snapshotStatus,
	})
	g.hud.DrawControls(w, h, controlsLegend)

	for rejects := g.controls.Draw(g.sim, w, h); rejects > 0; rejects-- {
		g.collector.RecordControlReject()
	}
	if g.showPerf {
		g.perfPanel.Draw(g.perfCollector.Stats(), w, h)
	}

	rl.EndDrawing()
}
