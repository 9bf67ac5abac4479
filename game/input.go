package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flow/camera"
	"github.com/pthm-cable/flow/mpm"
)

var gravityKeys = map[int32]mpm.GravityMode{
	rl.KeyOne:   mpm.GravityBack,
	rl.KeyTwo:   mpm.GravityDown,
	rl.KeyThree: mpm.GravityCenter,
	rl.KeyFour:  mpm.GravityDevice,
}

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < maxStepsPerUpdate {
		g.stepsPerUpdate++
	}

	// Panels
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}
	if rl.IsKeyPressed(rl.KeyV) {
		g.particleRenderer.ShowDirection = !g.particleRenderer.ShowDirection
	}

	for key, mode := range gravityKeys {
		if rl.IsKeyPressed(key) {
			if err := g.sim.SetGravityMode(mode); err != nil {
				g.collector.RecordControlReject()
			}
		}
	}

	if rl.IsKeyPressed(rl.KeyS) {
		g.saveSnapshot("key")
	}

	g.handleCameraInput()
	g.handlePointerInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.background.Resize(int32(w), int32(h))
}

// handleCameraInput processes orbit and zoom controls.
func (g *Game) handleCameraInput() {
	// Right drag orbits
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.camera.Orbit(d.X, d.Y)
	}

	// Zoom controls: mouse wheel or +/- keys
	mouse := rl.GetMousePosition()
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 && !g.controls.Contains(mouse.X, mouse.Y) {
		g.camera.ZoomBy(1 + wheelMove*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// handlePointerInput maps a left drag over the domain onto the pointer
// interaction. Drags that start on the controls panel belong to raygui.
func (g *Game) handlePointerInput() {
	mouse := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.panelDrag = g.controls.Contains(mouse.X, mouse.Y)
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		g.panelDrag = false
		if g.pointerTarget != nil {
			g.sim.ClearPointer()
			g.pointerTarget = nil
		}
		return
	}
	if !rl.IsMouseButtonDown(rl.MouseButtonLeft) || g.panelDrag {
		return
	}

	origin, dir, target, ok := g.pointerRay(mouse.X, mouse.Y)
	if !ok {
		return
	}
	if err := g.sim.PointerInteraction(toR3(origin), toR3(dir), toR3(target)); err != nil {
		g.collector.RecordControlReject()
		return
	}
	g.pointerTarget = &target
}

// pointerRay casts the screen point into the domain box. The target is
// the point on the ray closest to the domain center, or the entry point
// when that lies behind it.
func (g *Game) pointerRay(sx, sy float32) (origin, dir, target mgl32.Vec3, ok bool) {
	half := float32(g.cfg.Domain.WorldSize / 2)
	origin, dir = g.camera.ScreenRay(sx, sy)
	t, hit := camera.RayBox(origin, dir, mgl32.Vec3{-half, -half, -half}, mgl32.Vec3{half, half, half})
	if !hit {
		return origin, dir, mgl32.Vec3{}, false
	}
	if tc := -origin.Dot(dir); tc > t {
		t = tc
	}
	return origin, dir, origin.Add(dir.Mul(t)), true
}

func toR3(v mgl32.Vec3) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}
