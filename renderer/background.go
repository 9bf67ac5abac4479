package renderer

import rl "github.com/gen2brain/raylib-go/raylib"

// BackgroundRenderer fills the screen with a vertical gradient behind the
// 3D scene.
type BackgroundRenderer struct {
	screenW, screenH int32
	top, bottom      rl.Color
}

// NewBackgroundRenderer creates a new background renderer.
func NewBackgroundRenderer(screenW, screenH int32) *BackgroundRenderer {
	return &BackgroundRenderer{
		screenW: screenW,
		screenH: screenH,
		top:     rl.Color{R: 18, G: 22, B: 30, A: 255},
		bottom:  rl.Color{R: 4, G: 5, B: 8, A: 255},
	}
}

// Resize updates the fill area.
func (b *BackgroundRenderer) Resize(screenW, screenH int32) {
	b.screenW = screenW
	b.screenH = screenH
}

// Draw renders the background.
func (b *BackgroundRenderer) Draw() {
	rl.DrawRectangleGradientV(0, 0, b.screenW, b.screenH, b.top, b.bottom)
}
