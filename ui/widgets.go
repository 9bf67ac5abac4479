package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer draws themed widgets. Row widgets take their top-left corner
// and return the Y position of the next row.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.Panel)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.Edge)
}

// DrawSectionHeader draws a section title.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.TitleFont, r.Theme.Heading)
	return y + r.Theme.Line
}

// DrawLabelValue draws a dim label with its value in the value column.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label, x, y, r.Theme.Font, r.Theme.Dim)
	rl.DrawText(value, x+r.Theme.Column, y, r.Theme.Font, r.Theme.Text)
	return y + r.Theme.Line
}

// DrawBar draws a progress bar for [0, 1] values. Fractions above
// highAt are drawn in the warning fill.
func (r *Renderer) DrawBar(x, y int32, label string, value, highAt float32, width int32) int32 {
	value = clampUnit(value)

	barX := x + r.Theme.Column
	barWidth := width - r.Theme.Column - 50

	rl.DrawText(label, x, y, r.Theme.Font, r.Theme.Dim)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarH, r.Theme.Track)

	fill := r.Theme.Fill
	if value > highAt {
		fill = r.Theme.Hot
	}
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*value), r.Theme.BarH, fill)

	rl.DrawText(fmt.Sprintf("%.0f%%", value*100), barX+barWidth+5, y, r.Theme.Font, r.Theme.Text)

	return y + r.Theme.Line + 2
}

// DrawSlider draws a labelled raygui slider and also returns the value
// after user interaction.
func (r *Renderer) DrawSlider(x, y int32, sd SliderDescriptor, value float32, width int32) (int32, float32) {
	rl.DrawText(sd.Label, x, y, r.Theme.Font, r.Theme.Dim)
	rl.DrawText(fmt.Sprintf(sd.Format, value), x+r.Theme.Column, y, r.Theme.Font, r.Theme.Text)
	y += r.Theme.Line

	bounds := rl.Rectangle{
		X:      float32(x),
		Y:      float32(y),
		Width:  float32(width),
		Height: float32(r.Theme.SliderH),
	}
	next := gui.SliderBar(bounds, "", "", value, sd.Min, sd.Max)
	return y + r.Theme.SliderH + 6, next
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
