// Package ui provides a descriptor-driven UI for the viewer. Controls are
// defined through metadata bound to getters and setters, so a panel layout
// changes without touching the drawing code.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// SliderDescriptor defines one slider bound to a simulator control.
type SliderDescriptor struct {
	ID     string                // Unique identifier
	Label  string                // Display label
	Format string                // Printf format for the current value
	Min    float32               // Slider range
	Max    float32
	Get    func() float32        // Reads the current control value
	Set    func(v float32) error // Applies a new value; an error counts as a reject
}

// SectionDescriptor defines a group of sliders with a header.
type SectionDescriptor struct {
	ID      string
	Title   string
	Sliders []SliderDescriptor
}

// PanelAnchor specifies where a panel is anchored on screen.
type PanelAnchor int

const (
	AnchorTopLeft PanelAnchor = iota
	AnchorTopRight
	AnchorBottomLeft
	AnchorBottomRight
)

// Theme is the viewer's palette and spacing. Sizes are in pixels.
type Theme struct {
	Panel, Edge   rl.Color
	Heading, Text rl.Color
	Dim, Warn     rl.Color

	// Bars fill with Fill and switch to Hot past their threshold.
	Track, Fill, Hot rl.Color

	Padding   int32
	Line      int32
	Column    int32
	BarH      int32
	SliderH   int32
	Font      int32
	TitleFont int32
}

// DefaultTheme is a dark slate panel with water-blue accents.
func DefaultTheme() Theme {
	return Theme{
		Panel:     rl.Color{R: 14, G: 22, B: 32, A: 235},
		Edge:      rl.Color{R: 48, G: 74, B: 96, A: 255},
		Heading:   rl.Color{R: 120, G: 200, B: 240, A: 255},
		Text:      rl.Color{R: 210, G: 218, B: 226, A: 255},
		Dim:       rl.Color{R: 130, G: 140, B: 150, A: 255},
		Warn:      rl.Color{R: 240, G: 140, B: 70, A: 255},
		Track:     rl.Color{R: 30, G: 38, B: 48, A: 255},
		Fill:      rl.Color{R: 60, G: 150, B: 210, A: 255},
		Hot:       rl.Color{R: 220, G: 90, B: 80, A: 255},
		Padding:   10,
		Line:      16,
		Column:    90,
		BarH:      12,
		SliderH:   14,
		Font:      12,
		TitleFont: 14,
	}
}
