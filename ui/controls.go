package ui

import (
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flow/mpm"
)

// Controls is the simulator control surface driven by the panel.
type Controls interface {
	ActiveCount() int
	MaxParticles() int
	SetActiveCount(n int) error
	TimeScale() float64
	SetTimeScale(scale float64) error
	Material() mpm.Material
	SetMaterial(m mpm.Material) error
	Turbulence() mpm.TurbulenceParams
	SetTurbulence(t mpm.TurbulenceParams) error
	GravityMode() mpm.GravityMode
	SetGravityMode(mode mpm.GravityMode) error
}

var gravityModes = []mpm.GravityMode{mpm.GravityBack, mpm.GravityDown, mpm.GravityCenter, mpm.GravityDevice}

// ControlsPanel renders the simulation parameter sliders and the gravity
// mode selector.
type ControlsPanel struct {
	renderer *Renderer
	sections []SectionDescriptor
	anchor   PanelAnchor
	width    int32
	visible  bool

	// bounds of the last drawn frame, for input hit tests
	bounds rl.Rectangle
}

// NewControlsPanel creates a panel bound to c.
func NewControlsPanel(c Controls, width int32, anchor PanelAnchor) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		sections: controlSections(c),
		anchor:   anchor,
		width:    width,
		visible:  true,
	}
}

func controlSections(c Controls) []SectionDescriptor {
	setMaterial := func(edit func(m *mpm.Material, v float32)) func(float32) error {
		return func(v float32) error {
			m := c.Material()
			edit(&m, v)
			return c.SetMaterial(m)
		}
	}
	setTurbulence := func(edit func(t *mpm.TurbulenceParams, v float32)) func(float32) error {
		return func(v float32) error {
			t := c.Turbulence()
			edit(&t, v)
			return c.SetTurbulence(t)
		}
	}

	return []SectionDescriptor{
		{
			ID:    "time",
			Title: "Time",
			Sliders: []SliderDescriptor{
				{
					ID: "time_scale", Label: "Time scale", Format: "%.2f", Min: 0, Max: 3,
					Get: func() float32 { return float32(c.TimeScale()) },
					Set: func(v float32) error { return c.SetTimeScale(float64(v)) },
				},
				{
					ID: "active", Label: "Particles", Format: "%.0f", Min: 0, Max: float32(c.MaxParticles()),
					Get: func() float32 { return float32(c.ActiveCount()) },
					Set: func(v float32) error { return c.SetActiveCount(int(v + 0.5)) },
				},
			},
		},
		{
			ID:    "material",
			Title: "Material",
			Sliders: []SliderDescriptor{
				{
					ID: "stiffness", Label: "Stiffness", Format: "%.2f", Min: 0, Max: 20,
					Get: func() float32 { return c.Material().Stiffness },
					Set: setMaterial(func(m *mpm.Material, v float32) { m.Stiffness = v }),
				},
				{
					ID: "rest_density", Label: "Rest density", Format: "%.2f", Min: 0.1, Max: 8,
					Get: func() float32 { return c.Material().RestDensity },
					Set: setMaterial(func(m *mpm.Material, v float32) { m.RestDensity = v }),
				},
				{
					ID: "viscosity", Label: "Viscosity", Format: "%.3f", Min: 0, Max: 1,
					Get: func() float32 { return c.Material().DynamicViscosity },
					Set: setMaterial(func(m *mpm.Material, v float32) { m.DynamicViscosity = v }),
				},
			},
		},
		{
			ID:    "turbulence",
			Title: "Turbulence",
			Sliders: []SliderDescriptor{
				{
					ID: "amplitude", Label: "Amplitude", Format: "%.2f", Min: 0, Max: 2,
					Get: func() float32 { return c.Turbulence().Amplitude },
					Set: setTurbulence(func(t *mpm.TurbulenceParams, v float32) { t.Amplitude = v }),
				},
				{
					ID: "speed", Label: "Speed", Format: "%.2f", Min: 0, Max: 3,
					Get: func() float32 { return c.Turbulence().Speed },
					Set: setTurbulence(func(t *mpm.TurbulenceParams, v float32) { t.Speed = v }),
				},
			},
		},
	}
}

// Toggle switches panel visibility.
func (p *ControlsPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// IsVisible returns whether the panel is shown.
func (p *ControlsPanel) IsVisible() bool {
	return p.visible
}

// Contains reports whether a screen point lies over the panel drawn last
// frame.
func (p *ControlsPanel) Contains(x, y float32) bool {
	return p.visible && rl.CheckCollisionPointRec(rl.Vector2{X: x, Y: y}, p.bounds)
}

func (p *ControlsPanel) height() int32 {
	t := p.renderer.Theme
	h := t.Padding*2 + t.Line + 4
	for _, sec := range p.sections {
		h += t.Line
		h += int32(len(sec.Sliders)) * (t.Line + t.SliderH + 6)
		h += 4
	}
	// gravity selector
	h += t.Line + t.SliderH + 10
	return h
}

// Draw renders the panel and applies slider changes to c. It returns the
// number of changes c rejected.
func (p *ControlsPanel) Draw(c Controls, screenW, screenH int32) int {
	if !p.visible {
		p.bounds = rl.Rectangle{}
		return 0
	}

	r := p.renderer
	t := r.Theme
	h := p.height()
	x, y := anchorPosition(p.anchor, p.width, h, screenW, screenH, t.Padding)
	p.bounds = rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(p.width), Height: float32(h)}

	r.DrawPanel(x, y, p.width, h)
	inner := p.width - t.Padding*2
	x += t.Padding
	y += t.Padding

	rl.DrawText("Controls [Tab]", x, y, 16, rl.White)
	y += t.Line + 4

	rejects := 0
	for _, sec := range p.sections {
		y = r.DrawSectionHeader(x, y, sec.Title)
		for _, sd := range sec.Sliders {
			cur := sd.Get()
			var next float32
			y, next = r.DrawSlider(x, y, sd, cur, inner)
			if next != cur && sd.Set(next) != nil {
				rejects++
			}
		}
		y += 4
	}

	y = r.DrawSectionHeader(x, y, "Gravity")
	names := make([]string, len(gravityModes))
	for i, m := range gravityModes {
		names[i] = m.String()
	}
	itemW := float32(inner) / float32(len(gravityModes))
	cur := int32(c.GravityMode())
	next := gui.ToggleGroup(rl.Rectangle{X: float32(x), Y: float32(y), Width: itemW, Height: float32(t.SliderH + 4)}, strings.Join(names, ";"), cur)
	if next != cur && c.SetGravityMode(mpm.GravityMode(next)) != nil {
		rejects++
	}
	return rejects
}

// anchorPosition returns the top-left corner of a w x h panel.
func anchorPosition(a PanelAnchor, w, h, screenW, screenH, margin int32) (int32, int32) {
	switch a {
	case AnchorTopRight:
		return screenW - w - margin, margin
	case AnchorBottomLeft:
		return margin, screenH - h - margin
	case AnchorBottomRight:
		return screenW - w - margin, screenH - h - margin
	default:
		return margin, margin
	}
}
