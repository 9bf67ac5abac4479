package mpm

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mazznoer/colorgrad"
)

const paletteSize = 256

var palettes = map[string]func() colorgrad.Gradient{
	"viridis":  colorgrad.Viridis,
	"turbo":    colorgrad.Turbo,
	"plasma":   colorgrad.Plasma,
	"inferno":  colorgrad.Inferno,
	"magma":    colorgrad.Magma,
	"cividis":  colorgrad.Cividis,
	"cool":     colorgrad.Cool,
	"warm":     colorgrad.Warm,
	"spectral": colorgrad.Spectral,
	"sinebow":  colorgrad.Sinebow,
}

// PaletteNames lists the accepted palette names.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Palette is a precomputed color lookup table.
type Palette struct {
	lut [paletteSize]mgl32.Vec3
}

// NewPalette samples the named gradient into a lookup table.
func NewPalette(name string) (*Palette, error) {
	mk, ok := palettes[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q", name)
	}
	grad := mk()
	p := &Palette{}
	for i := range p.lut {
		c := grad.At(float64(i) / (paletteSize - 1))
		p.lut[i] = mgl32.Vec3{
			clamp32(float32(c.R), 0, 1),
			clamp32(float32(c.G), 0, 1),
			clamp32(float32(c.B), 0, 1),
		}
	}
	return p, nil
}

// At returns the color at t, clamped to [0, 1].
func (p *Palette) At(t float32) mgl32.Vec3 {
	if p == nil {
		return mgl32.Vec3{1, 1, 1}
	}
	if !finite32(t) {
		t = 0
	}
	i := int(clamp32(t, 0, 1) * (paletteSize - 1))
	return p.lut[i]
}
