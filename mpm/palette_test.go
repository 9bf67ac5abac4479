package mpm

import (
	"math"
	"testing"

	"github.com/mazznoer/colorgrad"
)

func TestPaletteNamesAllLoad(t *testing.T) {
	for _, name := range PaletteNames() {
		p, err := NewPalette(name)
		if err != nil {
			t.Fatalf("NewPalette(%q): %v", name, err)
		}
		for _, tv := range []float32{-1, 0, 0.5, 1, 2, float32(math.NaN())} {
			c := p.At(tv)
			for i := 0; i < 3; i++ {
				if c[i] < 0 || c[i] > 1 {
					t.Errorf("%s.At(%v) = %v, channel out of [0, 1]", name, tv, c)
				}
			}
		}
	}
}

func TestPaletteUnknown(t *testing.T) {
	if _, err := NewPalette("no-such-palette"); err == nil {
		t.Error("expected error for unknown palette")
	}
}

func TestPaletteEndsDiffer(t *testing.T) {
	p, err := NewPalette("viridis")
	if err != nil {
		t.Fatal(err)
	}
	if p.At(0) == p.At(1) {
		t.Error("palette start and end are identical")
	}
}

func TestPaletteSamplesGradientEnds(t *testing.T) {
	p, err := NewPalette("turbo")
	if err != nil {
		t.Fatal(err)
	}
	grad := colorgrad.Turbo()
	for _, tv := range []float64{0, 1} {
		want := grad.At(tv)
		got := p.At(float32(tv))
		if math.Abs(float64(got[0])-want.R) > 1e-3 || math.Abs(float64(got[1])-want.G) > 1e-3 || math.Abs(float64(got[2])-want.B) > 1e-3 {
			t.Errorf("At(%v) = %v, want (%.3f, %.3f, %.3f)", tv, got, want.R, want.G, want.B)
		}
	}
}
