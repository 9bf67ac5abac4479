package mpm

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestParseGravityMode(t *testing.T) {
	for _, m := range []GravityMode{GravityBack, GravityDown, GravityCenter, GravityDevice} {
		got, err := ParseGravityMode(m.String())
		if err != nil {
			t.Fatalf("ParseGravityMode(%q): %v", m.String(), err)
		}
		if got != m {
			t.Errorf("ParseGravityMode(%q) = %v, want %v", m.String(), got, m)
		}
	}
	if _, err := ParseGravityMode("sideways"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestGravityAt(t *testing.T) {
	const size = 64
	tests := []struct {
		name string
		g    Gravity
		pos  mgl32.Vec3
		want mgl32.Vec3
	}{
		{"back", Gravity{Mode: GravityBack, Strength: 2}, mgl32.Vec3{5, 5, 5}, mgl32.Vec3{0, 0, -2}},
		{"down", Gravity{Mode: GravityDown, Strength: 2}, mgl32.Vec3{5, 5, 5}, mgl32.Vec3{0, -2, 0}},
		{"center from low corner", Gravity{Mode: GravityCenter, Strength: 1}, mgl32.Vec3{0, 32, 32}, mgl32.Vec3{1, 0, 0}},
		{"center at center", Gravity{Mode: GravityCenter, Strength: 1}, mgl32.Vec3{32, 32, 32}, mgl32.Vec3{}},
		{"device", Gravity{Mode: GravityDevice, Strength: 0.5, Device: mgl32.Vec3{1, -2, 0}}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0.5, -1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.g.At(tt.pos, size)
			if math.Abs(float64(got.Sub(tt.want).Len())) > 1e-5 {
				t.Errorf("At(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}
