package mpm

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func seedNode(g *Grid, x, y, z int, mass float32, momentum mgl32.Vec3) int {
	idx := g.Index(x, y, z)
	g.addMass(idx, mass)
	g.addMomentum(idx, momentum)
	return idx
}

func TestGridUpdateConvertsMomentumToVelocity(t *testing.T) {
	g := NewGrid(32)
	fp := testParams(0.1)
	idx := seedNode(g, 16, 16, 16, 2, mgl32.Vec3{1, -2, 4})

	GridUpdate(g, fp, 0, g.Len())

	want := mgl32.Vec3{0.5, -1, 2}
	if got := g.Velocity(idx); got.Sub(want).Len() > 1e-6 {
		t.Errorf("velocity = %v, want %v", got, want)
	}
}

func TestGridUpdateEmptyNodesHaveZeroVelocity(t *testing.T) {
	g := NewGrid(16)
	fp := testParams(0.1)
	fp.Gravity = Gravity{Mode: GravityDown, Strength: 5}
	// momentum without mass must not survive
	idx := seedNode(g, 8, 8, 8, 0, mgl32.Vec3{3, 3, 3})

	GridUpdate(g, fp, 0, g.Len())

	if v := g.Velocity(idx); v != (mgl32.Vec3{}) {
		t.Errorf("empty node velocity = %v, want zero", v)
	}
}

func TestGridUpdateAppliesGravity(t *testing.T) {
	g := NewGrid(32)
	fp := testParams(0.1)
	fp.Gravity = Gravity{Mode: GravityDown, Strength: 0.5}
	idx := seedNode(g, 16, 16, 16, 1, mgl32.Vec3{})

	GridUpdate(g, fp, 0, g.Len())

	got := g.Velocity(idx)
	if math.Abs(float64(got[1]+0.05)) > 1e-6 || got[0] != 0 || got[2] != 0 {
		t.Errorf("velocity = %v, want (0, -0.05, 0)", got)
	}
}

func TestGridUpdateWallRepulsion(t *testing.T) {
	const size = 32
	fp := testParams(0.1)

	tests := []struct {
		name     string
		x        int
		wantSign float32
	}{
		{"low wall", 1, 1},
		{"high wall", size - 2, -1},
		{"interior", size / 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(size)
			idx := seedNode(g, tt.x, size/2, size/2, 1, mgl32.Vec3{})
			GridUpdate(g, fp, 0, g.Len())
			vx := g.Velocity(idx)[0]
			switch {
			case tt.wantSign > 0 && vx <= 0,
				tt.wantSign < 0 && vx >= 0,
				tt.wantSign == 0 && vx != 0:
				t.Errorf("vx = %v, want sign %v", vx, tt.wantSign)
			}
		})
	}
}

func TestGridUpdateRepulsionGrowsWithPenetration(t *testing.T) {
	g := NewGrid(32)
	fp := testParams(0.1)
	shallow := seedNode(g, 2, 16, 16, 1, mgl32.Vec3{})
	deep := seedNode(g, 0, 16, 16, 1, mgl32.Vec3{})

	GridUpdate(g, fp, 0, g.Len())

	if s, d := g.Velocity(shallow)[0], g.Velocity(deep)[0]; d <= s {
		t.Errorf("deep push %v not greater than shallow push %v", d, s)
	}
}

func TestGridUpdateCapsSpeed(t *testing.T) {
	g := NewGrid(32)
	fp := testParams(0.1)
	idx := seedNode(g, 16, 16, 16, 1, mgl32.Vec3{1000, 0, 0})

	GridUpdate(g, fp, 0, g.Len())

	if got, limit := g.Velocity(idx).Len(), fp.MaxSpeed(); got > limit*1.0001 {
		t.Errorf("speed = %v, want <= %v", got, limit)
	}
}
