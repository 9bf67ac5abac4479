package mpm

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTurbulenceIsPure(t *testing.T) {
	a := NewTurbulence(7, 0.06)
	b := NewTurbulence(7, 0.06)
	p := mgl32.Vec3{12.5, 40.25, 3}

	first := a.Sample(p, 1.5)
	if again := a.Sample(p, 1.5); again != first {
		t.Errorf("repeated sample = %v, want %v", again, first)
	}
	if other := b.Sample(p, 1.5); other != first {
		t.Errorf("same-seed field sample = %v, want %v", other, first)
	}
	if later := a.Sample(p, 9.5); later == first {
		t.Error("field did not change over time")
	}
	for c := 0; c < 3; c++ {
		if first[c] < -1.5 || first[c] > 1.5 {
			t.Errorf("component %d = %v out of expected range", c, first[c])
		}
	}
}

func TestTurbulenceComponentsDiffer(t *testing.T) {
	f := NewTurbulence(3, 0.1)
	v := f.Sample(mgl32.Vec3{20, 20, 20}, 0.3)
	if v[0] == v[1] && v[1] == v[2] {
		t.Errorf("components identical: %v", v)
	}
}

func TestPointerAccel(t *testing.T) {
	ptr := Pointer{
		Active:    true,
		Origin:    mgl32.Vec3{0, 10, 10},
		Direction: mgl32.Vec3{1, 0, 0},
		Target:    mgl32.Vec3{20, 10, 10},
		Radius:    4,
		Strength:  2,
	}

	tests := []struct {
		name    string
		pos     mgl32.Vec3
		wantLen float32
	}{
		{"on ray", mgl32.Vec3{10, 10, 10}, 2},
		{"half radius", mgl32.Vec3{10, 12, 10}, 2 * 0.25},
		{"outside radius", mgl32.Vec3{10, 15, 10}, 0},
		{"at target", mgl32.Vec3{20, 10, 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ptr.Accel(tt.pos).Len()
			if d := got - tt.wantLen; d > 1e-4 || d < -1e-4 {
				t.Errorf("|Accel(%v)| = %v, want %v", tt.pos, got, tt.wantLen)
			}
		})
	}

	// attraction points at the target
	a := ptr.Accel(mgl32.Vec3{10, 10, 10})
	if a[0] <= 0 {
		t.Errorf("attraction x = %v, want > 0", a[0])
	}

	ptr.Strength = -2
	if r := ptr.Accel(mgl32.Vec3{10, 10, 10}); r[0] >= 0 {
		t.Errorf("repulsion x = %v, want < 0", r[0])
	}

	ptr.Active = false
	if r := ptr.Accel(mgl32.Vec3{10, 10, 10}); r != (mgl32.Vec3{}) {
		t.Errorf("inactive pointer accel = %v, want zero", r)
	}
}
