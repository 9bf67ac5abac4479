package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flow/mpm"
)

func TestSetActiveCount(t *testing.T) {
	s := newTestSim(t, testConfig())
	capacity := s.MaxParticles()

	tests := []struct {
		n       int
		wantErr bool
	}{
		{0, false},
		{capacity / 2, false},
		{capacity, false},
		{-1, true},
		{capacity + 1, true},
	}
	for _, tt := range tests {
		err := s.SetActiveCount(tt.n)
		if tt.wantErr {
			if !errors.Is(err, ErrActiveCount) {
				t.Errorf("SetActiveCount(%d) = %v, want ErrActiveCount", tt.n, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("SetActiveCount(%d): %v", tt.n, err)
		}
		if got := s.ActiveCount(); got != tt.n {
			t.Errorf("ActiveCount() = %d, want %d", got, tt.n)
		}
	}
}

func TestSetMaterialValidation(t *testing.T) {
	s := newTestSim(t, testConfig())

	tests := []struct {
		name string
		m    mpm.Material
		want []error
	}{
		{"valid", mpm.Material{Stiffness: 5, RestDensity: 2, DynamicViscosity: 0.2}, nil},
		{"negative rest density", mpm.Material{Stiffness: 5, RestDensity: -1}, []error{ErrMaterial, ErrRestDensity}},
		{"zero rest density", mpm.Material{Stiffness: 5}, []error{ErrMaterial, ErrRestDensity}},
		{"negative stiffness", mpm.Material{Stiffness: -1, RestDensity: 1}, []error{ErrMaterial}},
		{"nan viscosity", mpm.Material{RestDensity: 1, DynamicViscosity: float32(math.NaN())}, []error{ErrMaterial}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Material()
			err := s.SetMaterial(tt.m)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("SetMaterial: %v", err)
				}
				if got := s.Material(); got != tt.m {
					t.Errorf("Material() = %+v, want %+v", got, tt.m)
				}
				return
			}
			for _, target := range tt.want {
				if !errors.Is(err, target) {
					t.Errorf("SetMaterial = %v, want %v", err, target)
				}
			}
			if got := s.Material(); got != before {
				t.Errorf("rejected material was applied: %+v", got)
			}
		})
	}
}

func TestSetTimeScaleAndTurbulence(t *testing.T) {
	s := newTestSim(t, testConfig())

	for _, v := range []float64{-0.5, math.NaN(), math.Inf(1)} {
		if err := s.SetTimeScale(v); !errors.Is(err, ErrTimeScale) {
			t.Errorf("SetTimeScale(%v) = %v, want ErrTimeScale", v, err)
		}
	}
	if err := s.SetTimeScale(2); err != nil {
		t.Fatal(err)
	}
	if got := s.TimeScale(); got != 2 {
		t.Errorf("TimeScale() = %v, want 2", got)
	}

	if err := s.SetTurbulence(mpm.TurbulenceParams{Amplitude: -1}); !errors.Is(err, ErrTurbulence) {
		t.Errorf("negative amplitude = %v, want ErrTurbulence", err)
	}
	want := mpm.TurbulenceParams{Amplitude: 0.4, Speed: 1.5}
	if err := s.SetTurbulence(want); err != nil {
		t.Fatal(err)
	}
	if got := s.Turbulence(); got != want {
		t.Errorf("Turbulence() = %+v, want %+v", got, want)
	}
}

func TestGravityControls(t *testing.T) {
	s := newTestSim(t, testConfig())

	if err := s.SetGravityMode(mpm.GravityCenter); err != nil {
		t.Fatal(err)
	}
	if got := s.GravityMode(); got != mpm.GravityCenter {
		t.Errorf("GravityMode() = %v, want center", got)
	}
	if err := s.SetGravityMode(mpm.GravityMode(42)); !errors.Is(err, ErrGravityMode) {
		t.Errorf("SetGravityMode(42) = %v, want ErrGravityMode", err)
	}

	if err := s.SetDeviceGravity(r3.Vec{X: 1, Y: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}
	for _, v := range []r3.Vec{{X: math.NaN()}, {Y: -1e39}, {Z: math.Inf(1)}} {
		if err := s.SetDeviceGravity(v); !errors.Is(err, ErrDevice) {
			t.Errorf("SetDeviceGravity(%v) = %v, want ErrDevice", v, err)
		}
	}
	c := s.readControls()
	if c.gravity.Device != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("device gravity = %v, want last finite vector (1, 0, 0)", c.gravity.Device)
	}
}

func TestRejectsFloat32Overflow(t *testing.T) {
	s := newTestSim(t, testConfig())

	if err := s.SetTimeScale(1e39); !errors.Is(err, ErrTimeScale) {
		t.Errorf("SetTimeScale(1e39) = %v, want ErrTimeScale", err)
	}
	if got := s.TimeScale(); math.IsInf(got, 0) {
		t.Errorf("TimeScale() = %v after rejected overflow", got)
	}
	if err := s.SetTurbulence(mpm.TurbulenceParams{Amplitude: float32(math.Inf(1))}); !errors.Is(err, ErrTurbulence) {
		t.Errorf("infinite amplitude = %v, want ErrTurbulence", err)
	}
}

func TestPointerRejectsNonFinite(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name                      string
		origin, direction, target r3.Vec
	}{
		{"nan origin", r3.Vec{X: nan}, r3.Vec{Z: 1}, r3.Vec{}},
		{"nan direction", r3.Vec{}, r3.Vec{Y: nan}, r3.Vec{}},
		{"overflowing target", r3.Vec{}, r3.Vec{Z: 1}, r3.Vec{X: 1e39}},
		{"infinite direction", r3.Vec{}, r3.Vec{Z: math.Inf(1)}, r3.Vec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, testConfig())
			if err := s.PointerInteraction(tt.origin, tt.direction, tt.target); !errors.Is(err, ErrPointer) {
				t.Errorf("PointerInteraction = %v, want ErrPointer", err)
			}
			if s.readControls().pointer.Active {
				t.Error("rejected pointer became active")
			}
		})
	}
}

func TestPointerPersistence(t *testing.T) {
	tests := []struct {
		name    string
		persist bool
	}{
		{"persistent", true},
		{"per frame", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Pointer.Persist = tt.persist
			s := newTestSim(t, cfg)

			if err := s.PointerInteraction(r3.Vec{Z: -1}, r3.Vec{Z: 2}, r3.Vec{}); err != nil {
				t.Fatal(err)
			}
			first := s.readControls().pointer
			if !first.Active {
				t.Fatal("pointer inactive on first frame")
			}
			if l := first.Direction.Len(); math.Abs(float64(l-1)) > 1e-6 {
				t.Errorf("direction length = %v, want 1", l)
			}
			if second := s.readControls().pointer; second.Active != tt.persist {
				t.Errorf("second frame active = %v, want %v", second.Active, tt.persist)
			}

			s.ClearPointer()
			if s.readControls().pointer.Active {
				t.Error("pointer active after ClearPointer")
			}
		})
	}
}

func TestWorldGridTransform(t *testing.T) {
	cfg := testConfig()
	s := newTestSim(t, cfg)
	half := float32(cfg.Domain.GridSize) / 2

	if got := s.WorldToGrid(r3.Vec{}); got.Sub(mgl32.Vec3{half, half, half}).Len() > 1e-5 {
		t.Errorf("WorldToGrid(origin) = %v, want center (%v, %v, %v)", got, half, half, half)
	}
	corner := r3.Vec{X: -cfg.Domain.WorldSize / 2, Y: -cfg.Domain.WorldSize / 2, Z: -cfg.Domain.WorldSize / 2}
	if got := s.WorldToGrid(corner); got.Len() > 1e-5 {
		t.Errorf("WorldToGrid(corner) = %v, want 0", got)
	}

	g := mgl32.Vec3{3.5, 10.25, 28}
	back := s.WorldToGrid(s.GridToWorld(g))
	if back.Sub(g).Len() > 1e-4 {
		t.Errorf("round trip %v -> %v", g, back)
	}
}
