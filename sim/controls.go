package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flow/mpm"
)

// Configuration errors rejected at the control surface before a frame runs.
var (
	ErrActiveCount = errors.New("active particle count out of range")
	ErrTimeScale   = errors.New("time scale must be finite and non-negative")
	ErrDelta       = errors.New("delta time must be finite and non-negative")
	ErrMaterial    = errors.New("invalid material parameters")
	ErrRestDensity = errors.New("rest density must be positive")
	ErrTurbulence  = errors.New("invalid turbulence parameters")
	ErrGravityMode = errors.New("invalid gravity mode")
	ErrDevice      = errors.New("device gravity must be finite")
	ErrPointer     = errors.New("pointer ray and target must be finite")
	ErrSnapshot    = errors.New("snapshot does not fit this simulator")
)

// controls is the externally mutable state. It is copied once at the start
// of every frame.
type controls struct {
	active     int
	timeScale  float32
	gravity    mpm.Gravity
	material   mpm.Material
	turbulence mpm.TurbulenceParams
	pointer    mpm.Pointer
}

func validFloat(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// valid32 reports whether v stays finite once narrowed to float32.
func valid32(v float64) bool {
	return validFloat(v) && validFloat(float64(float32(v)))
}

func validVec3(v mgl32.Vec3) bool {
	return valid32(float64(v[0])) && valid32(float64(v[1])) && valid32(float64(v[2]))
}

// SetActiveCount sets how many particles, from the front of the store,
// take part in the next frame.
func (s *Simulator) SetActiveCount(n int) error {
	if n < 0 || n > len(s.particles) {
		slog.Warn("rejected active count", "count", n, "max", len(s.particles))
		return fmt.Errorf("%w: %d not in [0, %d]", ErrActiveCount, n, len(s.particles))
	}
	s.mu.Lock()
	s.controls.active = n
	s.mu.Unlock()
	return nil
}

// ActiveCount returns the requested active particle count.
func (s *Simulator) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls.active
}

// MaxParticles returns the particle store capacity.
func (s *Simulator) MaxParticles() int {
	return len(s.particles)
}

// SetTimeScale sets the per-frame timestep multiplier.
func (s *Simulator) SetTimeScale(scale float64) error {
	if !valid32(scale) || scale < 0 {
		return fmt.Errorf("%w: %v", ErrTimeScale, scale)
	}
	s.mu.Lock()
	s.controls.timeScale = float32(scale)
	s.mu.Unlock()
	return nil
}

// TimeScale returns the current timestep multiplier.
func (s *Simulator) TimeScale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.controls.timeScale)
}

// SetGravityMode selects the gravity field.
func (s *Simulator) SetGravityMode(mode mpm.GravityMode) error {
	if mode > mpm.GravityDevice {
		return fmt.Errorf("%w: %v", ErrGravityMode, mode)
	}
	s.mu.Lock()
	s.controls.gravity.Mode = mode
	s.mu.Unlock()
	return nil
}

// GravityMode returns the selected gravity field.
func (s *Simulator) GravityMode() mpm.GravityMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls.gravity.Mode
}

// SetDeviceGravity records the latest sensor vector used by
// mpm.GravityDevice. A vector that is not finite in float32 is rejected
// and the previous one kept.
func (s *Simulator) SetDeviceGravity(v r3.Vec) error {
	dev := toVec3(v)
	if !validVec3(dev) {
		return fmt.Errorf("%w: %v", ErrDevice, v)
	}
	s.mu.Lock()
	s.controls.gravity.Device = dev
	s.mu.Unlock()
	return nil
}

// SetMaterial replaces the constitutive parameters.
func (s *Simulator) SetMaterial(m mpm.Material) error {
	if !valid32(float64(m.RestDensity)) || m.RestDensity <= 0 {
		slog.Warn("rejected material", "rest_density", m.RestDensity)
		return fmt.Errorf("%w: %w: %v", ErrMaterial, ErrRestDensity, m.RestDensity)
	}
	ok := valid32(float64(m.Stiffness)) && valid32(float64(m.DynamicViscosity))
	if !ok || m.Stiffness < 0 || m.DynamicViscosity < 0 {
		slog.Warn("rejected material", "stiffness", m.Stiffness, "dynamic_viscosity", m.DynamicViscosity)
		return fmt.Errorf("%w: %+v", ErrMaterial, m)
	}
	s.mu.Lock()
	s.controls.material = m
	s.mu.Unlock()
	return nil
}

// Material returns the current constitutive parameters.
func (s *Simulator) Material() mpm.Material {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls.material
}

// SetTurbulence replaces the turbulence amplitude and speed.
func (s *Simulator) SetTurbulence(t mpm.TurbulenceParams) error {
	ok := valid32(float64(t.Amplitude)) && valid32(float64(t.Speed))
	if !ok || t.Amplitude < 0 || t.Speed < 0 {
		return fmt.Errorf("%w: %+v", ErrTurbulence, t)
	}
	s.mu.Lock()
	s.controls.turbulence = t
	s.mu.Unlock()
	return nil
}

// Turbulence returns the current turbulence parameters.
func (s *Simulator) Turbulence() mpm.TurbulenceParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls.turbulence
}

// PointerInteraction sets the interaction ray and target, all in world
// space. The pointer stays in effect until ClearPointer unless
// pointer.persist is off, in which case it applies to the next frame only.
// A ray or target that is not finite in grid units is rejected and the
// previous pointer kept.
func (s *Simulator) PointerInteraction(origin, direction, target r3.Vec) error {
	if n := r3.Norm(direction); n > 0 && validFloat(n) {
		direction = r3.Unit(direction)
	}
	p := mpm.Pointer{
		Active:    true,
		Origin:    s.WorldToGrid(origin),
		Direction: toVec3(direction),
		Target:    s.WorldToGrid(target),
		Radius:    float32(s.cfg.Pointer.Radius),
		Strength:  float32(s.cfg.Pointer.Strength),
	}
	if !validVec3(p.Origin) || !validVec3(p.Direction) || !validVec3(p.Target) {
		slog.Warn("rejected pointer", "origin", origin, "direction", direction, "target", target)
		return fmt.Errorf("%w: origin %v direction %v target %v", ErrPointer, origin, direction, target)
	}
	s.mu.Lock()
	s.controls.pointer = p
	s.mu.Unlock()
	return nil
}

// ClearPointer removes the pointer interaction.
func (s *Simulator) ClearPointer() {
	s.mu.Lock()
	s.controls.pointer = mpm.Pointer{}
	s.mu.Unlock()
}

// readControls copies the controls for one frame and expires a
// non-persistent pointer.
func (s *Simulator) readControls() controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.controls
	if !s.cfg.Pointer.Persist {
		s.controls.pointer = mpm.Pointer{}
	}
	return c
}

// WorldToGrid converts a world-space point to grid units.
func (s *Simulator) WorldToGrid(w r3.Vec) mgl32.Vec3 {
	d := s.cfg.Derived
	g := r3.Scale(1/float64(d.CellWorldSize), r3.Sub(w, r3.Vec{X: float64(d.WorldOrigin), Y: float64(d.WorldOrigin), Z: float64(d.WorldOrigin)}))
	return toVec3(g)
}

// GridToWorld converts a point in grid units to world space.
func (s *Simulator) GridToWorld(g mgl32.Vec3) r3.Vec {
	d := s.cfg.Derived
	o := float64(d.WorldOrigin)
	return r3.Add(r3.Scale(float64(d.CellWorldSize), toR3(g)), r3.Vec{X: o, Y: o, Z: o})
}

func toVec3(v r3.Vec) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func toR3(v mgl32.Vec3) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}
