// Package camera provides an orbit camera around the simulation domain.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera orbits a target point at a given distance. Angles are in radians.
type Camera struct {
	// Target is the orbit center in world coordinates
	Target mgl32.Vec3

	// Yaw rotates around the world Y axis, Pitch tilts above the XZ plane
	Yaw, Pitch float32

	// Distance from target to eye
	Distance float32

	// Vertical field of view in degrees
	FovY float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Distance constraints
	MinDistance, MaxDistance float32

	defaultDistance float32
}

const (
	maxPitch  = math.Pi/2 - 0.01
	orbitRate = 0.005 // radians per pixel
	nearPlane = 0.01
	farPlane  = 100
)

// New creates a camera looking at the center of a world cube of edge
// worldSize from a slight elevation.
func New(viewportW, viewportH, worldSize float32) *Camera {
	d := worldSize * 2
	return &Camera{
		Yaw:             0.6,
		Pitch:           0.35,
		Distance:        d,
		FovY:            45,
		ViewportW:       viewportW,
		ViewportH:       viewportH,
		MinDistance:     worldSize * 0.5,
		MaxDistance:     worldSize * 8,
		defaultDistance: d,
	}
}

// Position returns the eye position in world coordinates.
func (c *Camera) Position() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	offset := mgl32.Vec3{
		cp * float32(math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		cp * float32(math.Cos(float64(c.Yaw))),
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

// Up returns the camera up vector.
func (c *Camera) Up() mgl32.Vec3 {
	return mgl32.Vec3{0, 1, 0}
}

// View returns the world-to-eye transform.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, c.Up())
}

// Projection returns the perspective projection for the viewport.
func (c *Camera) Projection() mgl32.Mat4 {
	aspect := float32(1)
	if c.ViewportH > 0 {
		aspect = c.ViewportW / c.ViewportH
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, nearPlane, farPlane)
}

// Orbit rotates the camera by a mouse drag of (dx, dy) pixels.
func (c *Camera) Orbit(dx, dy float32) {
	c.Yaw -= dx * orbitRate
	c.Pitch = clamp(c.Pitch+dy*orbitRate, -maxPitch, maxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float32) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the distance by factor, so factors above 1 move closer.
func (c *Camera) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to the default orientation and distance.
func (c *Camera) Reset() {
	c.Yaw = 0.6
	c.Pitch = 0.35
	c.Distance = c.defaultDistance
}

// ScreenRay returns the world-space ray through screen pixel (sx, sy).
// The direction is unit length.
func (c *Camera) ScreenRay(sx, sy float32) (origin, dir mgl32.Vec3) {
	nx := 2*sx/c.ViewportW - 1
	ny := 1 - 2*sy/c.ViewportH
	inv := c.Projection().Mul4(c.View()).Inv()

	near := inv.Mul4x1(mgl32.Vec4{nx, ny, -1, 1})
	far := inv.Mul4x1(mgl32.Vec4{nx, ny, 1, 1})
	n := near.Vec3().Mul(1 / near.W())
	f := far.Vec3().Mul(1 / far.W())
	return c.Position(), f.Sub(n).Normalize()
}

// RayBox intersects a ray with an axis-aligned box and returns the distance
// along dir to the first hit. A ray starting inside the box hits at 0.
func RayBox(origin, dir, lo, hi mgl32.Vec3) (float32, bool) {
	tmin := float32(math.Inf(-1))
	tmax := float32(math.Inf(1))
	for a := 0; a < 3; a++ {
		if absf(dir[a]) < 1e-9 {
			if origin[a] < lo[a] || origin[a] > hi[a] {
				return 0, false
			}
			continue
		}
		t1 := (lo[a] - origin[a]) / dir[a]
		t2 := (hi[a] - origin[a]) / dir[a]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}
	if tmax < 0 || tmin > tmax {
		return 0, false
	}
	return max(tmin, 0), true
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
