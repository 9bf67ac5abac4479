package mpm

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
)

// Turbulence is a smooth vector noise field over (position, time).
//
// Each component is an independent 4-D simplex noise channel. The result is
// a pseudo-curl approximation only; it is not divergence-free. Sample is a
// pure function of its arguments once the field is constructed.
type Turbulence struct {
	noise opensimplex.Noise32
	scale float32
}

// channel offsets decorrelate the three components.
var turbulenceOffsets = [3]mgl32.Vec3{
	{0, 0, 0},
	{31.416, 47.853, 12.793},
	{-19.182, 73.156, -52.761},
}

// NewTurbulence builds a field with spatial frequency scale (per grid cell).
func NewTurbulence(seed int64, scale float32) *Turbulence {
	return &Turbulence{
		noise: opensimplex.New32(seed),
		scale: scale,
	}
}

// Sample returns the field vector at p and time t, each component in
// roughly [-1, 1].
func (f *Turbulence) Sample(p mgl32.Vec3, t float32) mgl32.Vec3 {
	q := p.Mul(f.scale)
	var out mgl32.Vec3
	for c := 0; c < 3; c++ {
		o := turbulenceOffsets[c]
		out[c] = f.noise.Eval4(q[0]+o[0], q[1]+o[1], q[2]+o[2], t)
	}
	return out
}

// TurbulenceParams scale the field per frame.
type TurbulenceParams struct {
	Amplitude float32
	Speed     float32
}

// Pointer is a ray-based interaction, all vectors in grid units.
type Pointer struct {
	Active    bool
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // unit length
	Target    mgl32.Vec3
	Radius    float32
	Strength  float32 // >0 attracts toward Target, <0 repels
}

// Accel returns the pointer acceleration on a particle at pos. The magnitude
// falls off as (1 - d/Radius)^2 with d the distance from pos to the ray.
func (p Pointer) Accel(pos mgl32.Vec3) mgl32.Vec3 {
	if !p.Active || p.Radius <= 0 {
		return mgl32.Vec3{}
	}
	rel := pos.Sub(p.Origin)
	t := rel.Dot(p.Direction)
	if t < 0 {
		t = 0
	}
	d := rel.Sub(p.Direction.Mul(t)).Len()
	falloff := 1 - d/p.Radius
	if falloff <= 0 {
		return mgl32.Vec3{}
	}
	falloff *= falloff

	to := p.Target.Sub(pos)
	l := to.Len()
	if l < 1e-5 {
		return mgl32.Vec3{}
	}
	return to.Mul(p.Strength * falloff / l)
}
