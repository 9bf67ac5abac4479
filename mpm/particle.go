// Package mpm implements the MLS-MPM transfer kernels between a particle
// cloud and a fixed background grid.
//
// Every kernel works on an index range [start, end) so the caller can split
// a stage across workers. Kernels never spawn goroutines themselves and
// hold no state between calls; the grid is scratch space rebuilt each frame.
package mpm

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Particle is one material point. Positions are in grid units.
type Particle struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	// Affine is the APIC velocity-gradient approximation C.
	Affine mgl32.Mat3
	Mass   float32
	// Density is the smoothed local mass concentration sampled from the grid.
	Density float32
	// Direction is a temporally smoothed velocity, for rendering only.
	Direction mgl32.Vec3
	// Color is derived from speed, for rendering only.
	Color mgl32.Vec3
}

// Speed returns the particle's velocity magnitude.
func (p *Particle) Speed() float32 {
	return p.Velocity.Len()
}

// Finite reports whether velocity and affine state are free of NaN/Inf.
func (p *Particle) Finite() bool {
	for i := 0; i < 3; i++ {
		if !finite32(p.Velocity[i]) || !finite32(p.Position[i]) {
			return false
		}
	}
	for i := range p.Affine {
		if !finite32(p.Affine[i]) {
			return false
		}
	}
	return true
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// capLength scales v down so its length does not exceed limit.
func capLength(v mgl32.Vec3, limit float32) mgl32.Vec3 {
	l2 := v.Dot(v)
	if l2 <= limit*limit || l2 == 0 {
		return v
	}
	return v.Mul(limit / float32(math.Sqrt(float64(l2))))
}
