package mpm

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// StencilWidth is the per-axis support of the quadratic B-spline kernel.
const StencilWidth = 3

// AffineScale is 4/dx^2 with dx = 1, the quadratic-kernel constant of the
// APIC velocity-gradient reconstruction.
const AffineScale = 4

// Stencil holds the 3x3x3 interpolation footprint of one particle.
type Stencil struct {
	Base [3]int
	W    [3][StencilWidth]float32
	// Frac is position - Base; each component lies in [0.5, 1.5).
	Frac mgl32.Vec3
}

// NewStencil computes quadratic B-spline weights for a particle at p on a
// grid with size nodes per axis. p is clamped so the footprint stays inside
// the grid.
func NewStencil(p mgl32.Vec3, size int) Stencil {
	var s Stencil
	hi := float32(size) - 1.5 - 1e-3
	for a := 0; a < 3; a++ {
		x := clamp32(p[a], 0.5, hi)
		base := int(math.Floor(float64(x - 0.5)))
		fx := x - float32(base)
		s.Base[a] = base
		s.Frac[a] = fx

		d0 := 1.5 - fx
		d1 := fx - 1
		d2 := fx - 0.5
		s.W[a][0] = 0.5 * d0 * d0
		s.W[a][1] = 0.75 - d1*d1
		s.W[a][2] = 0.5 * d2 * d2
	}
	return s
}

// Weight returns the combined weight of stencil node (i, j, k).
func (s *Stencil) Weight(i, j, k int) float32 {
	return s.W[0][i] * s.W[1][j] * s.W[2][k]
}

// Offset returns the vector from the particle to stencil node (i, j, k).
func (s *Stencil) Offset(i, j, k int) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(i) - s.Frac[0],
		float32(j) - s.Frac[1],
		float32(k) - s.Frac[2],
	}
}

// Node returns the grid index of stencil node (i, j, k).
func (s *Stencil) Node(g *Grid, i, j, k int) int {
	return g.Index(s.Base[0]+i, s.Base[1]+j, s.Base[2]+k)
}

// SampleMass returns the stencil-weighted grid mass around the particle.
func (s *Stencil) SampleMass(g *Grid) float32 {
	var m float32
	for i := 0; i < StencilWidth; i++ {
		for j := 0; j < StencilWidth; j++ {
			for k := 0; k < StencilWidth; k++ {
				m += s.Weight(i, j, k) * g.Mass(s.Node(g, i, j, k))
			}
		}
	}
	return m
}
