package mpm

import "github.com/go-gl/mathgl/mgl32"

// G2P gathers grid velocity back onto particles [start, end), applies
// particle-local forces and advances positions. It returns how many
// particles had non-finite state reset, whether velocity, affine or
// position.
//
// The grid is read-only here, so ranges may run concurrently.
func G2P(g *Grid, ps []Particle, fp *FrameParams, start, end int) int {
	sanitized := 0
	maxSpeed := fp.MaxSpeed()
	lo := fp.Boundary.MarginLow
	hi := float32(g.Size) - fp.Boundary.MarginHigh
	noiseTime := fp.Time * fp.Turbulence.Speed

	for pi := start; pi < end; pi++ {
		p := &ps[pi]
		s := NewStencil(p.Position, g.Size)

		var vel mgl32.Vec3
		var b mgl32.Mat3
		var density float32
		for i := 0; i < StencilWidth; i++ {
			for j := 0; j < StencilWidth; j++ {
				for k := 0; k < StencilWidth; k++ {
					w := s.Weight(i, j, k)
					idx := s.Node(g, i, j, k)
					cv := g.Velocity(idx).Mul(w)
					vel = vel.Add(cv)
					b = b.Add(cv.OuterProd3(s.Offset(i, j, k)))
					density += w * g.Mass(idx)
				}
			}
		}
		p.Affine = b.Mul(AffineScale)

		if fp.Turbulence.Amplitude > 0 && fp.Field != nil {
			n := fp.Field.Sample(p.Position, noiseTime)
			vel = vel.Add(n.Mul(fp.Turbulence.Amplitude * fp.DT))
		}
		if fp.Pointer.Active {
			vel = vel.Add(fp.Pointer.Accel(p.Position).Mul(fp.DT))
		}
		if maxSpeed > 0 {
			vel = capLength(vel, maxSpeed)
		}
		p.Velocity = vel

		reset := false
		if !p.Finite() {
			p.Velocity = mgl32.Vec3{}
			p.Affine = mgl32.Mat3{}
			reset = true
		}

		p.Position = p.Position.Add(p.Velocity.Mul(fp.DT))
		for a := 0; a < 3; a++ {
			if !finite32(p.Position[a]) {
				p.Position[a] = (lo + hi) / 2
				p.Velocity[a] = 0
				reset = true
			}
			if p.Position[a] < lo {
				p.Position[a] = lo
				if p.Velocity[a] < 0 {
					p.Velocity[a] = 0
				}
			} else if p.Position[a] > hi {
				p.Position[a] = hi
				if p.Velocity[a] > 0 {
					p.Velocity[a] = 0
				}
			}
		}
		if reset {
			sanitized++
		}

		if finite32(density) {
			p.Density += (density - p.Density) * fp.DensityBlend
		}
		p.Direction = p.Direction.Add(p.Velocity.Sub(p.Direction).Mul(fp.DirectionBlend))
		if fp.Palette != nil && fp.ColorSpeed > 0 {
			p.Color = fp.Palette.At(p.Velocity.Len() / fp.ColorSpeed)
		}
	}
	return sanitized
}
