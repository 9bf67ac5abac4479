package mpm

// P2GMass scatters mass and APIC momentum of particles [start, end).
//
// Writes to shared nodes go through atomic adds, so ranges may run
// concurrently.
func P2GMass(g *Grid, ps []Particle, start, end int) {
	for pi := start; pi < end; pi++ {
		p := &ps[pi]
		s := NewStencil(p.Position, g.Size)

		for i := 0; i < StencilWidth; i++ {
			for j := 0; j < StencilWidth; j++ {
				for k := 0; k < StencilWidth; k++ {
					w := s.Weight(i, j, k)
					wm := w * p.Mass
					off := s.Offset(i, j, k)
					mom := p.Velocity.Add(p.Affine.Mul3x1(off)).Mul(wm)

					idx := s.Node(g, i, j, k)
					g.addMass(idx, wm)
					g.addMomentum(idx, mom)
				}
			}
		}
	}
}

// P2GStress scatters the internal stress impulse of particles [start, end).
// It reads the mass field P2GMass produced, so it must run after P2GMass has
// completed for every particle.
func P2GStress(g *Grid, ps []Particle, fp *FrameParams, start, end int) {
	for pi := start; pi < end; pi++ {
		p := &ps[pi]
		s := NewStencil(p.Position, g.Size)

		density := s.SampleMass(g)
		if density <= fp.MassEpsilon {
			continue
		}
		volume := p.Mass / density
		pressure := fp.Material.Pressure(density, fp.MaxPressure)
		stress := fp.Material.Stress(pressure, p.Affine)
		term := stress.Mul(-volume * AffineScale * fp.DT)

		for i := 0; i < StencilWidth; i++ {
			for j := 0; j < StencilWidth; j++ {
				for k := 0; k < StencilWidth; k++ {
					w := s.Weight(i, j, k)
					imp := term.Mul3x1(s.Offset(i, j, k)).Mul(w)
					if !finite32(imp[0]) || !finite32(imp[1]) || !finite32(imp[2]) {
						continue
					}
					g.addMomentum(s.Node(g, i, j, k), imp)
				}
			}
		}
	}
}
