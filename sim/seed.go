package sim

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/flow/mpm"
)

// seedParticle places particle i uniformly inside the seeding region. The
// result depends only on (seed, i) so reseeding a single index reproduces
// its initial state.
func (s *Simulator) seedParticle(i int) mpm.Particle {
	pc := &s.cfg.Particles
	rng := rand.New(rand.NewPCG(uint64(pc.Seed), uint64(i)))
	size := float64(s.cfg.Domain.GridSize)

	var p mpm.Particle
	for a := 0; a < 3; a++ {
		lo := pc.RegionMin[a] * size
		hi := pc.RegionMax[a] * size
		p.Position[a] = float32(lo + rng.Float64()*(hi-lo))
		if pc.Jitter > 0 {
			p.Velocity[a] = float32((rng.Float64()*2 - 1) * pc.Jitter)
		}
	}
	p.Position = s.clampToDomain(p.Position)
	p.Mass = 1
	p.Density = float32(s.cfg.Material.RestDensity)
	p.Direction = p.Velocity
	if cs := float32(s.cfg.Render.ColorSpeed); cs > 0 {
		p.Color = s.palette.At(p.Velocity.Len() / cs)
	}
	return p
}

// clampToDomain moves pos inside the containment box.
func (s *Simulator) clampToDomain(pos mgl32.Vec3) mgl32.Vec3 {
	lo := float32(s.cfg.Boundary.MarginLow)
	hi := s.cfg.Derived.GridSize32 - float32(s.cfg.Boundary.MarginHigh)
	for a := 0; a < 3; a++ {
		pos[a] = mgl32.Clamp(pos[a], lo, hi)
	}
	return pos
}

// reseed re-initializes particles [start, end).
func (s *Simulator) reseed(start, end int) {
	for i := start; i < end; i++ {
		s.particles[i] = s.seedParticle(i)
	}
}
