package mpm

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testParams(dt float32) *FrameParams {
	return &FrameParams{
		DT: dt,
		Material: Material{
			Stiffness:        3,
			RestDensity:      1,
			DynamicViscosity: 0.1,
		},
		Gravity: Gravity{Mode: GravityDown, Strength: 0},
		Boundary: Boundary{
			WallThickness: 3,
			WallStiffness: 30,
			MarginLow:     1,
			MarginHigh:    2,
		},
		MaxPressure:     50,
		MaxDisplacement: 0.8,
		MassEpsilon:     1e-6,
		DensityBlend:    1,
		DirectionBlend:  0.1,
	}
}

func randomParticles(n, size int, seed uint64) []Particle {
	rng := rand.New(rand.NewPCG(seed, 0))
	ps := make([]Particle, n)
	lo := float32(2)
	span := float32(size) - 4
	for i := range ps {
		ps[i] = Particle{
			Position: mgl32.Vec3{
				lo + rng.Float32()*span,
				lo + rng.Float32()*span,
				lo + rng.Float32()*span,
			},
			Velocity: mgl32.Vec3{rng.Float32() - 0.5, rng.Float32() - 0.5, rng.Float32() - 0.5},
			Mass:     1,
		}
	}
	return ps
}

func TestP2GMassConservesMass(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"single", 1},
		{"few", 17},
		{"many", 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(32)
			ps := randomParticles(tt.n, 32, 1)
			P2GMass(g, ps, 0, len(ps))

			var want float64
			for i := range ps {
				want += float64(ps[i].Mass)
			}
			got := g.TotalMass()
			if math.Abs(got-want) > 1e-4*want {
				t.Errorf("grid mass = %v, want %v", got, want)
			}
		})
	}
}

func TestP2GMassConservesLinearMomentum(t *testing.T) {
	g := NewGrid(32)
	ps := randomParticles(200, 32, 2)
	for i := range ps {
		// affine contributions cancel because the first weight moment is zero
		ps[i].Affine = mgl32.Mat3{0.1, 0.2, -0.3, 0.05, 0, 0.1, -0.2, 0.3, 0.1}
	}
	P2GMass(g, ps, 0, len(ps))

	var want, got [3]float64
	for i := range ps {
		for a := 0; a < 3; a++ {
			want[a] += float64(ps[i].Mass * ps[i].Velocity[a])
		}
	}
	for idx := 0; idx < g.Len(); idx++ {
		m := g.Momentum(idx)
		for a := 0; a < 3; a++ {
			got[a] += float64(m[a])
		}
	}
	for a := 0; a < 3; a++ {
		if math.Abs(got[a]-want[a]) > 1e-3 {
			t.Errorf("axis %d momentum = %v, want %v", a, got[a], want[a])
		}
	}
}

func TestP2GStencilLocality(t *testing.T) {
	g := NewGrid(16)
	ps := []Particle{{Position: mgl32.Vec3{7.3, 8.9, 4.6}, Velocity: mgl32.Vec3{1, 2, 3}, Mass: 1}}
	P2GMass(g, ps, 0, 1)

	s := NewStencil(ps[0].Position, g.Size)
	for idx := 0; idx < g.Len(); idx++ {
		x, y, z := g.Coords(idx)
		inside := x >= s.Base[0] && x < s.Base[0]+StencilWidth &&
			y >= s.Base[1] && y < s.Base[1]+StencilWidth &&
			z >= s.Base[2] && z < s.Base[2]+StencilWidth
		m := g.Mass(idx)
		if !inside && (m != 0 || g.Momentum(idx) != (mgl32.Vec3{})) {
			t.Errorf("node (%d,%d,%d) outside footprint holds mass %v", x, y, z, m)
		}
		if inside && m <= 0 {
			t.Errorf("node (%d,%d,%d) inside footprint has no mass", x, y, z)
		}
	}
}

func TestP2GMassConcurrentRangesMatchSerial(t *testing.T) {
	ps := randomParticles(4000, 24, 3)

	serial := NewGrid(24)
	P2GMass(serial, ps, 0, len(ps))

	parallel := NewGrid(24)
	const chunks = 8
	done := make(chan struct{}, chunks)
	step := (len(ps) + chunks - 1) / chunks
	for c := 0; c < chunks; c++ {
		start, end := c*step, min((c+1)*step, len(ps))
		go func() {
			P2GMass(parallel, ps, start, end)
			done <- struct{}{}
		}()
	}
	for c := 0; c < chunks; c++ {
		<-done
	}

	for idx := 0; idx < serial.Len(); idx++ {
		a, b := serial.Mass(idx), parallel.Mass(idx)
		if math.Abs(float64(a-b)) > 1e-4 {
			t.Fatalf("node %d mass serial %v, parallel %v", idx, a, b)
		}
	}
}

func TestP2GStressPushesCompressedParticlesApart(t *testing.T) {
	g := NewGrid(16)
	// two heavy particles close together exceed rest density
	ps := []Particle{
		{Position: mgl32.Vec3{7.8, 8, 8}, Mass: 8},
		{Position: mgl32.Vec3{8.2, 8, 8}, Mass: 8},
	}
	fp := testParams(0.1)
	P2GMass(g, ps, 0, len(ps))
	P2GStress(g, ps, fp, 0, len(ps))

	// both footprints span nodes 7..9 on x
	left := g.Momentum(g.Index(7, 8, 8))
	right := g.Momentum(g.Index(9, 8, 8))
	if left[0] >= 0 {
		t.Errorf("left node momentum x = %v, want < 0", left[0])
	}
	if right[0] <= 0 {
		t.Errorf("right node momentum x = %v, want > 0", right[0])
	}
}

func TestP2GStressNoOpBelowRestDensity(t *testing.T) {
	g := NewGrid(16)
	ps := []Particle{{Position: mgl32.Vec3{8, 8, 8}, Mass: 1}}
	fp := testParams(0.1)
	P2GMass(g, ps, 0, 1)
	P2GStress(g, ps, fp, 0, 1)

	for idx := 0; idx < g.Len(); idx++ {
		if m := g.Momentum(idx); m != (mgl32.Vec3{}) {
			t.Fatalf("node %d momentum = %v, want zero", idx, m)
		}
	}
}

func BenchmarkP2GMass(b *testing.B) {
	g := NewGrid(64)
	ps := randomParticles(32768, 64, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Clear(0, g.Len())
		P2GMass(g, ps, 0, len(ps))
	}
}
