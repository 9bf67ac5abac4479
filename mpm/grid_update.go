package mpm

import "github.com/go-gl/mathgl/mgl32"

// GridUpdate converts momentum to velocity for nodes [start, end), then
// applies gravity and soft wall repulsion. Nodes without mass end with zero
// velocity.
func GridUpdate(g *Grid, fp *FrameParams, start, end int) {
	size := float32(g.Size)
	maxSpeed := fp.MaxSpeed()
	b := fp.Boundary
	// node coordinates range over [0, size-1]
	lowWall := b.WallThickness
	highWall := size - 1 - b.WallThickness

	for idx := start; idx < end; idx++ {
		m := g.Mass(idx)
		if m <= fp.MassEpsilon {
			g.storeMomentum(idx, mgl32.Vec3{})
			continue
		}

		x, y, z := g.Coords(idx)
		pos := mgl32.Vec3{float32(x), float32(y), float32(z)}

		v := g.Momentum(idx).Mul(1 / m)
		v = v.Add(fp.Gravity.At(pos, size).Mul(fp.DT))

		for a := 0; a < 3; a++ {
			if pos[a] < lowWall {
				v[a] += (lowWall - pos[a]) * b.WallStiffness * fp.DT
			} else if pos[a] > highWall {
				v[a] -= (pos[a] - highWall) * b.WallStiffness * fp.DT
			}
		}

		if maxSpeed > 0 {
			v = capLength(v, maxSpeed)
		}
		if !finite32(v[0]) || !finite32(v[1]) || !finite32(v[2]) {
			v = mgl32.Vec3{}
		}
		g.storeMomentum(idx, v)
	}
}
