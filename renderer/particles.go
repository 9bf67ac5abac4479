// Package renderer draws the fluid state with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/flow/camera"
	"github.com/pthm-cable/flow/mpm"
)

// ParticleRenderer draws particles as small cubes in world space, colored
// by their speed hint, inside the domain wireframe.
type ParticleRenderer struct {
	// CellWorldSize and WorldOrigin map grid units to world space.
	CellWorldSize float32
	WorldOrigin   float32
	WorldSize     float32

	// PointSize is the cube edge in world units.
	PointSize float32

	// ShowDirection draws the smoothed direction hint as a short line.
	ShowDirection bool
	// DirectionScale is the line length in world units per cell/step.
	DirectionScale float32

	BoxColor rl.Color
}

// NewParticleRenderer creates a renderer for a grid of the given cell size.
func NewParticleRenderer(cellWorldSize, worldOrigin, worldSize, pointSize float32) *ParticleRenderer {
	return &ParticleRenderer{
		CellWorldSize:  cellWorldSize,
		WorldOrigin:    worldOrigin,
		WorldSize:      worldSize,
		PointSize:      pointSize,
		DirectionScale: cellWorldSize * 4,
		BoxColor:       rl.Color{R: 90, G: 100, B: 110, A: 255},
	}
}

// Camera3D converts the orbit camera to a raylib camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   toRL(c.Position()),
		Target:     toRL(c.Target),
		Up:         toRL(c.Up()),
		Fovy:       c.FovY,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders the domain box, the optional pointer marker and the
// particles. It must be called between BeginDrawing and EndDrawing.
func (r *ParticleRenderer) Draw(cam *camera.Camera, ps []mpm.Particle, pointer *mgl32.Vec3) {
	rl.BeginMode3D(Camera3D(cam))
	defer rl.EndMode3D()

	rl.DrawCubeWires(rl.Vector3{}, r.WorldSize, r.WorldSize, r.WorldSize, r.BoxColor)

	if pointer != nil {
		rl.DrawSphereWires(toRL(*pointer), r.CellWorldSize*2, 6, 8, rl.Yellow)
	}

	size := rl.Vector3{X: r.PointSize, Y: r.PointSize, Z: r.PointSize}
	for i := range ps {
		p := &ps[i]
		pos := r.world(p.Position)
		col := toColor(p.Color)
		rl.DrawCubeV(pos, size, col)
		if r.ShowDirection {
			d := p.Direction.Mul(r.DirectionScale)
			rl.DrawLine3D(pos, rl.Vector3{X: pos.X + d[0], Y: pos.Y + d[1], Z: pos.Z + d[2]}, col)
		}
	}
}

// world converts a grid-space position to a raylib world position.
func (r *ParticleRenderer) world(g mgl32.Vec3) rl.Vector3 {
	return rl.Vector3{
		X: g[0]*r.CellWorldSize + r.WorldOrigin,
		Y: g[1]*r.CellWorldSize + r.WorldOrigin,
		Z: g[2]*r.CellWorldSize + r.WorldOrigin,
	}
}

func toRL(v mgl32.Vec3) rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}

func toColor(c mgl32.Vec3) rl.Color {
	return rl.Color{
		R: uint8(mgl32.Clamp(c[0], 0, 1) * 255),
		G: uint8(mgl32.Clamp(c[1], 0, 1) * 255),
		B: uint8(mgl32.Clamp(c[2], 0, 1) * 255),
		A: 255,
	}
}
