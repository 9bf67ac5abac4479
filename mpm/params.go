package mpm

// Boundary holds soft wall and clamp parameters in grid cells.
type Boundary struct {
	WallThickness float32
	WallStiffness float32
	MarginLow     float32
	MarginHigh    float32
}

// FrameParams is the read-only parameter set shared by every kernel of one
// frame. It is built once at the start of the frame.
type FrameParams struct {
	DT   float32 // simulation timestep
	Time float32 // simulation clock at the start of the frame

	Material Material
	Gravity  Gravity
	Boundary Boundary

	MaxPressure     float32
	MaxDisplacement float32 // cells per step; |v| is capped at MaxDisplacement/DT
	MassEpsilon     float32

	Turbulence TurbulenceParams
	Field      *Turbulence
	Pointer    Pointer

	DensityBlend   float32
	DirectionBlend float32

	Palette    *Palette
	ColorSpeed float32
}

// MaxSpeed returns the velocity cap implied by MaxDisplacement.
func (fp *FrameParams) MaxSpeed() float32 {
	if fp.DT <= 0 {
		return 0
	}
	return fp.MaxDisplacement / fp.DT
}
