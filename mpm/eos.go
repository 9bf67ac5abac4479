package mpm

import "github.com/go-gl/mathgl/mgl32"

// Material holds the constitutive parameters.
type Material struct {
	Stiffness        float32
	RestDensity      float32
	DynamicViscosity float32
}

// Pressure evaluates the equation of state. It only resists compression and
// saturates at maxPressure.
func (m Material) Pressure(density, maxPressure float32) float32 {
	if m.RestDensity <= 0 {
		return 0
	}
	p := m.Stiffness * (density/m.RestDensity - 1)
	switch {
	case p > maxPressure:
		// also catches +Inf
		return maxPressure
	case p > 0:
		return p
	}
	// tension and NaN
	return 0
}

// Stress returns -pressure*I + viscosity*(C + C^T).
func (m Material) Stress(pressure float32, affine mgl32.Mat3) mgl32.Mat3 {
	strain := affine.Add(affine.Transpose())
	return strain.Mul(m.DynamicViscosity).Sub(mgl32.Ident3().Mul(pressure))
}
