package mpm

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// GravityMode selects the body force applied in GridUpdate.
type GravityMode uint8

const (
	GravityBack GravityMode = iota
	GravityDown
	GravityCenter
	GravityDevice
)

var gravityNames = [...]string{"back", "down", "center", "device"}

func (m GravityMode) String() string {
	if int(m) < len(gravityNames) {
		return gravityNames[m]
	}
	return fmt.Sprintf("GravityMode(%d)", m)
}

// ParseGravityMode parses the lowercase mode name.
func ParseGravityMode(s string) (GravityMode, error) {
	for i, name := range gravityNames {
		if name == s {
			return GravityMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown gravity mode %q", s)
}

// Gravity is the per-frame gravity configuration.
type Gravity struct {
	Mode     GravityMode
	Strength float32
	// Device is the last received sensor vector, used by GravityDevice.
	Device mgl32.Vec3
}

// At returns the gravitational acceleration for a node at pos on a grid of
// the given size.
func (g Gravity) At(pos mgl32.Vec3, size float32) mgl32.Vec3 {
	switch g.Mode {
	case GravityBack:
		return mgl32.Vec3{0, 0, -g.Strength}
	case GravityDown:
		return mgl32.Vec3{0, -g.Strength, 0}
	case GravityCenter:
		half := size / 2
		to := mgl32.Vec3{half, half, half}.Sub(pos)
		l := to.Len()
		if l < 1e-4 {
			return mgl32.Vec3{}
		}
		return to.Mul(g.Strength / l)
	case GravityDevice:
		return g.Device.Mul(g.Strength)
	}
	return mgl32.Vec3{}
}
