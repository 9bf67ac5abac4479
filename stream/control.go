package stream

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flow/mpm"
)

// Controller is the control surface a client may drive. *sim.Simulator
// implements it.
type Controller interface {
	SetActiveCount(n int) error
	SetTimeScale(scale float64) error
	SetGravityMode(mode mpm.GravityMode) error
	SetDeviceGravity(v r3.Vec) error
	SetMaterial(m mpm.Material) error
	SetTurbulence(t mpm.TurbulenceParams) error
	PointerInteraction(origin, direction, target r3.Vec) error
	ClearPointer()
}

// Message types accepted from clients.
const (
	MsgPointer      = "pointer"
	MsgClearPointer = "clear_pointer"
	MsgGravity      = "gravity"
	MsgDevice       = "device"
	MsgCount        = "count"
	MsgTimeScale    = "time_scale"
	MsgMaterial     = "material"
	MsgTurbulence   = "turbulence"
)

// ErrMessage is returned for control messages that cannot be applied.
var ErrMessage = errors.New("bad control message")

// Message is a JSON control message. Which fields are read depends on Type.
type Message struct {
	Type string `json:"type"`

	// pointer, all world space
	Origin    [3]float64 `json:"origin"`
	Direction [3]float64 `json:"direction"`
	Target    [3]float64 `json:"target"`

	// gravity
	Mode string `json:"mode,omitempty"`

	// device
	Vector [3]float64 `json:"vector"`

	// count
	Count int `json:"count,omitempty"`

	// time_scale
	Value float64 `json:"value,omitempty"`

	// material
	Stiffness        float64 `json:"stiffness,omitempty"`
	RestDensity      float64 `json:"rest_density,omitempty"`
	DynamicViscosity float64 `json:"dynamic_viscosity,omitempty"`

	// turbulence
	Amplitude float64 `json:"amplitude,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
}

// Reply is sent back to a client when a message is rejected.
type Reply struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

// Apply maps one control message onto c.
func Apply(c Controller, msg Message) error {
	switch msg.Type {
	case MsgPointer:
		return c.PointerInteraction(vec(msg.Origin), vec(msg.Direction), vec(msg.Target))
	case MsgClearPointer:
		c.ClearPointer()
	case MsgGravity:
		mode, err := mpm.ParseGravityMode(msg.Mode)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMessage, err)
		}
		return c.SetGravityMode(mode)
	case MsgDevice:
		return c.SetDeviceGravity(vec(msg.Vector))
	case MsgCount:
		return c.SetActiveCount(msg.Count)
	case MsgTimeScale:
		return c.SetTimeScale(msg.Value)
	case MsgMaterial:
		return c.SetMaterial(mpm.Material{
			Stiffness:        float32(msg.Stiffness),
			RestDensity:      float32(msg.RestDensity),
			DynamicViscosity: float32(msg.DynamicViscosity),
		})
	case MsgTurbulence:
		return c.SetTurbulence(mpm.TurbulenceParams{
			Amplitude: float32(msg.Amplitude),
			Speed:     float32(msg.Speed),
		})
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMessage, msg.Type)
	}
	return nil
}
