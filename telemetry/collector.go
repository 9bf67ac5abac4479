package telemetry

import "github.com/pthm-cable/flow/mpm"

// Collector accumulates events within frame windows and produces WindowStats.
type Collector struct {
	windowFrames int64

	// Current window tracking
	windowStartFrame int64

	// Event counters for current window
	sanitized      int
	controlRejects int
}

// NewCollector creates a new stats collector that flushes every
// windowFrames frames.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{windowFrames: int64(windowFrames)}
}

// RecordSanitized records particles whose non-finite state was reset.
func (c *Collector) RecordSanitized(n int) {
	c.sanitized += n
}

// RecordControlReject records a control change refused at the boundary.
func (c *Collector) RecordControlReject() {
	c.controlRejects++
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(frame int64) bool {
	return frame-c.windowStartFrame >= c.windowFrames
}

// Flush produces a WindowStats and resets counters for the next window.
// active is the active particle prefix and gridMass the grid total from
// the last frame's mass transfer.
func (c *Collector) Flush(frame int64, simTime float64, active []mpm.Particle, gridMass float64) WindowStats {
	ps := ComputeParticleStats(active)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   frame,
		SimTime:          simTime,

		Active: len(active),

		Sanitized:      c.sanitized,
		ControlRejects: c.controlRejects,

		KineticEnergy: ps.KineticEnergy,
		SpeedMean:     ps.SpeedMean,
		SpeedP50:      ps.SpeedP50,
		SpeedP90:      ps.SpeedP90,
		SpeedMax:      ps.SpeedMax,

		DensityMean: ps.DensityMean,
		DensityStd:  ps.DensityStd,
		DensityMax:  ps.DensityMax,

		ParticleMass: ps.TotalMass,
		GridMass:     gridMass,
	}

	// Reset for next window
	c.windowStartFrame = frame
	c.sanitized = 0
	c.controlRejects = 0

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int64 {
	return c.windowFrames
}
