package sim

import (
	"fmt"

	"github.com/pthm-cable/flow/telemetry"
)

// Capture copies the particle store, active count and clock.
func (s *Simulator) Capture() *telemetry.Snapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	snap := &telemetry.Snapshot{
		Version:   telemetry.SnapshotVersion,
		Seed:      s.cfg.Particles.Seed,
		GridSize:  s.cfg.Domain.GridSize,
		Frame:     s.last.Frame,
		Time:      s.last.Time,
		Active:    s.ran,
		Particles: make([]telemetry.ParticleState, len(s.particles)),
	}
	for i := range s.particles {
		snap.Particles[i] = telemetry.NewParticleState(&s.particles[i])
	}
	return snap
}

// Restore replaces the particle store and clock with a captured state.
// Particles beyond the snapshot's length keep their current state.
func (s *Simulator) Restore(snap *telemetry.Snapshot) error {
	switch {
	case snap == nil:
		return fmt.Errorf("%w: nil snapshot", ErrSnapshot)
	case snap.GridSize != s.cfg.Domain.GridSize:
		return fmt.Errorf("%w: grid size %d, want %d", ErrSnapshot, snap.GridSize, s.cfg.Domain.GridSize)
	case len(snap.Particles) > len(s.particles):
		return fmt.Errorf("%w: %d particles exceed capacity %d", ErrSnapshot, len(snap.Particles), len(s.particles))
	case snap.Active < 0 || snap.Active > len(snap.Particles):
		return fmt.Errorf("%w: active %d outside [0, %d]", ErrSnapshot, snap.Active, len(snap.Particles))
	}

	s.stateMu.Lock()
	for i, ps := range snap.Particles {
		s.particles[i] = ps.Particle()
	}
	s.ran = snap.Active
	s.last = FrameInfo{Frame: snap.Frame, Time: snap.Time, Active: snap.Active}
	s.stateMu.Unlock()

	s.mu.Lock()
	s.controls.active = snap.Active
	s.mu.Unlock()
	return nil
}

// SaveSnapshot captures the current state and writes it under dir.
func (s *Simulator) SaveSnapshot(dir string) (string, error) {
	return telemetry.SaveSnapshot(s.Capture(), dir)
}

// LoadSnapshot reads a snapshot file and restores it.
func (s *Simulator) LoadSnapshot(path string) error {
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return err
	}
	return s.Restore(snap)
}
