package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/flow/mpm"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete particle store and clock for replay.
type Snapshot struct {
	Version  int   `json:"version"`
	Seed     int64 `json:"seed"`
	GridSize int   `json:"grid_size"`

	Frame int64   `json:"frame"`
	Time  float64 `json:"time"`

	Active    int             `json:"active"`
	Particles []ParticleState `json:"particles"`
}

// ParticleState holds one particle's complete state.
type ParticleState struct {
	Position  [3]float32 `json:"pos"`
	Velocity  [3]float32 `json:"vel"`
	Affine    [9]float32 `json:"affine"`
	Mass      float32    `json:"mass"`
	Density   float32    `json:"density"`
	Direction [3]float32 `json:"dir"`
	Color     [3]float32 `json:"color"`
}

// NewParticleState copies p into its serializable form.
func NewParticleState(p *mpm.Particle) ParticleState {
	return ParticleState{
		Position:  p.Position,
		Velocity:  p.Velocity,
		Affine:    p.Affine,
		Mass:      p.Mass,
		Density:   p.Density,
		Direction: p.Direction,
		Color:     p.Color,
	}
}

// Particle converts the state back into a particle.
func (s ParticleState) Particle() mpm.Particle {
	return mpm.Particle{
		Position:  mgl32.Vec3(s.Position),
		Velocity:  mgl32.Vec3(s.Velocity),
		Affine:    mgl32.Mat3(s.Affine),
		Mass:      s.Mass,
		Density:   s.Density,
		Direction: mgl32.Vec3(s.Direction),
		Color:     mgl32.Vec3(s.Color),
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Frame))

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
