// Package sim drives the MLS-MPM pipeline: it owns the particle store and
// grid, runs the five stages with a full barrier between each and exposes
// the control surface read once at the start of every frame.
package sim

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/flow/config"
	"github.com/pthm-cable/flow/mpm"
	"github.com/pthm-cable/flow/telemetry"
)

// FrameInfo describes the most recent Advance call.
type FrameInfo struct {
	Frame     int64
	Time      float64 // simulation clock after the frame
	DT        float32
	Active    int
	Sanitized int
}

// Simulator advances a fixed-capacity particle store through the
// Clear, P2G mass, P2G stress, GridUpdate and G2P stages.
//
// Control setters may be called from any goroutine at any time; their
// values take effect at the next Advance. Advance itself must not be
// called concurrently with another Advance.
type Simulator struct {
	cfg       *config.Config
	grid      *mpm.Grid
	particles []mpm.Particle
	field     *mpm.Turbulence
	palette   *mpm.Palette
	pool      *pool
	perf      *telemetry.PerfCollector

	mu       sync.Mutex // guards controls
	controls controls

	stateMu sync.RWMutex // guards particles, grid and the fields below
	ran     int          // active count used by the last frame
	last    FrameInfo
}

// New allocates the particle store and grid described by cfg and seeds
// every particle.
func New(cfg *config.Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	palette, err := mpm.NewPalette(cfg.Render.Palette)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	mode, err := mpm.ParseGravityMode(cfg.Gravity.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	s := &Simulator{
		cfg:       cfg,
		grid:      mpm.NewGrid(cfg.Domain.GridSize),
		particles: make([]mpm.Particle, cfg.Particles.Max),
		field:     mpm.NewTurbulence(cfg.Turbulence.Seed, float32(cfg.Turbulence.Scale)),
		palette:   palette,
		pool:      newPool(cfg.Derived.Workers, cfg.Parallel.Threshold),
		ran:       cfg.Particles.Active,
	}
	s.controls = controls{
		active:    cfg.Particles.Active,
		timeScale: float32(cfg.Time.TimeScale),
		gravity: mpm.Gravity{
			Mode:     mode,
			Strength: float32(cfg.Gravity.Strength),
			Device: mgl32.Vec3{
				float32(cfg.Gravity.Device[0]),
				float32(cfg.Gravity.Device[1]),
				float32(cfg.Gravity.Device[2]),
			},
		},
		material: mpm.Material{
			Stiffness:        float32(cfg.Material.Stiffness),
			RestDensity:      float32(cfg.Material.RestDensity),
			DynamicViscosity: float32(cfg.Material.DynamicViscosity),
		},
		turbulence: mpm.TurbulenceParams{
			Amplitude: float32(cfg.Turbulence.Amplitude),
			Speed:     float32(cfg.Turbulence.Speed),
		},
	}
	s.reseed(0, len(s.particles))
	s.pool.start()

	slog.Info("simulator ready",
		"grid_size", cfg.Domain.GridSize,
		"max_particles", cfg.Particles.Max,
		"active", cfg.Particles.Active,
		"workers", s.pool.numWorkers,
		"scatter", cfg.Parallel.Scatter,
		"activation", cfg.Particles.Activation,
	)
	return s, nil
}

// Close stops the worker pool.
func (s *Simulator) Close() {
	s.pool.stop()
}

// SetPerfCollector attaches per-phase timing. Pass nil to disable.
func (s *Simulator) SetPerfCollector(pc *telemetry.PerfCollector) {
	s.stateMu.Lock()
	s.perf = pc
	s.stateMu.Unlock()
}

// Config returns the configuration the simulator was built from.
func (s *Simulator) Config() *config.Config {
	return s.cfg
}

// frameParams builds the read-only parameter set for one frame.
func (s *Simulator) frameParams(c *controls, dt float32) *mpm.FrameParams {
	cfg := s.cfg
	return &mpm.FrameParams{
		DT:       dt,
		Time:     float32(s.last.Time),
		Material: c.material,
		Gravity:  c.gravity,
		Boundary: mpm.Boundary{
			WallThickness: float32(cfg.Boundary.WallThickness),
			WallStiffness: float32(cfg.Boundary.WallStiffness),
			MarginLow:     float32(cfg.Boundary.MarginLow),
			MarginHigh:    float32(cfg.Boundary.MarginHigh),
		},
		MaxPressure:     cfg.Derived.MaxPressure32,
		MaxDisplacement: cfg.Derived.MaxDisplace32,
		MassEpsilon:     cfg.Derived.MassEpsilon32,
		Turbulence:      c.turbulence,
		Field:           s.field,
		Pointer:         c.pointer,
		DensityBlend:    float32(cfg.Particles.DensityBlend),
		DirectionBlend:  float32(cfg.Particles.DirectionBlend),
		Palette:         s.palette,
		ColorSpeed:      float32(cfg.Render.ColorSpeed),
	}
}

// timestep converts a wall-clock delta into the simulation timestep.
func (s *Simulator) timestep(delta float64, timeScale float32) float32 {
	delta = math.Min(delta, s.cfg.Time.MaxDelta)
	return float32(delta*s.cfg.Time.DTScale) * timeScale
}

// Advance runs exactly one pass of the five-stage pipeline for a
// wall-clock delta in seconds.
func (s *Simulator) Advance(deltaTime float64) error {
	if !validFloat(deltaTime) || deltaTime < 0 {
		return fmt.Errorf("%w: %v", ErrDelta, deltaTime)
	}
	c := s.readControls()
	dt := s.timestep(deltaTime, c.timeScale)
	if !valid32(float64(dt)) {
		return fmt.Errorf("%w: timestep %v overflows", ErrDelta, dt)
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	n := c.active
	if s.cfg.Derived.ReseedOnRaise && n > s.ran {
		s.reseed(s.ran, n)
	}
	s.ran = n

	fp := s.frameParams(&c, dt)
	g := s.grid
	ps := s.particles[:n]
	serial := s.cfg.Derived.Serial
	perf := s.perf

	phase := func(name string) {
		if perf != nil {
			perf.StartPhase(name)
		}
	}
	if perf != nil {
		perf.StartStep()
	}

	phase(telemetry.PhaseClear)
	s.pool.run(g.Len(), false, func(start, end int) int {
		g.Clear(start, end)
		return 0
	})

	phase(telemetry.PhaseP2GMass)
	s.pool.run(n, serial, func(start, end int) int {
		mpm.P2GMass(g, ps, start, end)
		return 0
	})

	phase(telemetry.PhaseP2GStress)
	s.pool.run(n, serial, func(start, end int) int {
		mpm.P2GStress(g, ps, fp, start, end)
		return 0
	})

	phase(telemetry.PhaseGridUpdate)
	s.pool.run(g.Len(), false, func(start, end int) int {
		mpm.GridUpdate(g, fp, start, end)
		return 0
	})

	phase(telemetry.PhaseG2P)
	sanitized := s.pool.run(n, false, func(start, end int) int {
		return mpm.G2P(g, ps, fp, start, end)
	})

	if perf != nil {
		perf.EndStep()
	}

	s.last = FrameInfo{
		Frame:     s.last.Frame + 1,
		Time:      s.last.Time + float64(dt),
		DT:        dt,
		Active:    n,
		Sanitized: sanitized,
	}
	if sanitized > 0 {
		slog.Warn("reset non-finite particles", "frame", s.last.Frame, "count", sanitized, "dt", dt)
	}
	return nil
}

// LastFrame reports the most recent Advance.
func (s *Simulator) LastFrame() FrameInfo {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.last
}

// View calls fn with the active particle prefix of the last frame. The
// slice must not be retained or modified after fn returns.
func (s *Simulator) View(fn func(ps []mpm.Particle)) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	fn(s.particles[:s.ran])
}

// Particles copies the active particle prefix into dst, growing it as
// needed, and returns it.
func (s *Simulator) Particles(dst []mpm.Particle) []mpm.Particle {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return append(dst[:0], s.particles[:s.ran]...)
}

// GridMass returns the total grid mass left by the last frame's transfer.
func (s *Simulator) GridMass() float64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.grid.TotalMass()
}

// GridIsZero reports whether every grid node holds zero mass and momentum.
func (s *Simulator) GridIsZero() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.grid.IsZero()
}
