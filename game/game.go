// Package game runs the simulator for the desktop viewer and for headless
// batch runs: it owns the frame loop, input handling, telemetry flushing
// and snapshots.
package game

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/flow/camera"
	"github.com/pthm-cable/flow/config"
	"github.com/pthm-cable/flow/renderer"
	"github.com/pthm-cable/flow/sim"
	"github.com/pthm-cable/flow/telemetry"
	"github.com/pthm-cable/flow/ui"
)

// maxStepsPerUpdate bounds the speed multiplier.
const maxStepsPerUpdate = 10

// Options configures game initialization.
type Options struct {
	LogStats       bool   // Log stats and perf windows via slog
	SnapshotDir    string // Directory for snapshot files (empty = output dir, or none)
	OutputDir      string // Directory for CSV logs and the effective config (empty = disabled)
	RestorePath    string // Snapshot to restore before the first frame
	Headless       bool   // Skip all raylib resources
	StepsPerUpdate int    // Simulation frames per Update call
}

// Game holds the simulator and everything around it.
type Game struct {
	cfg *config.Config
	sim *sim.Simulator

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	logStats      bool
	snapshotDir   string

	// State
	headless       bool
	paused         bool
	stepsPerUpdate int
	delta          float64 // fixed wall-clock delta for headless runs

	// Graphics, nil in headless mode
	camera           *camera.Camera
	background       *renderer.BackgroundRenderer
	particleRenderer *renderer.ParticleRenderer
	hud              *ui.HUD
	controls         *ui.ControlsPanel
	perfPanel        *ui.PerfPanel
	showPerf         bool

	// Input
	pointerTarget  *mgl32.Vec3 // world-space pointer marker while dragging
	panelDrag      bool        // left drag started on the controls panel
	snapshotStatus string

	screenWidth, screenHeight float32
}

// NewGameWithOptions creates a game for cfg. In graphical mode the raylib
// window must already be open.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	s, err := sim.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating simulator: %w", err)
	}

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}
	if steps > maxStepsPerUpdate {
		steps = maxStepsPerUpdate
	}
	fps := cfg.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}

	g := &Game{
		cfg:            cfg,
		sim:            s,
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		logStats:       opts.LogStats,
		snapshotDir:    opts.SnapshotDir,
		headless:       opts.Headless,
		stepsPerUpdate: steps,
		delta:          1 / float64(fps),
		screenWidth:    float32(cfg.Screen.Width),
		screenHeight:   float32(cfg.Screen.Height),
	}
	s.SetPerfCollector(g.perfCollector)

	if opts.RestorePath != "" {
		if err := s.LoadSnapshot(opts.RestorePath); err != nil {
			s.Close()
			return nil, fmt.Errorf("restoring snapshot: %w", err)
		}
		slog.Info("snapshot restored", "path", opts.RestorePath, "frame", s.LastFrame().Frame)
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating output manager: %w", err)
		}
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
		g.outputManager = om
	}

	if !opts.Headless {
		g.initGraphics()
	}
	return g, nil
}

func (g *Game) initGraphics() {
	d := g.cfg.Derived
	ws := float32(g.cfg.Domain.WorldSize)
	g.camera = camera.New(g.screenWidth, g.screenHeight, ws)
	g.background = renderer.NewBackgroundRenderer(int32(g.screenWidth), int32(g.screenHeight))
	g.particleRenderer = renderer.NewParticleRenderer(d.CellWorldSize, d.WorldOrigin, ws, float32(g.cfg.Render.PointSize))
	g.hud = ui.NewHUD()
	g.controls = ui.NewControlsPanel(g.sim, 260, ui.AnchorTopRight)
	g.perfPanel = ui.NewPerfPanel(240, ui.AnchorBottomRight)
}

// Update handles input and runs stepsPerUpdate frames at the window's
// frame time.
func (g *Game) Update(frameTime float64) {
	g.handleInput()
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step(frameTime)
	}
}

// UpdateHeadless runs stepsPerUpdate frames at the fixed delta.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step(g.delta)
	}
}

// step advances one frame and feeds telemetry.
func (g *Game) step(delta float64) {
	if err := g.sim.Advance(delta); err != nil {
		slog.Error("advance failed", "error", err)
		return
	}
	g.collector.RecordSanitized(g.sim.LastFrame().Sanitized)
	g.flushTelemetry()
}

// Sim returns the underlying simulator.
func (g *Game) Sim() *sim.Simulator {
	return g.sim
}

// Frame returns the number of frames advanced so far.
func (g *Game) Frame() int64 {
	return g.sim.LastFrame().Frame
}

// Unload stops the simulator and flushes output files.
func (g *Game) Unload() {
	if g.snapshotDir != "" {
		g.saveSnapshot("final")
	}
	g.sim.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
