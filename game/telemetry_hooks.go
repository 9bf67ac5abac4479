package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/flow/mpm"
	"github.com/pthm-cable/flow/telemetry"
)

// flushTelemetry checks if the stats window should be flushed, writes the
// window out and snapshots windows that had to reset particles.
func (g *Game) flushTelemetry() {
	info := g.sim.LastFrame()
	if !g.collector.ShouldFlush(info.Frame) {
		return
	}

	gridMass := g.sim.GridMass()
	var stats telemetry.WindowStats
	g.sim.View(func(ps []mpm.Particle) {
		stats = g.collector.Flush(info.Frame, info.Time, ps, gridMass)
	})
	perfStats := g.perfCollector.Stats()

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteStats(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	if stats.Sanitized > 0 && g.snapshotDir != "" {
		g.saveSnapshot(fmt.Sprintf("sanitized %d", stats.Sanitized))
	}
}

// saveSnapshot writes the current state to the snapshot directory, or to
// the output directory when no snapshot directory is set.
func (g *Game) saveSnapshot(reason string) {
	var (
		path string
		err  error
	)
	switch {
	case g.snapshotDir != "":
		path, err = g.sim.SaveSnapshot(g.snapshotDir)
	case g.outputManager != nil:
		path, err = g.outputManager.SaveSnapshot(g.sim.Capture())
	default:
		g.snapshotStatus = "no snapshot directory"
		slog.Warn("snapshot skipped, no snapshot or output directory")
		return
	}
	if err != nil {
		g.snapshotStatus = "snapshot failed"
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	g.snapshotStatus = "saved " + path
	slog.Info("snapshot saved", "path", path, "frame", g.Frame(), "reason", reason)
}
