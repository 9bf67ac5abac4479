// Command flowserve runs the simulator headless and streams every frame to
// WebSocket clients, which may also drive the control surface.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/flow/config"
	"github.com/pthm-cable/flow/mpm"
	"github.com/pthm-cable/flow/sim"
	"github.com/pthm-cable/flow/stream"
	"github.com/pthm-cable/flow/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	addr := flag.String("addr", "", "Listen address (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *addr != "" {
		cfg.Stream.Addr = *addr
	}

	if err := run(cfg, *logStats, *outputDir); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logStats bool, outputDir string) error {
	s, err := sim.New(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	s.SetPerfCollector(perf)
	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindow)

	var om *telemetry.OutputManager
	if outputDir != "" {
		if om, err = telemetry.NewOutputManager(outputDir); err != nil {
			return err
		}
		defer om.Close()
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
	}

	hub := stream.NewHub(s)
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: cfg.Stream.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		slog.Info("streaming", "addr", cfg.Stream.Addr, "fps", cfg.Stream.FPS, "particles", s.ActiveCount())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	fps := cfg.Stream.FPS
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	last := time.Now()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err, ok := <-errc:
			if ok {
				return err
			}
			break loop
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now
			if err := s.Advance(delta); err != nil {
				slog.Error("advance failed", "error", err)
				continue
			}
			info := s.LastFrame()
			collector.RecordSanitized(info.Sanitized)
			for n := hub.TakeRejects(); n > 0; n-- {
				collector.RecordControlReject()
			}

			if hub.Clients() > 0 {
				var frame []byte
				s.View(func(ps []mpm.Particle) {
					frame = stream.EncodeFrame(nil, uint64(info.Frame), ps)
				})
				hub.Broadcast(frame)
			}

			if collector.ShouldFlush(info.Frame) {
				flush(s, collector, perf, om, info, logStats)
			}
		}
	}

	slog.Info("shutting down", "frame", s.LastFrame().Frame, "dropped_frames", hub.Dropped())
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func flush(s *sim.Simulator, collector *telemetry.Collector, perf *telemetry.PerfCollector, om *telemetry.OutputManager, info sim.FrameInfo, logStats bool) {
	gridMass := s.GridMass()
	var stats telemetry.WindowStats
	s.View(func(ps []mpm.Particle) {
		stats = collector.Flush(info.Frame, info.Time, ps, gridMass)
	})
	perfStats := perf.Stats()

	if logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if err := om.WriteStats(stats); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
	if err := om.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
