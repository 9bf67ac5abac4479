package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flow/config"
	"github.com/pthm-cable/flow/game"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run the simulation without a window")
	logStats := flag.Bool("log-stats", false, "Log window and perf stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Directory for stats.csv, perf.csv and config.yaml")
	restore := flag.String("restore", "", "Snapshot file to restore before the first frame")
	seed := flag.Int64("seed", 0, "Particle seed (0 = use config)")
	maxFrames := flag.Int64("max-frames", 0, "Stop after N frames (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Frames advanced per update call in headless mode")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seed != 0 {
		cfg.Particles.Seed = *seed
	}

	opts := game.Options{
		LogStats:       *logStats,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		RestorePath:    *restore,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
	}

	run := runWindowed
	if *headless {
		run = runHeadless
	}
	if err := run(cfg, opts, *maxFrames); err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
}

// done reports whether a frame limit is set and reached.
func done(g *game.Game, maxFrames int64) bool {
	return maxFrames > 0 && g.Frame() >= maxFrames
}

// runHeadless advances the simulation on the CPU only; raylib is never
// initialized.
func runHeadless(cfg *config.Config, opts game.Options, maxFrames int64) error {
	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", cfg.Particles.Seed,
		"max_particles", cfg.Particles.Max,
		"active", cfg.Particles.Active,
		"grid_size", cfg.Domain.GridSize,
		"max_frames", maxFrames,
		"steps_per_update", opts.StepsPerUpdate,
	)
	for !done(g, maxFrames) {
		g.UpdateHeadless()
	}
	slog.Info("frame limit reached", "frame", g.Frame())
	return nil
}

func runWindowed(cfg *config.Config, opts game.Options, maxFrames int64) error {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Flow")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	for !rl.WindowShouldClose() && !done(g, maxFrames) {
		g.Update(float64(rl.GetFrameTime()))
		g.Draw()
	}
	return nil
}
