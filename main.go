package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/components"
	"github.com/pthm-cable/coil/config"
	"github.com/pthm-cable/coil/game"
	"github.com/pthm-cable/coil/rope"
	"github.com/pthm-cable/coil/scene"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run the demo script without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	turns := flag.Float64("turns", 1.5, "Turns wound by the demo script")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per frame in the viewer")
	scripted := flag.Bool("script", false, "Start the viewer with the demo script playing")
	debug := flag.Bool("debug", false, "Log every winding event")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *headless {
		if err := runHeadless(*logStats, *statsWindow, *outputDir, *turns, *maxTicks); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Coil")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(game.Options{
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Turns:          *turns,
		StepsPerUpdate: *stepsPerUpdate,
		Scripted:       *scripted,
	})
	if err != nil {
		slog.Error("failed to start viewer", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// runHeadless plays the demo script once against a single rope.
func runHeadless(logStats bool, statsWindow float64, outputDir string, turns float64, maxTicks int) error {
	cfg := config.Cfg()
	s, err := scene.New(scene.Options{
		Config:         cfg,
		LogStats:       logStats,
		StatsWindowSec: statsWindow,
		OutputDir:      outputDir,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	post := rope.PostFromConfig(cfg)
	root := r3.Add(post.Center, r3.Vec{X: post.Radius + 0.25, Y: 0.2})
	e := s.AddRope(root, r3.Vec{Y: -1})

	slog.Info("starting headless run",
		"turns", turns,
		"max_ticks", maxTicks,
		"output_dir", outputDir,
	)

	steps := s.Play(e, scene.DefaultScript(cfg, turns), maxTicks)

	for _, r := range s.Ropes() {
		st := components.StatusOf(s.Rope(r))
		slog.Info("rope final state",
			"rope", s.Body(r).ID,
			"parent", s.Body(r).Parent,
			"state", st.State,
			"live", st.Live,
			"visible_m", st.Visible,
			"wound_m", st.Wound,
		)
	}
	slog.Info("headless run finished", "steps", steps, "tick", s.Tick())
	return nil
}
