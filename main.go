package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fission/audio"
	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/game"
	"github.com/pthm-cable/fission/stream"
	"github.com/pthm-cable/fission/terminal"
	"github.com/pthm-cable/fission/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to a YAML or TOML config (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	term := flag.Bool("terminal", false, "Render into the terminal instead of a window")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	scenarioPath := flag.String("scenario", "", "Lua scenario driving the controls")
	streamAddr := flag.String("stream-addr", "", "Serve the websocket frame stream on this address (empty = use config)")
	withAudio := flag.Bool("audio", false, "Play Geiger counter clicks")
	logFile := flag.String("log-file", "", "Write logs to this file (terminal mode discards logs without it)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// The terminal owns the tty while it renders, so logs go to a file or nowhere
	var logOut io.Writer = os.Stdout
	if *term || *logFile != "" {
		w, closeLog, err := terminal.LogOutput(*logFile)
		if err != nil {
			slog.Error("failed to open log file", "error", err)
			os.Exit(1)
		}
		defer closeLog()
		logOut = w
	}
	logger := slog.New(slog.NewJSONHandler(logOut, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		ScenarioPath:   *scenarioPath,
	}

	// Frame consumers outside the window
	addr := cfg.Stream.Addr
	if *streamAddr != "" {
		addr = *streamAddr
	}
	if addr != "" {
		hub := stream.NewHub(cfg.Stream.SendBuffer, cfg.Stream.FrameInterval)
		if cfg.Stream.AllowAnyOrigin {
			hub.AllowAnyOrigin()
		}
		defer hub.Close()
		go func() {
			if err := hub.Serve(ctx, addr); err != nil {
				slog.Error("stream server stopped", "error", err)
			}
		}()
		opts.Consumers = append(opts.Consumers, hub)
		slog.Info("streaming frames", "addr", addr)
	}

	if *withAudio || cfg.Audio.Enabled {
		player := audio.NewPlayer(audio.Config{
			SampleRate:       cfg.Audio.SampleRate,
			BaseRate:         cfg.Audio.BaseRate,
			RatePerIntensity: cfg.Audio.RatePerIntensity,
			ClickMillis:      cfg.Audio.ClickMillis,
			Volume:           cfg.Audio.Volume,
		}, newRand(rngSeed+1))
		if err := player.Start(); err != nil {
			slog.Error("audio disabled", "error", err)
		} else {
			defer player.Close()
			opts.Consumers = append(opts.Consumers, player)
		}
	}

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	reachedLimit := func() bool {
		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return true
		}
		return false
	}

	switch {
	case *headless:
		// Headless mode - pure CPU simulation, no window
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"stats_window", *statsWindow,
			"max_ticks", *maxTicks,
			"scenario", *scenarioPath,
		)

		for ctx.Err() == nil && !reachedLimit() {
			g.UpdateHeadless()
		}

	case *term:
		runTerminal(ctx, g, cfg, reachedLimit)

	default:
		// Graphical mode
		rl.SetConfigFlags(rl.FlagMsaa4xHint)
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Fission Reactor")
		defer rl.CloseWindow()

		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

		frontend := ui.NewFrontend(g)
		for !rl.WindowShouldClose() && ctx.Err() == nil {
			frontend.Update()
			frontend.Draw()

			if reachedLimit() {
				break
			}
		}
	}
}

// runTerminal steps the simulation at the configured rate and draws it with tcell.
func runTerminal(ctx context.Context, g *game.Game, cfg *config.Config, reachedLimit func() bool) {
	screen, err := terminal.NewScreen()
	if err != nil {
		slog.Error("failed to open terminal", "error", err)
		return
	}
	defer screen.Fini()

	// The reactor view is the left half of the configured screen
	r := terminal.NewRenderer(screen, float64(cfg.Screen.Width)/2, float64(cfg.Screen.Height),
		cfg.Terminal.TrueColor, cfg.Terminal.FrameInterval)
	g.AddConsumer(r)

	commands := terminal.PollCommands(screen)
	ticker := time.NewTicker(time.Duration(cfg.Physics.DT * float64(time.Second)))
	defer ticker.Stop()

	for !reachedLimit() {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-commands:
			if !ok || cmd == terminal.CmdQuit {
				return
			}
			applyCommand(g, cmd)
		case <-ticker.C:
			g.UpdateHeadless()
		}
	}
}

// applyCommand maps a terminal command to a game control.
func applyCommand(g *game.Game, cmd terminal.Command) {
	const step = 0.05
	switch cmd {
	case terminal.CmdToggle:
		g.ToggleReactor()
	case terminal.CmdScram:
		g.EmergencyShutdown()
	case terminal.CmdPowerUp:
		g.AdjustPower(step)
	case terminal.CmdPowerDown:
		g.AdjustPower(-step)
	case terminal.CmdCoolantUp:
		g.AdjustCoolant(step)
	case terminal.CmdCoolantDown:
		g.AdjustCoolant(-step)
	case terminal.CmdRodsOut:
		g.AdjustRods(step)
	case terminal.CmdRodsIn:
		g.AdjustRods(-step)
	}
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
