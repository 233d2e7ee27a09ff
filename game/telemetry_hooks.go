package game

import (
	"log/slog"
)

// flushTelemetry checks if the stats window should be flushed and handles events.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.simTime)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, ev := range g.eventDetector.Check(stats) {
		if g.logStats {
			ev.LogEvent()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteEvent(ev); err != nil {
				slog.Error("failed to write event", "error", err)
			}
		}
	}
}
