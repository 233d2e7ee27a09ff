package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// EventType identifies the kind of detected event.
type EventType string

const (
	EventScram       EventType = "scram"
	EventCritical    EventType = "critical"
	EventSaturated   EventType = "saturated"
	EventSteadyState EventType = "steady_state"
)

// Event is a notable moment detected at a window boundary.
type Event struct {
	Type        EventType `csv:"type"`
	Tick        int32     `csv:"tick"`
	SimTimeSec  float64   `csv:"sim_time"`
	Description string    `csv:"description"`
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	slog.Info("event",
		"type", string(e.Type),
		"tick", e.Tick,
		"sim_time", e.SimTimeSec,
		"description", e.Description,
	)
}

// EventConfig tunes steady-state detection.
type EventConfig struct {
	SteadyWindows   int     // Consecutive windows near the estimate
	SteadyTolerance float64 // Max relative error against the estimate
	MinIntensity    float64 // Below this the field is too sparse to judge
}

// EventDetector watches consecutive windows for transitions.
type EventDetector struct {
	cfg EventConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	steadyCount int
}

// NewEventDetector creates a detector with the given history size.
func NewEventDetector(historySize int, cfg EventConfig) *EventDetector {
	if cfg.SteadyWindows < 1 {
		cfg.SteadyWindows = 1
	}
	if historySize < cfg.SteadyWindows {
		historySize = cfg.SteadyWindows
	}
	return &EventDetector{
		cfg:         cfg,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered events.
func (d *EventDetector) Check(stats WindowStats) []Event {
	var events []Event
	prev, hasPrev := d.previous()

	if stats.Scrams > 0 {
		events = append(events, d.event(EventScram, stats,
			fmt.Sprintf("Automatic shutdown at %.0fC", stats.Temperature)))
	}

	if stats.CriticalTicks > 0 && (!hasPrev || prev.CriticalTicks == 0) {
		events = append(events, d.event(EventCritical, stats,
			fmt.Sprintf("Reactor critical for %d ticks, temperature %.0fC", stats.CriticalTicks, stats.Temperature)))
	}

	if stats.Saturated() && (!hasPrev || !prev.Saturated()) {
		events = append(events, d.event(EventSaturated, stats,
			fmt.Sprintf("Particle cap reached at %d, %d dropped, %d suppressed", stats.PopMax, stats.Dropped, stats.Suppressed)))
	}

	d.addToHistory(stats)

	if e := d.checkSteadyState(stats); e != nil {
		events = append(events, *e)
	}

	return events
}

func (d *EventDetector) event(t EventType, stats WindowStats, desc string) Event {
	return Event{
		Type:        t,
		Tick:        stats.WindowEndTick,
		SimTimeSec:  stats.SimTimeSec,
		Description: desc,
	}
}

func (d *EventDetector) previous() (WindowStats, bool) {
	if !d.historyFull && d.historyIdx == 0 {
		return WindowStats{}, false
	}
	idx := (d.historyIdx - 1 + d.historySize) % d.historySize
	return d.history[idx], true
}

func (d *EventDetector) addToHistory(stats WindowStats) {
	d.history[d.historyIdx] = stats
	d.historyIdx = (d.historyIdx + 1) % d.historySize
	if d.historyIdx == 0 {
		d.historyFull = true
	}
}

// recent returns the last n windows, oldest first.
func (d *EventDetector) recent(n int) []WindowStats {
	count := d.historyIdx
	if d.historyFull {
		count = d.historySize
	}
	if n > count {
		n = count
	}
	out := make([]WindowStats, n)
	for i := 0; i < n; i++ {
		out[i] = d.history[(d.historyIdx-n+i+d.historySize)%d.historySize]
	}
	return out
}

func (d *EventDetector) checkSteadyState(stats WindowStats) *Event {
	err := stats.SteadyStateError()
	if stats.IntensityMean < d.cfg.MinIntensity || math.IsNaN(err) || err > d.cfg.SteadyTolerance || stats.Saturated() {
		d.steadyCount = 0
		return nil
	}

	// Intensity must have held still across the run of windows
	lo, hi := stats.IntensityMean, stats.IntensityMean
	for _, h := range d.recent(d.steadyCount + 1) {
		lo = math.Min(lo, h.IntensityMean)
		hi = math.Max(hi, h.IntensityMean)
	}
	if hi-lo > 0.05 {
		d.steadyCount = 0
	}

	d.steadyCount++
	if d.steadyCount == d.cfg.SteadyWindows { // trigger exactly once per run
		return &Event{
			Type:       EventSteadyState,
			Tick:       stats.WindowEndTick,
			SimTimeSec: stats.SimTimeSec,
			Description: fmt.Sprintf("Population %.1f within %.0f%% of estimate %.1f for %d windows",
				stats.PopMean, err*100, stats.SteadyStateEstimate, d.steadyCount),
		}
	}
	return nil
}
