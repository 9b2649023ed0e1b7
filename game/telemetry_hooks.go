package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/fibro/systems"
	"github.com/pthm-cable/fibro/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	tick := g.sim.StepCount()
	if !g.collector.ShouldFlush(tick) {
		return
	}

	stats := g.collector.Flush(tick, telemetry.SampleOf(g.sim), g.meter)
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if g.perfLog {
		g.logWorldState(stats)
		g.logPerfStats(perfStats)
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if bm.Type == telemetry.BookmarkWoundClosed {
			g.saveCheckpoint(string(bm.Type))
		}
	}
}

// recordWound counts the removed agents and makes the post-wound area the
// reference for percent closure. y is the wound centre, whose grid row is
// reported as the wound width.
func (g *Game) recordWound(y float32, removed systems.WoundResult) {
	g.collector.RecordWound(removed)

	counts := g.sim.Fibroblasts.Grid().Counts()
	area := g.meter.Area(counts)
	g.meter.SetInitial(area)
	g.bookmarks.Reset()

	attrs := []any{
		"step", g.sim.StepCount(),
		"area_mm2", area,
		"cells_removed", removed.Cells,
		"ecm_removed", removed.ECM,
	}
	row := int(y * float32(g.cfg.Derived.GridRes))
	if width, err := g.meter.Width(counts, row); err == nil {
		attrs = append(attrs, "width_um", width)
	} else {
		slog.Warn("wound width unavailable", "row", row, "error", err)
	}
	slog.Info("wound recorded", attrs...)
}

// saveCheckpoint writes every store under the checkpoint directory.
func (g *Game) saveCheckpoint(tag string) {
	if g.checkpointDir == "" {
		return
	}
	dir, err := telemetry.SaveCheckpoint(g.sim.Export(), g.checkpointDir, tag, time.Now())
	if err != nil {
		slog.Error("failed to save checkpoint", "error", err)
		return
	}
	slog.Info("checkpoint saved", "dir", dir, "step", g.sim.StepCount(), "tag", tag)
}

// captureFrame writes a coverage frame every frameEvery ticks.
func (g *Game) captureFrame() {
	if g.frames == nil {
		return
	}
	tick := g.sim.StepCount()
	if tick%g.frameEvery != 0 {
		return
	}
	if _, err := g.frames.Write(tick, g.sim.Fibroblasts.Grid().Counts()); err != nil {
		slog.Error("failed to write frame", "tick", tick, "error", err)
	}
}
