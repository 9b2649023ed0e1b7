package game

import (
	"fmt"
	"io"
	"time"

	"github.com/pthm-cable/fibro/telemetry"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logPerfStats prints a per-phase timing table.
func (g *Game) logPerfStats(stats telemetry.PerfStats) {
	Logf("=== Perf @ Tick %d (speed %dx) | %.0f ticks/s ===", g.sim.StepCount(), g.stepsPerUpdate, stats.TicksPerSecond)
	Logf("Total step time: %s (min %s, max %s)",
		stats.AvgTickDuration.Round(time.Microsecond),
		stats.MinTickDuration.Round(time.Microsecond),
		stats.MaxTickDuration.Round(time.Microsecond),
	)
	for _, name := range telemetry.PerfPhases() {
		Logf("  %-12s %10s  %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), stats.PhasePct[name])
	}
	Logf("")
}

// logWorldState prints population, phase and wound figures for a window.
func (g *Game) logWorldState(stats telemetry.WindowStats) {
	Logf("=== Tick %d ===", stats.WindowEndTick)
	Logf("Cells: %d / %d (births %d) | ECM: %d / %d (deposits %d)",
		stats.Population, g.sim.Fibroblasts.MaxCount(), stats.Births,
		stats.ECM, g.sim.ECM.MaxCount(), stats.Deposits)
	Logf("Phases: G0=%d G1=%d S=%d G2=%d M=%d", stats.G0, stats.G1, stats.S, stats.G2, stats.M)
	Logf("Inhibition: mean=%.3f p10=%.3f p50=%.3f p90=%.3f",
		stats.InhibitionMean, stats.InhibitionP10, stats.InhibitionP50, stats.InhibitionP90)
	if _, ok := g.meter.Initial(); ok {
		Logf("Wound: %.4f mm² (%.1f%% closed)", stats.WoundAreaMM2, stats.ClosurePct)
	}
	Logf("")
}
