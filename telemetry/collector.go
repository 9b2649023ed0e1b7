// Package telemetry provides wound-closure statistics, bookmarks, phase timing
// and checkpoint files for the fibroblast simulation.
package telemetry

import (
	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/systems"
)

// Sample is the end-of-window view of the engine that a window is summarised from.
type Sample struct {
	Phases      []components.Phase
	Inhibitions []float32
	Expressions []components.Expression
	ECMCount    int
	GridCounts  []int32 // fibroblast bucket occupancy, row-major
}

// SampleOf copies the live fibroblast fields and grid occupancy out of sim.
func SampleOf(sim *systems.Simulation) Sample {
	f := sim.Fibroblasts
	return Sample{
		Phases:      f.Phases(),
		Inhibitions: f.Inhibitions(),
		Expressions: f.Expressions(),
		ECMCount:    sim.ECM.Count(),
		GridCounts:  f.Grid().Counts(),
	}
}

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks     int32
	windowStartTick int32

	// Event counters for current window
	births       int
	deposits     int
	cellsRemoved int
	ecmRemoved   int
}

// NewCollector creates a stats collector that flushes every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int32(windowTicks)}
}

// Reset discards the counters and starts a new window at tick, used when a run resumes from a checkpoint.
func (c *Collector) Reset(tick int32) {
	c.windowStartTick = tick
	c.births = 0
	c.deposits = 0
	c.cellsRemoved = 0
	c.ecmRemoved = 0
}

// RecordTick adds one tick's division and deposition counts.
func (c *Collector) RecordTick(births, deposits int) {
	c.births += births
	c.deposits += deposits
}

// RecordWound adds the agents removed by a wound.
func (c *Collector) RecordWound(r systems.WoundResult) {
	c.cellsRemoved += r.Cells
	c.ecmRemoved += r.ECM
}

// ShouldFlush reports whether the window ending at currentTick is complete.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// meter may be nil, in which case wound columns stay zero.
func (c *Collector) Flush(currentTick int32, s Sample, meter *WoundMeter) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Population:      len(s.Phases),
		ECM:             s.ECMCount,
		Births:          c.births,
		Deposits:        c.deposits,
		CellsRemoved:    c.cellsRemoved,
		ECMRemoved:      c.ecmRemoved,
	}

	counts := stats.PhaseCounts()
	for _, p := range s.Phases {
		if p >= 0 && int(p) < len(counts) {
			*counts[p]++
		}
	}

	inh := make([]float64, len(s.Inhibitions))
	for i, v := range s.Inhibitions {
		inh[i] = float64(v)
	}
	stats.InhibitionMean, stats.InhibitionStd, stats.InhibitionP10, stats.InhibitionP50, stats.InhibitionP90 = Summarize(inh)

	if n := len(s.Expressions); n > 0 {
		var sums [components.GeneCount]float64
		for _, e := range s.Expressions {
			for g, v := range e {
				sums[g] += float64(v)
			}
		}
		for g, dst := range stats.GeneMeans() {
			*dst = sums[g] / float64(n)
		}
	}

	if meter != nil && s.GridCounts != nil {
		stats.WoundAreaMM2 = meter.Area(s.GridCounts)
		stats.ClosurePct = meter.Closure(stats.WoundAreaMM2)
	}

	c.windowStartTick = currentTick
	c.births = 0
	c.deposits = 0
	c.cellsRemoved = 0
	c.ecmRemoved = 0

	return stats
}
