package telemetry

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pthm-cable/fibro/systems"
)

// Phases timed outside the engine's own Step.
const (
	PhaseScenario  = "scenario"
	PhaseTelemetry = "telemetry"
)

// perfPhases is the fixed reporting order of every timed phase.
var perfPhases = []string{
	PhaseScenario,
	systems.PhaseIntegrate,
	systems.PhaseBorders,
	systems.PhaseGrid,
	systems.PhaseCollisions,
	systems.PhasePopulation,
	systems.PhaseCompaction,
	systems.PhaseECMGrid,
	PhaseTelemetry,
}

// PerfPhases returns every timed phase in reporting order.
func PerfPhases() []string { return append([]string(nil), perfPhases...) }

// tickTiming is one recorded tick: wall time overall and per phase slot.
type tickTiming struct {
	total  time.Duration
	phases []time.Duration
	ran    []bool
}

// PerfCollector keeps the most recent ticks' timings in a ring. Phase names
// map to slots; the standard phases are preassigned, other names get a slot
// the first time they are started. It satisfies systems.PhaseRecorder.
type PerfCollector struct {
	names []string
	slot  map[string]int

	ring   []tickTiming
	next   int
	filled int

	cur       tickTiming
	tickStart time.Time
	mark      time.Time
	active    int // running slot, -1 between phases

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector averages over the last window ticks (60 if window < 1).
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	p := &PerfCollector{
		slot:   make(map[string]int, len(perfPhases)),
		ring:   make([]tickTiming, window),
		active: -1,
	}
	for _, name := range perfPhases {
		p.slotOf(name)
	}
	return p
}

func (p *PerfCollector) slotOf(name string) int {
	if k, ok := p.slot[name]; ok {
		return k
	}
	k := len(p.names)
	p.names = append(p.names, name)
	p.slot[name] = k
	return k
}

// StartTick opens a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.mark = p.tickStart
	p.active = -1
	p.cur = tickTiming{
		phases: make([]time.Duration, len(p.names)),
		ran:    make([]bool, len(p.names)),
	}
}

// charge adds the time since the last mark to the running phase.
func (p *PerfCollector) charge(now time.Time) {
	if p.active >= 0 {
		p.cur.phases[p.active] += now.Sub(p.mark)
	}
	p.mark = now
}

// StartPhase closes the running phase and opens the next. A phase started
// more than once in a tick accumulates.
func (p *PerfCollector) StartPhase(phase string) {
	p.charge(time.Now())
	k := p.slotOf(phase)
	for len(p.cur.phases) <= k {
		p.cur.phases = append(p.cur.phases, 0)
		p.cur.ran = append(p.cur.ran, false)
	}
	p.cur.ran[k] = true
	p.active = k
}

// EndTick closes the tick and stores it in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.charge(now)
	p.active = -1
	p.cur.total = now.Sub(p.tickStart)
	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
}

// RecordFrame marks a rendered frame; the gap to the previous one gives FPS.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats is the window summary. Phase maps hold only phases that ran.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // share of the average tick

	FrameDuration time.Duration // windowed mode only
	FPS           float64
}

// Stats summarizes the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	st := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		st.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return st
	}

	sums := make([]time.Duration, len(p.names))
	ran := make([]bool, len(p.names))
	var total time.Duration
	for i, t := range p.ring[:p.filled] {
		total += t.total
		if i == 0 || t.total < st.MinTickDuration {
			st.MinTickDuration = t.total
		}
		st.MaxTickDuration = max(st.MaxTickDuration, t.total)
		for k, d := range t.phases {
			sums[k] += d
			ran[k] = ran[k] || t.ran[k]
		}
	}

	n := time.Duration(p.filled)
	st.AvgTickDuration = total / n
	if st.AvgTickDuration > 0 {
		st.TicksPerSecond = float64(time.Second) / float64(st.AvgTickDuration)
	}
	for k, name := range p.names {
		if !ran[k] {
			continue
		}
		avg := sums[k] / n
		st.PhaseAvg[name] = avg
		if st.AvgTickDuration > 0 {
			st.PhasePct[name] = float64(avg) / float64(st.AvgTickDuration) * 100
		}
	}
	return st
}

// attrs lists the summary for slog, phase shares rounded to 0.1% and
// omitted below minPct.
func (s PerfStats) attrs(minPct float64) []slog.Attr {
	out := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", math.Round(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		out = append(out, slog.Float64("fps", math.Round(s.FPS)))
	}
	for _, phase := range perfPhases {
		if pct, ok := s.PhasePct[phase]; ok && pct >= minPct {
			out = append(out, slog.Float64(phase+"_pct", math.Round(pct*10)/10))
		}
	}
	return out
}

// LogStats logs the summary at info level, skipping negligible phases.
func (s PerfStats) LogStats() {
	slog.LogAttrs(context.Background(), slog.LevelInfo, "perf", s.attrs(0.1)...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(s.attrs(0)...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd     int32   `csv:"window_end"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	MinTickUS     int64   `csv:"min_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	FPS           float64 `csv:"fps"`
	ScenarioPct   float64 `csv:"scenario_pct"`
	IntegratePct  float64 `csv:"integrate_pct"`
	BordersPct    float64 `csv:"borders_pct"`
	GridPct       float64 `csv:"grid_pct"`
	CollisionsPct float64 `csv:"collisions_pct"`
	PopulationPct float64 `csv:"population_pct"`
	CompactionPct float64 `csv:"compaction_pct"`
	ECMGridPct    float64 `csv:"ecm_grid_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the summary into a perf.csv row ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgTickUS:     s.AvgTickDuration.Microseconds(),
		MinTickUS:     s.MinTickDuration.Microseconds(),
		MaxTickUS:     s.MaxTickDuration.Microseconds(),
		TicksPerSec:   s.TicksPerSecond,
		FPS:           s.FPS,
		ScenarioPct:   s.PhasePct[PhaseScenario],
		IntegratePct:  s.PhasePct[systems.PhaseIntegrate],
		BordersPct:    s.PhasePct[systems.PhaseBorders],
		GridPct:       s.PhasePct[systems.PhaseGrid],
		CollisionsPct: s.PhasePct[systems.PhaseCollisions],
		PopulationPct: s.PhasePct[systems.PhasePopulation],
		CompactionPct: s.PhasePct[systems.PhaseCompaction],
		ECMGridPct:    s.PhasePct[systems.PhaseECMGrid],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
	}
}
