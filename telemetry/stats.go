package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int32 `csv:"-"`
	WindowEndTick   int32 `csv:"step"`

	// Counts at window end
	Population int `csv:"population"`
	ECM        int `csv:"ecm"`
	G0         int `csv:"g0"`
	G1         int `csv:"g1"`
	S          int `csv:"s"`
	G2         int `csv:"g2"`
	M          int `csv:"m"`

	// Events during window
	Births       int `csv:"births"`
	Deposits     int `csv:"deposits"`
	CellsRemoved int `csv:"cells_removed"`
	ECMRemoved   int `csv:"ecm_removed"`

	// Wound metrics at window end
	WoundAreaMM2 float64 `csv:"wound_area_mm2"`
	ClosurePct   float64 `csv:"closure_pct"`

	// Contact inhibition distribution at window end
	InhibitionMean float64 `csv:"inhibition_mean"`
	InhibitionStd  float64 `csv:"inhibition_std"`
	InhibitionP10  float64 `csv:"inhibition_p10"`
	InhibitionP50  float64 `csv:"inhibition_p50"`
	InhibitionP90  float64 `csv:"inhibition_p90"`

	// Mean expression per gene channel
	Gene0  float64 `csv:"gene0"`
	Gene1  float64 `csv:"gene1"`
	Gene2  float64 `csv:"gene2"`
	Gene3  float64 `csv:"gene3"`
	Gene4  float64 `csv:"gene4"`
	Gene5  float64 `csv:"gene5"`
	Gene6  float64 `csv:"gene6"`
	Gene7  float64 `csv:"gene7"`
	Gene8  float64 `csv:"gene8"`
	Gene9  float64 `csv:"gene9"`
	Gene10 float64 `csv:"gene10"`
}

// GeneMeans returns pointers to the gene columns in channel order.
func (s *WindowStats) GeneMeans() []*float64 {
	return []*float64{
		&s.Gene0, &s.Gene1, &s.Gene2, &s.Gene3, &s.Gene4, &s.Gene5,
		&s.Gene6, &s.Gene7, &s.Gene8, &s.Gene9, &s.Gene10,
	}
}

// PhaseCounts returns pointers to the phase columns, indexed like components.Phase.
func (s *WindowStats) PhaseCounts() []*int {
	return []*int{&s.G0, &s.G1, &s.S, &s.G2, &s.M}
}

// Percentile returns the p-quantile of sorted data: the smallest sample at
// or above fraction p of the distribution. Empty input yields zero.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Summarize computes mean, sample standard deviation and the 10/50/90th
// percentiles. values is not modified.
func Summarize(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	if n == 1 {
		v := values[0]
		return v, 0, v, v, v
	}

	mean, std = stat.MeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)
	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Int("population", s.Population),
		slog.Int("ecm", s.ECM),
		slog.Int("g0", s.G0),
		slog.Int("g1", s.G1),
		slog.Int("s", s.S),
		slog.Int("g2", s.G2),
		slog.Int("m", s.M),
		slog.Int("births", s.Births),
		slog.Int("deposits", s.Deposits),
		slog.Int("cells_removed", s.CellsRemoved),
		slog.Int("ecm_removed", s.ECMRemoved),
		slog.Float64("wound_area_mm2", s.WoundAreaMM2),
		slog.Float64("closure_pct", s.ClosurePct),
		slog.Float64("inhibition_mean", s.InhibitionMean),
		slog.Float64("inhibition_p90", s.InhibitionP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"step", s.WindowEndTick,
		"population", s.Population,
		"ecm", s.ECM,
		"g0", s.G0,
		"g1", s.G1,
		"s", s.S,
		"g2", s.G2,
		"m", s.M,
		"births", s.Births,
		"deposits", s.Deposits,
		"cells_removed", s.CellsRemoved,
		"wound_area_mm2", s.WoundAreaMM2,
		"closure_pct", s.ClosurePct,
		"inhibition_mean", s.InhibitionMean,
		"inhibition_std", s.InhibitionStd,
	)
}
