package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/systems"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean, std, p10, p50, p90 := Summarize(values)

	if math.Abs(mean-5) > 1e-9 {
		t.Errorf("mean = %v, want 5", mean)
	}
	// sample standard deviation: sqrt(32/7)
	if math.Abs(std-math.Sqrt(32.0/7)) > 1e-9 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(32.0/7))
	}
	if !(p10 <= p50 && p50 <= p90) {
		t.Errorf("percentiles out of order: %v %v %v", p10, p50, p90)
	}
	if values[0] != 2 || values[7] != 9 {
		t.Error("input was reordered")
	}
}

func TestSummarize_Degenerate(t *testing.T) {
	mean, std, _, _, _ := Summarize(nil)
	if mean != 0 || std != 0 {
		t.Errorf("empty: got mean %v std %v", mean, std)
	}
	mean, std, p10, p50, p90 := Summarize([]float64{0.7})
	if mean != 0.7 || std != 0 || p10 != 0.7 || p50 != 0.7 || p90 != 0.7 {
		t.Errorf("single: got %v %v %v %v %v", mean, std, p10, p50, p90)
	}
}

func TestCollector_Flush(t *testing.T) {
	c := NewCollector(10)
	c.RecordTick(2, 5)
	c.RecordTick(1, 0)
	c.RecordWound(systems.WoundResult{Cells: 4, ECM: 7})

	if c.ShouldFlush(9) {
		t.Error("window should not be complete at tick 9")
	}
	if !c.ShouldFlush(10) {
		t.Error("window should be complete at tick 10")
	}

	var e0, e1 components.Expression
	e0[0], e1[0] = 0.2, 0.4
	e0[10], e1[10] = 1, 0
	s := Sample{
		Phases:      []components.Phase{components.PhaseG0, components.PhaseG0, components.PhaseS, components.PhaseM},
		Inhibitions: []float32{0, 0.5, 1, 0.5},
		Expressions: []components.Expression{e0, e1},
		ECMCount:    12,
	}
	stats := c.Flush(10, s, nil)

	checks := []struct {
		name      string
		got, want int
	}{
		{"population", stats.Population, 4},
		{"ecm", stats.ECM, 12},
		{"g0", stats.G0, 2},
		{"g1", stats.G1, 0},
		{"s", stats.S, 1},
		{"m", stats.M, 1},
		{"births", stats.Births, 3},
		{"deposits", stats.Deposits, 5},
		{"cells_removed", stats.CellsRemoved, 4},
		{"ecm_removed", stats.ECMRemoved, 7},
	}
	for _, ck := range checks {
		if ck.got != ck.want {
			t.Errorf("%s = %d, want %d", ck.name, ck.got, ck.want)
		}
	}
	if math.Abs(stats.InhibitionMean-0.5) > 1e-6 {
		t.Errorf("inhibition mean = %v, want 0.5", stats.InhibitionMean)
	}
	if math.Abs(stats.Gene0-0.3) > 1e-6 || math.Abs(stats.Gene10-0.5) > 1e-6 {
		t.Errorf("gene means = %v, %v; want 0.3, 0.5", stats.Gene0, stats.Gene10)
	}

	next := c.Flush(20, Sample{}, nil)
	if next.Births != 0 || next.CellsRemoved != 0 || next.WindowStartTick != 10 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector(10)
	c.RecordTick(3, 3)
	c.Reset(500)

	if c.ShouldFlush(505) {
		t.Error("window should restart at the reset tick")
	}
	stats := c.Flush(510, Sample{}, nil)
	if stats.WindowStartTick != 500 || stats.Births != 0 || stats.Deposits != 0 {
		t.Errorf("reset window = %+v", stats)
	}
}
