package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/fibro/components"
)

var testThresholds = inhibitionThresholds{entry: 1.0, exit: 0.6}

func TestCycleBounds(t *testing.T) {
	tests := []struct {
		duration int32
		want     cycleBounds
	}{
		{60, cycleBounds{g1End: 24, sEnd: 43, g2End: 53, earlyG1End: 2}},
		{600, cycleBounds{g1End: 240, sEnd: 438, g2End: 540, earlyG1End: 12}},
		{3, cycleBounds{g1End: 1, sEnd: 2, g2End: 3, earlyG1End: 2}},
	}
	for _, tc := range tests {
		if got := newCycleBounds(tc.duration); got != tc.want {
			t.Errorf("newCycleBounds(%d) = %+v, want %+v", tc.duration, got, tc.want)
		}
	}
}

func TestNextPhase_MonotonicWithoutInhibition(t *testing.T) {
	for _, d := range []int32{20, 60, 100, 600} {
		b := newCycleBounds(d)
		phase := components.PhaseG1
		var visited []components.Phase
		for ct := int32(0); ct <= d; ct++ {
			next, restart := nextPhase(phase, ct, 0, b, testThresholds)
			if restart {
				t.Fatalf("D=%d ct=%d: unexpected restart", d, ct)
			}
			if next < phase {
				t.Fatalf("D=%d ct=%d: phase went back from %v to %v", d, ct, phase, next)
			}
			if next > phase+1 {
				t.Fatalf("D=%d ct=%d: phase skipped from %v to %v", d, ct, phase, next)
			}
			if len(visited) == 0 || visited[len(visited)-1] != next {
				visited = append(visited, next)
			}
			phase = next
		}
		want := []components.Phase{components.PhaseG1, components.PhaseS, components.PhaseG2, components.PhaseM}
		if len(visited) != len(want) {
			t.Fatalf("D=%d: visited %v, want %v", d, visited, want)
		}
		for i := range want {
			if visited[i] != want[i] {
				t.Fatalf("D=%d: visited %v, want %v", d, visited, want)
			}
		}
	}
}

func TestNextPhase_G0Hysteresis(t *testing.T) {
	b := newCycleBounds(60)
	tests := []struct {
		name        string
		inhibition  float32
		wantPhase   components.Phase
		wantRestart bool
	}{
		{"at entry threshold", 1.0, components.PhaseG0, false},
		{"between thresholds", 0.8, components.PhaseG0, false},
		{"at exit threshold", 0.6, components.PhaseG0, false},
		{"below exit threshold", 0.59, components.PhaseG1, true},
		{"released", 0, components.PhaseG1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// many ticks: a held cell must not flap
			for ct := int32(0); ct < 200; ct += 7 {
				got, restart := nextPhase(components.PhaseG0, ct, tc.inhibition, b, testThresholds)
				if got != tc.wantPhase || restart != tc.wantRestart {
					t.Fatalf("ct=%d: got (%v, %v), want (%v, %v)", ct, got, restart, tc.wantPhase, tc.wantRestart)
				}
			}
		})
	}
}

func TestNextPhase_G0EntryOnlyInEarlyG1(t *testing.T) {
	b := newCycleBounds(600) // earlyG1End = 12
	tests := []struct {
		cycleTime int32
		want      components.Phase
	}{
		{0, components.PhaseG0},
		{11, components.PhaseG0},
		{12, components.PhaseG1},
		{300, components.PhaseS},
	}
	for _, tc := range tests {
		got, _ := nextPhase(components.PhaseG1, tc.cycleTime, 1.0, b, testThresholds)
		if got != tc.want {
			t.Errorf("cycleTime %d: phase %v, want %v", tc.cycleTime, got, tc.want)
		}
	}
}

func TestCoupleSpeed(t *testing.T) {
	const max = float32(1)
	tests := []struct {
		phase components.Phase
		in    float32
		want  float32
	}{
		{components.PhaseG1, 0, 0.1},
		{components.PhaseG1, 0.95, 1},
		{components.PhaseG2, 0.5, 0.475},
		{components.PhaseG0, 0.01, 0},
		{components.PhaseS, 0.3, 0.3},
		{components.PhaseM, 0.3, 0.3},
	}
	for _, tc := range tests {
		if got := coupleSpeed(tc.phase, tc.in, max); math.Abs(float64(got-tc.want)) > 1e-6 {
			t.Errorf("coupleSpeed(%v, %v) = %v, want %v", tc.phase, tc.in, got, tc.want)
		}
	}
}
