package game

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/fibro/config"
	"github.com/pthm-cable/fibro/telemetry"
)

func testOptions(t *testing.T, events []config.EventConfig) Options {
	t.Helper()
	cfg := config.Default()
	cfg.Cell.MaxCount = 256
	cfg.ECM.MaxCount = 512
	cfg.Init.Mode = config.InitScatter
	cfg.Init.Count = 50
	cfg.Scenario.Events = events
	cfg.Parallel.Workers = 1
	cfg.Telemetry.StatsWindow = 5
	return Options{
		Config:         cfg,
		Seed:           7,
		Headless:       true,
		StepsPerUpdate: 1,
		CheckpointDir:  t.TempDir(),
	}
}

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	g, err := NewGameWithOptions(opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func run(g *Game, steps int) {
	for range steps {
		g.UpdateHeadless()
	}
}

func TestGame_HeadlessTelemetry(t *testing.T) {
	opts := testOptions(t, []config.EventConfig{
		{Step: 2, Kind: config.EventWound, Shape: "line", X: 0.5, Y: 0.5, SizeUM: 1000},
	})
	opts.OutputDir = t.TempDir()
	var windows []telemetry.WindowStats
	opts.StatsCallback = func(s telemetry.WindowStats) { windows = append(windows, s) }

	g := newTestGame(t, opts)
	run(g, 12)

	if g.Tick() != 12 {
		t.Fatalf("tick = %d, want 12", g.Tick())
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	if windows[0].WindowEndTick != 5 || windows[1].WindowEndTick != 10 {
		t.Errorf("window ends = %d, %d; want 5, 10", windows[0].WindowEndTick, windows[1].WindowEndTick)
	}
	if g.LastStats().WindowEndTick != 10 {
		t.Errorf("last stats end = %d, want 10", g.LastStats().WindowEndTick)
	}

	initial, ok := g.meter.Initial()
	if !ok || initial <= 0 {
		t.Fatalf("initial wound area = %v, %v; want positive", initial, ok)
	}
	if windows[0].WoundAreaMM2 <= 0 {
		t.Errorf("wound area = %v, want positive", windows[0].WoundAreaMM2)
	}

	data, err := os.ReadFile(filepath.Join(opts.OutputDir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("read telemetry.csv: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Errorf("telemetry.csv has %d lines, want header plus 2 rows", lines)
	}
}

func TestGame_CheckpointResume(t *testing.T) {
	events := []config.EventConfig{
		{Step: 2, Kind: config.EventWound, Shape: "circle", X: 0.5, Y: 0.5, SizeUM: 800},
		{Step: 4, Kind: config.EventCheckpoint},
	}
	opts := testOptions(t, events)
	a := newTestGame(t, opts)
	run(a, 10)

	saves, err := filepath.Glob(filepath.Join(opts.CheckpointDir, "save_*"))
	if err != nil || len(saves) != 1 {
		t.Fatalf("checkpoint dirs = %v (err %v), want exactly one", saves, err)
	}

	resumed := testOptions(t, events)
	resumed.Seed = 99
	resumed.LoadCheckpoint = saves[0]
	b := newTestGame(t, resumed)

	if b.Tick() != 5 {
		t.Fatalf("resumed tick = %d, want 5", b.Tick())
	}
	if b.scenario.Pending() != 0 {
		t.Errorf("pending events after resume = %d, want 0", b.scenario.Pending())
	}

	run(b, 5)
	fa, fb := a.Simulation().Fibroblasts, b.Simulation().Fibroblasts
	if fa.Count() != fb.Count() {
		t.Fatalf("count = %d after resume, want %d", fb.Count(), fa.Count())
	}
	pa, pb := fa.Positions(), fb.Positions()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("cell %d at %v after resume, want %v", i, pb[i], pa[i])
		}
	}
}

func TestGame_LoadMissingCheckpoint(t *testing.T) {
	opts := testOptions(t, nil)
	opts.LoadCheckpoint = filepath.Join(t.TempDir(), "nope")
	if _, err := NewGameWithOptions(opts); err == nil {
		t.Fatal("expected an error for a missing checkpoint")
	}
}

func TestGame_FrameCapture(t *testing.T) {
	opts := testOptions(t, nil)
	opts.OutputDir = t.TempDir()
	opts.FrameEvery = 4
	g := newTestGame(t, opts)
	run(g, 9)

	frames, err := filepath.Glob(filepath.Join(opts.OutputDir, "frames", "frame_*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Fatalf("frames = %v, want steps 4 and 8", frames)
	}
	if filepath.Base(frames[0]) != "frame_000004.png" || filepath.Base(frames[1]) != "frame_000008.png" {
		t.Errorf("frames = %v", frames)
	}
}

func TestGame_PerfLog(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriter(&buf)
	t.Cleanup(func() { SetLogWriter(nil) })

	opts := testOptions(t, nil)
	opts.PerfLog = true
	g := newTestGame(t, opts)
	run(g, 5)

	out := buf.String()
	for _, want := range []string{"=== Tick 5 ===", "=== Perf @ Tick 5", "Phases: G0="} {
		if !strings.Contains(out, want) {
			t.Errorf("perf log missing %q:\n%s", want, out)
		}
	}
}
