package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pthm-cable/fibro/config"
	"github.com/pthm-cable/fibro/systems"
)

func newCheckpointSim(t *testing.T, seed uint64) *systems.Simulation {
	t.Helper()
	cfg := config.Default()
	cfg.Cell.MaxCount = 48
	cfg.ECM.MaxCount = 48
	cfg.Init.Mode = config.InitScatter
	cfg.Init.Count = 12
	cfg.Scenario.Events = nil
	cfg.Parallel.Workers = 1
	sim, err := systems.NewSimulation(cfg, seed)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(sim.Close)
	return sim
}

func TestCheckpointSaveLoad(t *testing.T) {
	root := t.TempDir()
	sim := newCheckpointSim(t, 11)
	for i := 0; i < 20; i++ {
		sim.Step()
	}
	sim.Deposit(0.3, 0.3)

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	dir, err := SaveCheckpoint(sim.Export(), root, "wound made", now)
	if err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(dir), "save_2026-03-04_05-06-07_20") {
		t.Errorf("unexpected directory name %q", filepath.Base(dir))
	}
	for _, name := range []string{"meta.msgpack", "fibroblast_state.msgpack", "ecm_state.msgpack"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	cp, err := LoadCheckpoint(dir)
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if cp.Step != 20 || cp.Seed != 11 {
		t.Errorf("step/seed = %d/%d, want 20/11", cp.Step, cp.Seed)
	}

	restored := newCheckpointSim(t, 99)
	if err := restored.Import(cp); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if restored.Fibroblasts.Count() != sim.Fibroblasts.Count() || restored.ECM.Count() != sim.ECM.Count() {
		t.Fatalf("counts differ after load: %d/%d vs %d/%d",
			restored.Fibroblasts.Count(), restored.ECM.Count(), sim.Fibroblasts.Count(), sim.ECM.Count())
	}
	for i := 0; i < sim.Fibroblasts.Count(); i++ {
		if restored.Fibroblasts.Position(i) != sim.Fibroblasts.Position(i) {
			t.Fatalf("cell %d position %v, want %v", i, restored.Fibroblasts.Position(i), sim.Fibroblasts.Position(i))
		}
	}

	for i := 0; i < 15; i++ {
		sim.Step()
		restored.Step()
	}
	for i := 0; i < sim.Fibroblasts.Count(); i++ {
		if restored.Fibroblasts.Position(i) != sim.Fibroblasts.Position(i) {
			t.Fatalf("runs diverged at cell %d after reload", i)
		}
	}
}

func TestLoadCheckpoint_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		if _, err := LoadCheckpoint(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("wrong version", func(t *testing.T) {
		dir := t.TempDir()
		data, err := msgpack.Marshal(&CheckpointMeta{Version: CheckpointVersion + 1})
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "meta.msgpack"), data, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadCheckpoint(dir); !errors.Is(err, ErrCheckpointVersion) {
			t.Errorf("err = %v, want ErrCheckpointVersion", err)
		}
	})

	t.Run("missing store file", func(t *testing.T) {
		sim := newCheckpointSim(t, 5)
		dir, err := SaveCheckpoint(sim.Export(), t.TempDir(), "", time.Now())
		if err != nil {
			t.Fatal(err)
		}
		if err := os.Remove(filepath.Join(dir, "ecm_state.msgpack")); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadCheckpoint(dir); err == nil {
			t.Error("expected error for missing store file")
		}
	})
}
