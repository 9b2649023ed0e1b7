package systems

import (
	"testing"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/config"
)

// testConfig returns small, single-threaded defaults with one seed cell.
func testConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Cell.MaxCount = 64
	cfg.ECM.MaxCount = 64
	cfg.Init.Mode = config.InitSingle
	cfg.Scenario.Events = nil
	cfg.Parallel.Workers = 1
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func newTestSimulation(t *testing.T, mutate func(*config.Config)) *Simulation {
	t.Helper()
	sim, err := NewSimulation(testConfig(t, mutate), 1)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(sim.Close)
	return sim
}

// assertSentinels checks every dead slot of a fibroblast store.
func assertSentinels(t *testing.T, f *FibroblastStore) {
	t.Helper()
	for i := f.Count(); i < f.MaxCount(); i++ {
		switch {
		case f.pos[i] != components.Sentinel, f.posBuf[i] != components.Sentinel:
			t.Fatalf("slot %d: position not sentinel: %v", i, f.pos[i])
		case f.prev[i] != components.Sentinel:
			t.Fatalf("slot %d: prev not sentinel: %v", i, f.prev[i])
		case f.lastDiv[i] != -1, f.cycleDur[i] != -1:
			t.Fatalf("slot %d: cycle fields not sentinel", i)
		case f.inhibition[i] != -1, f.neighbor[i] != -1:
			t.Fatalf("slot %d: inhibition fields not sentinel", i)
		case f.phase[i] != components.PhaseNone:
			t.Fatalf("slot %d: phase %v, want none", i, f.phase[i])
		case f.movement[i] != components.SentinelMovement:
			t.Fatalf("slot %d: movement not sentinel", i)
		case f.genes[i] != components.SentinelExpression:
			t.Fatalf("slot %d: genes not sentinel", i)
		case f.lastECM[i] != -1, f.ecmPeriod[i] != -1:
			t.Fatalf("slot %d: ecm fields not sentinel", i)
		}
	}
}
