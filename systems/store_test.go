package systems

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pthm-cable/fibro/components"
)

func newBareStore(maxCount int) *Store {
	return NewStore("bare", maxCount, NewSpatialGrid(8, 16), NewPool(1, 0), 1)
}

func TestStore_CreateCapacityLimit(t *testing.T) {
	const max, extra = 16, 5
	s := newBareStore(max)
	for i := 0; i < max+extra; i++ {
		ok := s.Create(0.25, 0.75)
		if want := i < max; ok != want {
			t.Fatalf("Create #%d = %v, want %v", i, ok, want)
		}
	}
	if s.Count() != max {
		t.Errorf("Count = %d, want %d", s.Count(), max)
	}
}

func TestStore_CreateRejectsOutOfDomain(t *testing.T) {
	s := newBareStore(4)
	for _, p := range []components.Vec2{{X: 0, Y: 0.5}, {X: 1, Y: 0.5}, {X: 0.5, Y: -0.1}, {X: 0.5, Y: 1.2}} {
		if s.Create(p.X, p.Y) {
			t.Errorf("Create(%v) succeeded, want rejection", p)
		}
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d after rejected creates", s.Count())
	}
	if s.pos[0] != components.Sentinel {
		t.Errorf("slot 0 mutated by rejected create: %v", s.pos[0])
	}
}

func TestStore_ConcurrentCreateUniqueIndices(t *testing.T) {
	const max, goroutines, perG = 100, 8, 50
	s := newBareStore(max)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(uint64(g), 0))
			for k := 0; k < perG; k++ {
				x := (float32(g) + 0.5) / goroutines
				y := (float32(k) + 0.5) / perG
				if s.createWith(x, y, rng) {
					wins.Add(1)
				}
			}
		}(g)
	}
	wg.Wait()

	if s.Count() != max || wins.Load() != max {
		t.Fatalf("Count = %d, successes = %d, want %d", s.Count(), wins.Load(), max)
	}
	seen := make(map[components.Vec2]bool)
	for i := 0; i < s.Count(); i++ {
		if seen[s.pos[i]] {
			t.Fatalf("position %v written twice", s.pos[i])
		}
		seen[s.pos[i]] = true
	}
}

type agentRecord struct {
	pos, prev   components.Vec2
	lastDiv     int32
	cycleDur    int32
	inhibition  float32
	neighbor    float32
	phase       components.Phase
	movement    components.Movement
	genes       components.Expression
	lastECM     int32
	ecmPeriod   float32
	lastDeposit components.Vec2
}

func recordAgent(f *FibroblastStore, i int) agentRecord {
	return agentRecord{
		pos: f.pos[i], prev: f.prev[i],
		lastDiv: f.lastDiv[i], cycleDur: f.cycleDur[i],
		inhibition: f.inhibition[i], neighbor: f.neighbor[i],
		phase: f.phase[i], movement: f.movement[i], genes: f.genes[i],
		lastECM: f.lastECM[i], ecmPeriod: f.ecmPeriod[i], lastDeposit: f.lastDeposit[i],
	}
}

func newTestFibroblasts(t *testing.T, n int) *FibroblastStore {
	t.Helper()
	cfg := testConfig(t, nil)
	pool := NewPool(1, 0)
	f := NewFibroblastStore(cfg, pool, 7, NewECMStore(cfg, pool, 7))
	for i := 0; i < n; i++ {
		if !f.Create(0.05+0.07*float32(i), 0.5) {
			t.Fatalf("Create #%d failed", i)
		}
		// make every field distinguishable
		f.inhibition[i] = float32(i) / 100
		f.lastECM[i] = int32(100 + i)
		f.ecmPeriod[i] = float32(30 + i)
		f.phase[i] = components.Phase(i % components.PhaseCount())
		f.genes[i][3] = float32(i)
	}
	return f
}

func TestStore_CompactionPreservesOrderAndFields(t *testing.T) {
	tests := []struct {
		name    string
		deleted func(i int) bool
	}{
		{"every third", func(i int) bool { return i%3 == 0 }},
		{"none", func(int) bool { return false }},
		{"all", func(int) bool { return true }},
		{"tail", func(i int) bool { return i >= 8 }},
		{"head", func(i int) bool { return i < 4 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestFibroblasts(t, 12)
			var want []agentRecord
			for i := 0; i < f.Count(); i++ {
				f.deletion[i] = tc.deleted(i)
				if !f.deletion[i] {
					want = append(want, recordAgent(f, i))
				}
			}

			f.WriteBuffer()
			f.CopyBackBuffer()

			if f.Count() != len(want) {
				t.Fatalf("Count = %d, want %d", f.Count(), len(want))
			}
			for i, rec := range want {
				if got := recordAgent(f, i); got != rec {
					t.Errorf("slot %d = %+v, want %+v", i, got, rec)
				}
			}
			assertSentinels(t, f)
			for i := 0; i < f.MaxCount(); i++ {
				if f.deletion[i] {
					t.Fatalf("deletion flag left set at %d", i)
				}
			}
		})
	}
}

func TestStore_MarkForDeletionShapes(t *testing.T) {
	tests := []struct {
		name  string
		shape components.Shape
		size  float32
		want  int // agents on the row y=0.5, x=0.05+0.07i, tool centred at x=0.505
	}{
		{"circle", components.ShapeCircle, 0.2, 2},     // 0.47, 0.54
		{"square", components.ShapeSquare, 0.2, 2},     // 0.47, 0.54
		{"line", components.ShapeLine, 0.3, 4},         // 0.40 .. 0.61
		{"triangle", components.ShapeTriangle, 0.2, 2}, // half-width 0.05 at mid height
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestFibroblasts(t, 12)
			marked := f.MarkForDeletion(0.505, 0.5, tc.size, tc.shape)
			if marked != tc.want {
				t.Fatalf("marked %d, want %d", marked, tc.want)
			}
			if !f.PendingDeletion() {
				t.Fatal("PendingDeletion = false after a hit")
			}
			if removed := f.Compact(); removed != tc.want {
				t.Errorf("Compact removed %d, want %d", removed, tc.want)
			}
			assertSentinels(t, f)
		})
	}
}

func TestStore_MarkForDeletionOverwritesFlags(t *testing.T) {
	f := newTestFibroblasts(t, 12)
	f.MarkForDeletion(0.05, 0.5, 0.01, components.ShapeCircle)
	if !f.deletion[0] {
		t.Fatal("first mark missed agent 0")
	}
	f.MarkForDeletion(0.82, 0.5, 0.01, components.ShapeCircle)
	if f.deletion[0] {
		t.Error("second mark kept the flag from the first")
	}
	if !f.deletion[11] {
		t.Error("second mark missed agent 11")
	}
}

func TestStore_StateRoundTrip(t *testing.T) {
	src := newTestFibroblasts(t, 9)
	src.deletion[2] = true
	st := src.ExportState()

	dst := newTestFibroblasts(t, 3)
	if err := dst.ImportState(st); err != nil {
		t.Fatalf("ImportState: %v", err)
	}
	if !reflect.DeepEqual(dst.ExportState(), st) {
		t.Error("re-exported state differs from the imported one")
	}
	if !dst.PendingDeletion() {
		t.Error("pending deletion flag not restored")
	}
}

func TestStore_ImportMismatchLeavesStoreUntouched(t *testing.T) {
	tests := []struct {
		name   string
		mangle func(*State)
	}{
		{"missing field", func(s *State) { delete(s.Float32, "inhibition") }},
		{"short field", func(s *State) { s.Int32["last_ecm"] = s.Int32["last_ecm"][:3] }},
		{"bad genes shape", func(s *State) { s.Float32["genes"] = s.Float32["genes"][:11] }},
		{"count over capacity", func(s *State) { s.Count = 1 << 20 }},
		{"negative count", func(s *State) { s.Count = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := newTestFibroblasts(t, 9).ExportState()
			tc.mangle(st)

			dst := newTestFibroblasts(t, 3)
			before := dst.ExportState()
			err := dst.ImportState(st)
			if !errors.Is(err, ErrStateMismatch) {
				t.Fatalf("ImportState error = %v, want ErrStateMismatch", err)
			}
			if !reflect.DeepEqual(dst.ExportState(), before) {
				t.Error("store modified by a rejected import")
			}
		})
	}
}
