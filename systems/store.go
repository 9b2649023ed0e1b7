// Package systems implements the particle engine: agent stores, the spatial
// grid, the worker pool and the per-tick simulation driver.
package systems

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/pthm-cable/fibro/components"
)

// Store is a fixed-capacity, index-addressed container for one agent species.
// Indices below Count are alive; every index at or above Count holds sentinels.
// Species-specific fields are contributed by registered layers.
type Store struct {
	name     string
	maxCount int
	count    atomic.Int32

	pos    []components.Vec2
	posBuf []components.Vec2

	deletion []bool
	pending  bool
	written  int

	inGrid []bool
	grid   *SpatialGrid
	pool   *Pool
	seed   uint64
	rng    *rand.Rand
	layers []Layer
}

// NewStore creates an empty store. The grid and pool may be shared with other stores
// only if passes never overlap.
func NewStore(name string, maxCount int, grid *SpatialGrid, pool *Pool, seed uint64) *Store {
	s := &Store{
		name:     name,
		maxCount: maxCount,
		pos:      make([]components.Vec2, maxCount),
		posBuf:   make([]components.Vec2, maxCount),
		deletion: make([]bool, maxCount),
		inGrid:   make([]bool, maxCount),
		grid:     grid,
		pool:     pool,
		seed:     seed,
		rng:      rand.New(rand.NewPCG(seed, 0x5EED)),
	}
	for i := range s.pos {
		s.pos[i] = components.Sentinel
		s.posBuf[i] = components.Sentinel
	}
	return s
}

// AddLayer registers a field layer and clears its arrays to sentinels.
func (s *Store) AddLayer(l Layer) {
	s.layers = append(s.layers, l)
	for i := 0; i < s.maxCount; i++ {
		l.Clear(i)
	}
}

// Name returns the store tag used for checkpoints and logs.
func (s *Store) Name() string { return s.name }

// Count returns the number of live agents.
func (s *Store) Count() int { return int(s.count.Load()) }

// MaxCount returns the store capacity.
func (s *Store) MaxCount() int { return s.maxCount }

// Grid returns the store's spatial grid.
func (s *Store) Grid() *SpatialGrid { return s.grid }

// Position returns the position at index i.
func (s *Store) Position(i int) components.Vec2 { return s.pos[i] }

// Positions returns a copy of the live positions.
func (s *Store) Positions() []components.Vec2 {
	return append([]components.Vec2(nil), s.pos[:s.Count()]...)
}

// PendingDeletion reports whether a mark is waiting to be compacted.
func (s *Store) PendingDeletion() bool { return s.pending }

// Create adds an agent at (x, y). It returns false without mutating anything when
// the position is outside the open unit square or the store is full.
func (s *Store) Create(x, y float32) bool {
	return s.createWith(x, y, s.rng)
}

// createWith is Create with a caller-owned RNG, safe for concurrent use from a pass.
func (s *Store) createWith(x, y float32, rng *rand.Rand) bool {
	_, ok := s.spawn(components.Vec2{X: x, Y: y}, rng)
	return ok
}

// spawn reserves an index for p and runs every layer's Init on it.
func (s *Store) spawn(p components.Vec2, rng *rand.Rand) (int, bool) {
	if !p.Inside() {
		return 0, false
	}
	i, ok := s.reserve()
	if !ok {
		return 0, false
	}
	s.pos[i] = p
	for _, l := range s.layers {
		l.Init(i, p, rng)
	}
	return i, true
}

// reserve claims the next free index; count never exceeds maxCount, even transiently.
func (s *Store) reserve() (int, bool) {
	for {
		n := s.count.Load()
		if int(n) >= s.maxCount {
			return 0, false
		}
		if s.count.CompareAndSwap(n, n+1) {
			return int(n), true
		}
	}
}

// MarkForDeletion flags every live agent inside the shape centred on (cx, cy).
// Flags from a previous uncompacted mark are overwritten.
func (s *Store) MarkForDeletion(cx, cy, size float32, shape components.Shape) int {
	n := s.Count()
	marked := 0
	for i := 0; i < n; i++ {
		p := s.pos[i]
		hit := shape.Contains(p.X-cx, p.Y-cy, size)
		s.deletion[i] = hit
		if hit {
			marked++
		}
	}
	s.pending = marked > 0
	return marked
}

// WriteBuffer copies every unflagged agent, in index order, into the next free
// buffer slot. It must complete before CopyBackBuffer.
func (s *Store) WriteBuffer() {
	n := s.Count()
	w := 0
	for i := 0; i < n; i++ {
		if s.deletion[i] {
			continue
		}
		s.posBuf[w] = s.pos[i]
		for _, l := range s.layers {
			l.CompactWrite(w, i)
		}
		w++
	}
	s.written = w
}

// CopyBackBuffer restores the buffer over the primary arrays, sets Count to the
// surviving count and writes sentinels at every freed index.
func (s *Store) CopyBackBuffer() {
	old := s.Count()
	w := s.written
	s.pool.Run(old, func(lo, hi int, _ *Worker) {
		for i := lo; i < hi; i++ {
			s.deletion[i] = false
			if i < w {
				s.pos[i] = s.posBuf[i]
				for _, l := range s.layers {
					l.CompactRestore(i)
				}
				continue
			}
			s.clear(i)
		}
	})
	s.count.Store(int32(w))
	s.pending = false
}

func (s *Store) clear(i int) {
	s.pos[i] = components.Sentinel
	s.posBuf[i] = components.Sentinel
	s.inGrid[i] = false
	for _, l := range s.layers {
		l.Clear(i)
	}
}

// Compact runs WriteBuffer, CopyBackBuffer and RebuildGrid and returns the number removed.
func (s *Store) Compact() int {
	before := s.Count()
	s.WriteBuffer()
	s.CopyBackBuffer()
	s.RebuildGrid()
	return before - s.Count()
}

// RebuildGrid clears the grid and inserts every live agent.
// Agents dropped by a full bucket are remembered as outside the grid.
func (s *Store) RebuildGrid() {
	s.grid.Clear()
	s.pool.Run(s.Count(), func(lo, hi int, _ *Worker) {
		for i := lo; i < hi; i++ {
			s.inGrid[i] = s.grid.Insert(i, s.pos[i])
		}
	})
}

// ExportState returns a snapshot of every field array plus Count.
func (s *Store) ExportState() *State {
	st := NewState()
	st.Count = s.count.Load()
	exportField(st.Vec2, "position", s.pos)
	exportField(st.Vec2, "position_buffer", s.posBuf)
	exportField(st.Bool, "deletion", s.deletion)
	for _, l := range s.layers {
		l.Export(st)
	}
	return st
}

// ValidateState checks that st has every field of this store with the right shape.
func (s *Store) ValidateState(st *State) error {
	if st == nil {
		return fmt.Errorf("%s: %w: nil state", s.name, ErrStateMismatch)
	}
	if st.Count < 0 || int(st.Count) > s.maxCount {
		return fmt.Errorf("%s: %w: count %d outside [0, %d]", s.name, ErrStateMismatch, st.Count, s.maxCount)
	}
	checks := []error{
		checkField(st.Vec2, "position", s.maxCount),
		checkField(st.Vec2, "position_buffer", s.maxCount),
		checkField(st.Bool, "deletion", s.maxCount),
	}
	for _, l := range s.layers {
		checks = append(checks, l.Validate(st))
	}
	for _, err := range checks {
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// ImportState replaces every field with the snapshot. The snapshot is fully
// validated first; on error nothing is modified.
func (s *Store) ImportState(st *State) error {
	if err := s.ValidateState(st); err != nil {
		return err
	}

	copy(s.pos, st.Vec2["position"])
	copy(s.posBuf, st.Vec2["position_buffer"])
	copy(s.deletion, st.Bool["deletion"])
	for _, l := range s.layers {
		l.Import(st)
	}
	s.count.Store(st.Count)
	s.pending = false
	for i := 0; i < int(st.Count); i++ {
		if s.deletion[i] {
			s.pending = true
			break
		}
	}
	s.RebuildGrid()
	return nil
}

// agentRand reseeds the worker RNG for agent i on the given step.
func (s *Store) agentRand(w *Worker, step int32, i int) *rand.Rand {
	w.Reseed(s.seed, step, i)
	return w.Rand
}
