package systems

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/config"
)

// Phase names reported to a PhaseRecorder during Step.
const (
	PhaseIntegrate  = "integrate"
	PhaseBorders    = "borders"
	PhaseGrid       = "grid"
	PhaseCollisions = "collisions"
	PhasePopulation = "population"
	PhaseCompaction = "compaction"
	PhaseECMGrid    = "ecm_grid"
)

const ecmSeedSalt = 0xEC

// PhaseRecorder receives a call at the start of every phase of a tick.
type PhaseRecorder interface {
	StartPhase(phase string)
}

// Checkpoint is the full engine state: the step counter plus every store.
type Checkpoint struct {
	Step   int32             `msgpack:"step"`
	Seed   uint64            `msgpack:"seed"`
	Stores map[string]*State `msgpack:"stores"`
}

// WoundResult reports how many agents a wound removed.
type WoundResult struct {
	Cells int
	ECM   int
}

// Simulation owns the fibroblast and ECM stores and advances them tick by tick.
type Simulation struct {
	cfg      *config.Config
	pool     *Pool
	seed     uint64
	step     int32
	substeps int
	recorder PhaseRecorder

	Fibroblasts *FibroblastStore
	ECM         *ECMStore
}

// NewSimulation validates cfg, allocates both stores and seeds the initial population.
func NewSimulation(cfg *config.Config, seed uint64) (*Simulation, error) {
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	pool := NewPool(cfg.Parallel.Workers, cfg.Parallel.Threshold)
	ecm := NewECMStore(cfg, pool, seed^ecmSeedSalt)
	s := &Simulation{
		cfg:         cfg,
		pool:        pool,
		seed:        seed,
		substeps:    cfg.Domain.Substeps,
		ECM:         ecm,
		Fibroblasts: NewFibroblastStore(cfg, pool, seed, ecm),
	}
	if err := s.populate(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// populate places the initial fibroblasts according to init.mode.
func (s *Simulation) populate() error {
	f := s.Fibroblasts
	rng := rand.New(rand.NewPCG(s.seed, 0x1417))
	switch s.cfg.Init.Mode {
	case config.InitSingle:
		f.Create(0.5, 0.5)
	case config.InitScatter:
		for k := 0; k < s.cfg.Init.Count; k++ {
			if !f.Create(rng.Float32(), rng.Float32()) {
				break
			}
		}
	case config.InitConfluent:
		spacing := 2 * s.cfg.Cell.Radius
		rowStep := spacing * math.Sqrt(3) / 2
		row := 0
	fill:
		for y := s.cfg.Cell.Radius; y < 1; y += rowStep {
			shift := 0.0
			if row%2 == 1 {
				shift = spacing / 2
			}
			for x := s.cfg.Cell.Radius + shift; x < 1; x += spacing {
				if f.Count() == f.MaxCount() {
					break fill
				}
				f.Create(float32(x), float32(y))
			}
			row++
		}
	default:
		return fmt.Errorf("%w: unknown init mode %q", config.ErrInvalidConfig, s.cfg.Init.Mode)
	}
	f.RebuildGrid()
	s.ECM.RebuildGrid()
	return nil
}

// SetRecorder installs a phase timer. nil disables timing.
func (s *Simulation) SetRecorder(r PhaseRecorder) { s.recorder = r }

func (s *Simulation) phase(name string) {
	if s.recorder != nil {
		s.recorder.StartPhase(name)
	}
}

// StepCount returns the number of completed ticks.
func (s *Simulation) StepCount() int32 { return s.step }

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() *config.Config { return s.cfg }

// Step advances the simulation by one tick.
func (s *Simulation) Step() {
	s.step++
	f := s.Fibroblasts
	f.SetStep(s.step)

	for k := 0; k < s.substeps; k++ {
		s.phase(PhaseIntegrate)
		f.Integrate()
		s.phase(PhaseBorders)
		f.ApplyBorders()
		s.phase(PhaseGrid)
		f.RebuildGrid()
		s.phase(PhaseCollisions)
		f.ResolveCollisions()
	}

	s.phase(PhasePopulation)
	f.UpdatePopulation(s.step)

	s.phase(PhaseCompaction)
	if f.PendingDeletion() {
		f.WriteBuffer()
		f.CopyBackBuffer()
	}
	if s.ECM.PendingDeletion() {
		s.ECM.WriteBuffer()
		s.ECM.CopyBackBuffer()
	}

	s.phase(PhaseECMGrid)
	s.ECM.RebuildGrid()
	s.phase(PhaseGrid)
	f.RebuildGrid()
}

// Seed creates a fibroblast at (x, y) and refreshes its grid.
func (s *Simulation) Seed(x, y float32) bool {
	s.Fibroblasts.SetStep(s.step)
	if !s.Fibroblasts.Create(x, y) {
		return false
	}
	s.Fibroblasts.RebuildGrid()
	return true
}

// Deposit creates an ECM deposit at (x, y) and refreshes its grid.
func (s *Simulation) Deposit(x, y float32) bool {
	if !s.ECM.Create(x, y) {
		return false
	}
	s.ECM.RebuildGrid()
	return true
}

// Wound removes every fibroblast and deposit inside the shape centred on (x, y).
// size is in unit-domain coordinates.
func (s *Simulation) Wound(x, y, size float32, shape components.Shape) WoundResult {
	var res WoundResult
	if s.Fibroblasts.MarkForDeletion(x, y, size, shape) > 0 {
		res.Cells = s.Fibroblasts.Compact()
	}
	if s.ECM.MarkForDeletion(x, y, size, shape) > 0 {
		res.ECM = s.ECM.Compact()
	}
	return res
}

// Export snapshots the whole engine.
func (s *Simulation) Export() *Checkpoint {
	return &Checkpoint{
		Step: s.step,
		Seed: s.seed,
		Stores: map[string]*State{
			s.Fibroblasts.Name(): s.Fibroblasts.ExportState(),
			s.ECM.Name():         s.ECM.ExportState(),
		},
	}
}

// Import restores a checkpoint. Every store is validated before any is modified.
func (s *Simulation) Import(cp *Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("%w: nil checkpoint", ErrStateMismatch)
	}
	stores := []*Store{s.Fibroblasts.Store, s.ECM.Store}
	for _, st := range stores {
		if err := st.ValidateState(cp.Stores[st.Name()]); err != nil {
			return err
		}
	}
	for _, st := range stores {
		if err := st.ImportState(cp.Stores[st.Name()]); err != nil {
			return err
		}
	}
	s.step = cp.Step
	s.seed = cp.Seed
	s.Fibroblasts.seed = cp.Seed
	s.ECM.seed = cp.Seed ^ ecmSeedSalt
	s.Fibroblasts.SetStep(s.step)
	return nil
}

// Close stops the worker pool.
func (s *Simulation) Close() { s.pool.Close() }
