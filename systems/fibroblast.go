package systems

import (
	"math/rand/v2"
	"sync/atomic"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/config"
)

// NeverPeriod is the deposition period of a fibroblast in saturated matrix.
const NeverPeriod float32 = 1e8

// FibroblastStore is a CellStore whose cells lay ECM deposits at a cadence
// that slows with local matrix density.
type FibroblastStore struct {
	*CellStore

	lastECM        []int32
	lastECMBuf     []int32
	ecmPeriod      []float32
	ecmPeriodBuf   []float32
	lastDeposit    []components.Vec2
	lastDepositBuf []components.Vec2

	minPeriod int
	threshold int
	detection float32

	deposits atomic.Int32
}

// NewFibroblastStore creates the fibroblast store depositing into ecm.
func NewFibroblastStore(cfg *config.Config, pool *Pool, seed uint64, ecm *ECMStore) *FibroblastStore {
	n := cfg.Cell.MaxCount
	f := &FibroblastStore{
		CellStore:      NewCellStore("fibroblast", cfg, pool, seed, ecm),
		lastECM:        make([]int32, n),
		lastECMBuf:     make([]int32, n),
		ecmPeriod:      make([]float32, n),
		ecmPeriodBuf:   make([]float32, n),
		lastDeposit:    make([]components.Vec2, n),
		lastDepositBuf: make([]components.Vec2, n),
		minPeriod:      cfg.ECM.MinPeriod,
		threshold:      cfg.ECM.Threshold,
		detection:      float32(cfg.ECM.DetectionRadius),
	}
	f.AddLayer(fibroblastLayer{f})
	f.AddBehavior(f.depositECM)
	return f
}

// ECMPeriod returns the current deposition period of fibroblast i.
func (f *FibroblastStore) ECMPeriod(i int) float32 { return f.ecmPeriod[i] }

// Deposits returns the number of deposits laid in the last UpdatePopulation.
func (f *FibroblastStore) Deposits() int { return int(f.deposits.Load()) }

// UpdatePopulation runs the cell update with deposition counting reset.
func (f *FibroblastStore) UpdatePopulation(step int32) {
	f.deposits.Store(0)
	f.CellStore.UpdatePopulation(step)
}

// depositECM recomputes the period from nearby matrix and lays a deposit when due.
func (f *FibroblastStore) depositECM(i int, w *Worker, rng *rand.Rand) {
	p := f.pos[i]
	var nearby int
	nearby, w.Neighbors = f.ecm.CountWithin(w.Neighbors, p, f.detection)

	period := float32(f.minPeriod + nearby)
	if nearby > f.threshold {
		period = NeverPeriod
	}
	f.ecmPeriod[i] = period

	if float32(f.step-f.lastECM[i]) < period {
		return
	}
	if f.ecm.deposit(p, f.lastDeposit[i], rng) {
		f.lastECM[i] = f.step
		f.lastDeposit[i] = p
		f.deposits.Add(1)
	}
}

// fibroblastLayer owns the deposition fields.
type fibroblastLayer struct{ f *FibroblastStore }

func (l fibroblastLayer) Init(i int, _ components.Vec2, _ *rand.Rand) {
	l.f.lastECM[i] = l.f.step
	l.f.ecmPeriod[i] = 0
	l.f.lastDeposit[i] = components.Sentinel
}

func (l fibroblastLayer) Clear(i int) {
	f := l.f
	f.lastECM[i], f.lastECMBuf[i] = -1, -1
	f.ecmPeriod[i], f.ecmPeriodBuf[i] = -1, -1
	f.lastDeposit[i], f.lastDepositBuf[i] = components.Sentinel, components.Sentinel
}

func (l fibroblastLayer) CompactWrite(dst, src int) {
	f := l.f
	f.lastECMBuf[dst] = f.lastECM[src]
	f.ecmPeriodBuf[dst] = f.ecmPeriod[src]
	f.lastDepositBuf[dst] = f.lastDeposit[src]
}

func (l fibroblastLayer) CompactRestore(i int) {
	f := l.f
	f.lastECM[i] = f.lastECMBuf[i]
	f.ecmPeriod[i] = f.ecmPeriodBuf[i]
	f.lastDeposit[i] = f.lastDepositBuf[i]
}

func (l fibroblastLayer) Export(s *State) {
	f := l.f
	exportField(s.Int32, "last_ecm", f.lastECM)
	exportField(s.Int32, "last_ecm_buffer", f.lastECMBuf)
	exportField(s.Float32, "ecm_period", f.ecmPeriod)
	exportField(s.Float32, "ecm_period_buffer", f.ecmPeriodBuf)
	exportField(s.Vec2, "last_deposit", f.lastDeposit)
	exportField(s.Vec2, "last_deposit_buffer", f.lastDepositBuf)
}

func (l fibroblastLayer) Validate(s *State) error {
	n := l.f.maxCount
	for _, err := range []error{
		checkField(s.Int32, "last_ecm", n),
		checkField(s.Int32, "last_ecm_buffer", n),
		checkField(s.Float32, "ecm_period", n),
		checkField(s.Float32, "ecm_period_buffer", n),
		checkField(s.Vec2, "last_deposit", n),
		checkField(s.Vec2, "last_deposit_buffer", n),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (l fibroblastLayer) Import(s *State) {
	f := l.f
	copy(f.lastECM, s.Int32["last_ecm"])
	copy(f.lastECMBuf, s.Int32["last_ecm_buffer"])
	copy(f.ecmPeriod, s.Float32["ecm_period"])
	copy(f.ecmPeriodBuf, s.Float32["ecm_period_buffer"])
	copy(f.lastDeposit, s.Vec2["last_deposit"])
	copy(f.lastDepositBuf, s.Vec2["last_deposit_buffer"])
}
