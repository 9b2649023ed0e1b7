package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fibro/config"
	"github.com/pthm-cable/fibro/game"
	"github.com/pthm-cable/fibro/telemetry"
)

// failedFitness scores runs whose config the engine refuses.
const failedFitness = 1e6

// Targets are the end-of-run observables the calibration fits.
type Targets struct {
	Cells      float64
	ECM        float64
	ClosurePct float64 // 0 = not fitted
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []uint64
	baseConfig *config.Config
	targets    Targets

	mu        sync.Mutex
	lastStats telemetry.WindowStats // mean end-of-run stats of the most recent evaluation
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []uint64, baseCfg *config.Config, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
		targets:    targets,
	}
}

// LastStats returns the seed-averaged final window of the most recent evaluation.
func (fe *FitnessEvaluator) LastStats() telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStats
}

// Evaluate computes fitness for a parameter vector (lower = better): the mean
// over seeds of the squared log errors against the targets.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	fitness := make([]float64, len(fe.seeds))
	finals := make([]telemetry.WindowStats, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			final, ok := fe.runSimulation(x, s)
			if !ok {
				fitness[idx] = failedFitness
				return
			}
			finals[idx] = final
			fitness[idx] = fe.score(final)
		}(i, seed)
	}
	wg.Wait()

	fe.mu.Lock()
	fe.lastStats = meanStats(finals)
	fe.mu.Unlock()

	return stat.Mean(fitness, nil)
}

// runSimulation executes a single headless run and returns its last window.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint64) (telemetry.WindowStats, bool) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	var last telemetry.WindowStats
	var windows int
	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		Headless:       true,
		StepsPerUpdate: 1,
		StatsCallback: func(s telemetry.WindowStats) {
			last = s
			windows++
		},
	})
	if err != nil {
		slog.Warn("evaluation rejected", "seed", seed, "error", err)
		return last, false
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}
	return last, windows > 0
}

// copyConfig returns a per-run copy of the base config. Finalize reallocates
// the derived slices, and the remaining slices are only read.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Parallel.Workers = 1
	return &cfg
}

// score is the squared log error of the final window against the targets.
func (fe *FitnessEvaluator) score(s telemetry.WindowStats) float64 {
	logErr := func(got, want float64) float64 {
		e := math.Log((got + 1) / (want + 1))
		return e * e
	}
	f := logErr(float64(s.Population), fe.targets.Cells) + logErr(float64(s.ECM), fe.targets.ECM)
	if fe.targets.ClosurePct > 0 {
		d := (s.ClosurePct - fe.targets.ClosurePct) / 100
		f += d * d
	}
	return f
}

// meanStats averages the fitted columns over seeds.
func meanStats(finals []telemetry.WindowStats) telemetry.WindowStats {
	if len(finals) == 0 {
		return telemetry.WindowStats{}
	}
	pop := make([]float64, len(finals))
	ecm := make([]float64, len(finals))
	closure := make([]float64, len(finals))
	for i, s := range finals {
		pop[i] = float64(s.Population)
		ecm[i] = float64(s.ECM)
		closure[i] = s.ClosurePct
	}
	return telemetry.WindowStats{
		WindowEndTick: finals[0].WindowEndTick,
		Population:    int(math.Round(stat.Mean(pop, nil))),
		ECM:           int(math.Round(stat.Mean(ecm, nil))),
		ClosurePct:    stat.Mean(closure, nil),
	}
}
