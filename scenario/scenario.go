// Package scenario schedules interventions (wounds, seeding, checkpoints) by simulation step.
// Pending interventions are ECS entities; each fires once and is removed.
package scenario

import (
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/config"
	"github.com/pthm-cable/fibro/systems"
)

// Trigger holds the step at which an intervention fires.
type Trigger struct {
	Step int32
}

// Wound removes agents inside a shape. Size is in unit-domain coordinates.
type Wound struct {
	X, Y  float32
	Size  float32
	Shape components.Shape
}

// Seed places Count fibroblasts in a square of edge Size around (X, Y).
type Seed struct {
	X, Y  float32
	Size  float32
	Count int
}

// Checkpoint asks the caller to save the engine state under Tag.
type Checkpoint struct {
	Tag string
}

// Kind identifies the type of a fired Action.
type Kind uint8

const (
	KindWound Kind = iota
	KindSeed
	KindCheckpoint
)

// Action is one intervention that fired on a step.
type Action struct {
	Kind       Kind
	Step       int32
	Wound      Wound
	Seed       Seed
	Checkpoint Checkpoint

	Removed systems.WoundResult // filled for wounds by Apply
	Placed  int                 // filled for seeds by Apply
}

// Scheduler holds pending interventions.
type Scheduler struct {
	world *ecs.World
	rng   *rand.Rand

	woundMapper      *ecs.Map2[Trigger, Wound]
	seedMapper       *ecs.Map2[Trigger, Seed]
	checkpointMapper *ecs.Map2[Trigger, Checkpoint]

	woundFilter      *ecs.Filter2[Trigger, Wound]
	seedFilter       *ecs.Filter2[Trigger, Seed]
	checkpointFilter *ecs.Filter2[Trigger, Checkpoint]

	pending int
	minSize float32 // seed spread when no size is given
}

// New creates a scheduler loaded with the events of cfg.Scenario.
// Sizes are converted from micrometres to unit-domain coordinates.
func New(cfg *config.Config) *Scheduler {
	world := ecs.NewWorld()
	s := &Scheduler{
		world:            world,
		rng:              rand.New(rand.NewPCG(uint64(cfg.Init.Seed), 0x5CE)),
		woundMapper:      ecs.NewMap2[Trigger, Wound](world),
		seedMapper:       ecs.NewMap2[Trigger, Seed](world),
		checkpointMapper: ecs.NewMap2[Trigger, Checkpoint](world),
		woundFilter:      ecs.NewFilter2[Trigger, Wound](world),
		seedFilter:       ecs.NewFilter2[Trigger, Seed](world),
		checkpointFilter: ecs.NewFilter2[Trigger, Checkpoint](world),
		minSize:          float32(4 * cfg.Cell.Radius),
	}

	toUnit := float32(1 / cfg.Domain.SizeUM)
	for i, ev := range cfg.Scenario.Events {
		switch ev.Kind {
		case config.EventWound:
			s.ScheduleWound(ev.Step, Wound{
				X: float32(ev.X), Y: float32(ev.Y),
				Size:  float32(ev.SizeUM) * toUnit,
				Shape: cfg.Derived.ScenarioShape[i],
			})
		case config.EventSeed:
			s.ScheduleSeed(ev.Step, Seed{
				X: float32(ev.X), Y: float32(ev.Y),
				Size:  float32(ev.SizeUM) * toUnit,
				Count: max(ev.Count, 1),
			})
		case config.EventCheckpoint:
			s.ScheduleCheckpoint(ev.Step, Checkpoint{Tag: "scenario"})
		}
	}
	return s
}

// ScheduleWound queues a wound at step.
func (s *Scheduler) ScheduleWound(step int32, w Wound) {
	s.woundMapper.NewEntity(&Trigger{Step: step}, &w)
	s.pending++
}

// ScheduleSeed queues a seeding at step.
func (s *Scheduler) ScheduleSeed(step int32, sd Seed) {
	s.seedMapper.NewEntity(&Trigger{Step: step}, &sd)
	s.pending++
}

// ScheduleCheckpoint queues a checkpoint request at step.
func (s *Scheduler) ScheduleCheckpoint(step int32, c Checkpoint) {
	s.checkpointMapper.NewEntity(&Trigger{Step: step}, &c)
	s.pending++
}

// Pending returns the number of interventions not yet fired.
func (s *Scheduler) Pending() int { return s.pending }

// Due removes and returns every intervention with a trigger step at or before step,
// ordered by step then kind (wounds, seeds, checkpoints).
func (s *Scheduler) Due(step int32) []Action {
	var due []Action

	// First pass: collect (query iteration must complete before removal)
	var woundEntities, seedEntities, checkpointEntities []ecs.Entity

	wq := s.woundFilter.Query()
	for wq.Next() {
		trig, w := wq.Get()
		if trig.Step <= step {
			due = append(due, Action{Kind: KindWound, Step: trig.Step, Wound: *w})
			woundEntities = append(woundEntities, wq.Entity())
		}
	}
	sq := s.seedFilter.Query()
	for sq.Next() {
		trig, sd := sq.Get()
		if trig.Step <= step {
			due = append(due, Action{Kind: KindSeed, Step: trig.Step, Seed: *sd})
			seedEntities = append(seedEntities, sq.Entity())
		}
	}
	cq := s.checkpointFilter.Query()
	for cq.Next() {
		trig, c := cq.Get()
		if trig.Step <= step {
			due = append(due, Action{Kind: KindCheckpoint, Step: trig.Step, Checkpoint: *c})
			checkpointEntities = append(checkpointEntities, cq.Entity())
		}
	}

	// Second pass: remove fired entities
	for _, e := range woundEntities {
		s.woundMapper.Remove(e)
	}
	for _, e := range seedEntities {
		s.seedMapper.Remove(e)
	}
	for _, e := range checkpointEntities {
		s.checkpointMapper.Remove(e)
	}
	s.pending -= len(due)

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].Step != due[j].Step {
			return due[i].Step < due[j].Step
		}
		return due[i].Kind < due[j].Kind
	})
	return due
}

// Apply fires every due wound and seeding against sim and returns all due actions,
// checkpoints included, for the caller to finish.
func (s *Scheduler) Apply(sim *systems.Simulation, step int32) []Action {
	due := s.Due(step)
	for i := range due {
		a := &due[i]
		switch a.Kind {
		case KindWound:
			a.Removed = sim.Wound(a.Wound.X, a.Wound.Y, a.Wound.Size, a.Wound.Shape)
			slog.Info("wound applied",
				"step", step,
				"shape", a.Wound.Shape.String(),
				"x", a.Wound.X, "y", a.Wound.Y,
				"cells_removed", a.Removed.Cells,
				"ecm_removed", a.Removed.ECM,
			)
		case KindSeed:
			a.Placed = s.seed(sim, a.Seed)
			slog.Info("seeded", "step", step, "requested", a.Seed.Count, "placed", a.Placed)
		}
	}
	return due
}

func (s *Scheduler) seed(sim *systems.Simulation, sd Seed) int {
	if sd.Count == 1 {
		if sim.Seed(sd.X, sd.Y) {
			return 1
		}
		return 0
	}
	size := max(sd.Size, s.minSize)
	placed := 0
	for k := 0; k < sd.Count; k++ {
		x := sd.X + (s.rng.Float32()-0.5)*size
		y := sd.Y + (s.rng.Float32()-0.5)*size
		if sim.Seed(x, y) {
			placed++
		}
	}
	return placed
}
