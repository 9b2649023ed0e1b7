package systems

import (
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/config"
)

// AgentBehavior runs once per live cell during UpdatePopulation, after the cycle
// transition. It may only mutate fields of agent i and create new agents.
type AgentBehavior func(i int, w *Worker, rng *rand.Rand)

// cellParams are the cell constants read from config at construction.
type cellParams struct {
	radius           float32
	maxSpeed         float32
	offsetRange      float32 // Child offset square edge
	cycleDuration    int32
	cycleJitter      float32
	inhibitionFactor float32
	inhibitionRange  float32
	substeps         int
	ecmDetection     float32
	ecmAvoidance     float32
	thresholds       inhibitionThresholds
}

// CellStore adds the cell cycle, contact inhibition, locomotion and division.
type CellStore struct {
	*MovingStore

	lastDiv       []int32
	lastDivBuf    []int32
	cycleDur      []int32
	cycleDurBuf   []int32
	inhibition    []float32
	inhibitionBuf []float32
	neighbor      []float32
	neighborBuf   []float32
	phase         []components.Phase
	phaseBuf      []components.Phase
	movement      []components.Movement
	movementBuf   []components.Movement
	genes         []components.Expression
	genesBuf      []components.Expression

	step      int32
	params    cellParams
	program   *GeneProgram
	ecm       *ECMStore
	behaviors []AgentBehavior

	births atomic.Int32
}

// NewCellStore creates a cell store. ecm may be nil, which disables ECM avoidance.
func NewCellStore(name string, cfg *config.Config, pool *Pool, seed uint64, ecm *ECMStore) *CellStore {
	n := cfg.Cell.MaxCount
	c := &CellStore{
		MovingStore:   NewMovingStore(name, n, cfg, pool, seed),
		lastDiv:       make([]int32, n),
		lastDivBuf:    make([]int32, n),
		cycleDur:      make([]int32, n),
		cycleDurBuf:   make([]int32, n),
		inhibition:    make([]float32, n),
		inhibitionBuf: make([]float32, n),
		neighbor:      make([]float32, n),
		neighborBuf:   make([]float32, n),
		phase:         make([]components.Phase, n),
		phaseBuf:      make([]components.Phase, n),
		movement:      make([]components.Movement, n),
		movementBuf:   make([]components.Movement, n),
		genes:         make([]components.Expression, n),
		genesBuf:      make([]components.Expression, n),
		params: cellParams{
			radius:           float32(cfg.Cell.Radius),
			maxSpeed:         float32(cfg.Cell.MaxSpeed),
			offsetRange:      float32(cfg.Cell.ReproductionOffset * cfg.Cell.Radius),
			cycleDuration:    int32(cfg.Cell.CycleDuration),
			cycleJitter:      float32(cfg.Cell.CycleJitter),
			inhibitionFactor: float32(cfg.Cell.InhibitionFactor),
			inhibitionRange:  float32(cfg.Cell.InhibitionRadius * cfg.Cell.Radius),
			substeps:         cfg.Domain.Substeps,
			ecmDetection:     float32(cfg.ECM.DetectionRadius),
			ecmAvoidance:     float32(cfg.ECM.AvoidanceStrength),
			thresholds: inhibitionThresholds{
				entry: float32(cfg.Cell.InhibitionThreshold),
				exit:  float32(cfg.Cell.InhibitionExitThreshold),
			},
		},
		program: NewGeneProgram(cfg.Genes),
		ecm:     ecm,
	}
	c.AddLayer(cellLayer{c})
	c.SetCollide(c.collidePair)
	return c
}

// AddBehavior appends a per-agent behavior to the population pass.
func (c *CellStore) AddBehavior(b AgentBehavior) { c.behaviors = append(c.behaviors, b) }

// SetStep sets the step used for birth timestamps of cells created outside UpdatePopulation.
func (c *CellStore) SetStep(step int32) { c.step = step }

// Births returns the number of divisions in the last UpdatePopulation.
func (c *CellStore) Births() int { return int(c.births.Load()) }

// Phase returns the phase of cell i.
func (c *CellStore) Phase(i int) components.Phase { return c.phase[i] }

// Phases returns a copy of the live phases.
func (c *CellStore) Phases() []components.Phase {
	return append([]components.Phase(nil), c.phase[:c.Count()]...)
}

// Inhibitions returns a copy of the live inhibition levels.
func (c *CellStore) Inhibitions() []float32 {
	return append([]float32(nil), c.inhibition[:c.Count()]...)
}

// Expressions returns a copy of the live gene expression vectors.
func (c *CellStore) Expressions() []components.Expression {
	return append([]components.Expression(nil), c.genes[:c.Count()]...)
}

// collidePair accrues contact inhibition on i. Only i is written.
func (c *CellStore) collidePair(i, _ int, dist float32) {
	if dist >= c.params.inhibitionRange || dist <= c.epsilon {
		return
	}
	v := c.inhibition[i] + c.params.inhibitionFactor
	if v > c.params.thresholds.entry {
		v = c.params.thresholds.entry
	}
	c.inhibition[i] = v
	c.neighbor[i] = 1
}

// UpdatePopulation runs locomotion, the cycle transition, division and the
// registered behaviors for every live cell, then decays inhibition of cells
// that had no contact this tick. Cells born during the pass are not visited.
func (c *CellStore) UpdatePopulation(step int32) {
	c.step = step
	c.births.Store(0)
	c.pool.Run(c.Count(), func(lo, hi int, w *Worker) {
		for i := lo; i < hi; i++ {
			rng := c.agentRand(w, step, i)
			c.locomote(i, w, rng)
			c.advanceCycle(i, rng)
			for _, b := range c.behaviors {
				b(i, w, rng)
			}
			if c.neighbor[i] == 0 {
				c.inhibition[i] = max(0, c.inhibition[i]-c.params.inhibitionFactor)
			}
			c.neighbor[i] = 0
		}
	})
}

// advanceCycle applies the phase transition, speed coupling, gene program and division.
func (c *CellStore) advanceCycle(i int, rng *rand.Rand) {
	dur := c.cycleDur[i]
	b := newCycleBounds(dur)
	cycleTime := c.step - c.lastDiv[i]

	next, restart := nextPhase(c.phase[i], cycleTime, c.inhibition[i], b, c.params.thresholds)
	if restart {
		c.lastDiv[i] = c.step
		cycleTime = 0
	}
	c.phase[i] = next
	c.movement[i].Speed = coupleSpeed(next, c.movement[i].Speed, c.params.maxSpeed)

	if c.program != nil {
		c.program.Advance(&c.genes[i], cycleTime, dur, rng)
	}

	if next == components.PhaseM && cycleTime >= dur {
		r := c.params.offsetRange
		p := c.pos[i]
		x := p.X + rng.Float32()*r - r*0.5
		y := p.Y + rng.Float32()*r - r*0.5
		if c.createWith(x, y, rng) {
			c.lastDiv[i] = c.step
			c.births.Add(1)
		}
	}
}

// locomote moves cell i along its persistent random walk, steered away from
// nearby ECM, once per substep.
func (c *CellStore) locomote(i int, w *Worker, rng *rand.Rand) {
	mv := c.movement[i]
	p := c.pos[i]
	for s := 0; s < c.params.substeps; s++ {
		var repulse components.Vec2
		ecmCount := 0
		if c.phase[i] != components.PhaseG0 && c.ecm != nil {
			var centroid components.Vec2
			w.Neighbors = c.ecm.grid.Neighbors(w.Neighbors[:0], p, 2)
			for _, o := range w.Neighbors {
				q := c.ecm.pos[o]
				if p.Sub(q).Len() < c.params.ecmDetection {
					centroid = centroid.Add(q)
					ecmCount++
				}
			}
			if ecmCount > 0 {
				delta := p.Sub(centroid.Scale(1 / float32(ecmCount)))
				if delta.Len() > 0.005 {
					repulse = delta.Normalized().Scale(c.params.ecmAvoidance)
				}
			}
		}

		if rng.Float32() < 0.3 {
			mv.TurnBias = float32(rng.IntN(3) - 1)
		}
		mv.Heading += mv.TurnBias * 0.01
		angle := float64(mv.Heading) * 2 * math.Pi
		dir := components.Vec2{X: float32(math.Cos(angle)), Y: float32(math.Sin(angle))}
		damp := float32(math.Log(float64(ecmCount)+5) - 0.6)
		p = p.Add(dir.Scale(mv.Speed).Add(repulse).Scale(1 / damp))
	}
	c.movement[i] = mv
	c.pos[i] = p
}

// cellLayer owns the cell cycle fields.
type cellLayer struct{ c *CellStore }

func (l cellLayer) Init(i int, _ components.Vec2, rng *rand.Rand) {
	c := l.c
	c.lastDiv[i] = c.step
	c.inhibition[i] = 0
	c.neighbor[i] = 0
	c.phase[i] = components.PhaseG1
	c.movement[i] = components.Movement{Heading: rng.Float32(), Speed: c.params.maxSpeed}
	c.cycleDur[i] = c.params.cycleDuration + int32((rng.Float32()-0.5)*c.params.cycleJitter)
	if c.program != nil {
		c.genes[i] = c.program.Birth()
	} else {
		c.genes[i] = components.Expression{}
	}
}

func (l cellLayer) Clear(i int) {
	c := l.c
	c.lastDiv[i], c.lastDivBuf[i] = -1, -1
	c.cycleDur[i], c.cycleDurBuf[i] = -1, -1
	c.inhibition[i], c.inhibitionBuf[i] = -1, -1
	c.neighbor[i], c.neighborBuf[i] = -1, -1
	c.phase[i], c.phaseBuf[i] = components.PhaseNone, components.PhaseNone
	c.movement[i], c.movementBuf[i] = components.SentinelMovement, components.SentinelMovement
	c.genes[i], c.genesBuf[i] = components.SentinelExpression, components.SentinelExpression
}

func (l cellLayer) CompactWrite(dst, src int) {
	c := l.c
	c.lastDivBuf[dst] = c.lastDiv[src]
	c.cycleDurBuf[dst] = c.cycleDur[src]
	c.inhibitionBuf[dst] = c.inhibition[src]
	c.neighborBuf[dst] = c.neighbor[src]
	c.phaseBuf[dst] = c.phase[src]
	c.movementBuf[dst] = c.movement[src]
	c.genesBuf[dst] = c.genes[src]
}

func (l cellLayer) CompactRestore(i int) {
	c := l.c
	c.lastDiv[i] = c.lastDivBuf[i]
	c.cycleDur[i] = c.cycleDurBuf[i]
	c.inhibition[i] = c.inhibitionBuf[i]
	c.neighbor[i] = c.neighborBuf[i]
	c.phase[i] = c.phaseBuf[i]
	c.movement[i] = c.movementBuf[i]
	c.genes[i] = c.genesBuf[i]
}

func (l cellLayer) Export(s *State) {
	c := l.c
	exportField(s.Int32, "last_division", c.lastDiv)
	exportField(s.Int32, "last_division_buffer", c.lastDivBuf)
	exportField(s.Int32, "cycle_duration", c.cycleDur)
	exportField(s.Int32, "cycle_duration_buffer", c.cycleDurBuf)
	exportField(s.Float32, "inhibition", c.inhibition)
	exportField(s.Float32, "inhibition_buffer", c.inhibitionBuf)
	exportField(s.Float32, "neighbor", c.neighbor)
	exportField(s.Float32, "neighbor_buffer", c.neighborBuf)
	s.Int32["phase"] = phasesToInt32(c.phase)
	s.Int32["phase_buffer"] = phasesToInt32(c.phaseBuf)
	exportMovement(s, "", c.movement)
	exportMovement(s, "_buffer", c.movementBuf)
	s.Float32["genes"] = flattenGenes(c.genes)
	s.Float32["genes_buffer"] = flattenGenes(c.genesBuf)
}

func (l cellLayer) Validate(s *State) error {
	n := l.c.maxCount
	for _, suffix := range []string{"", "_buffer"} {
		for _, name := range []string{"last_division", "cycle_duration", "phase"} {
			if err := checkField(s.Int32, name+suffix, n); err != nil {
				return err
			}
		}
		for _, name := range []string{"inhibition", "neighbor", "heading", "turn_bias", "speed"} {
			if err := checkField(s.Float32, name+suffix, n); err != nil {
				return err
			}
		}
		if err := checkField(s.Float32, "genes"+suffix, n*components.GeneCount); err != nil {
			return err
		}
	}
	return nil
}

func (l cellLayer) Import(s *State) {
	c := l.c
	copy(c.lastDiv, s.Int32["last_division"])
	copy(c.lastDivBuf, s.Int32["last_division_buffer"])
	copy(c.cycleDur, s.Int32["cycle_duration"])
	copy(c.cycleDurBuf, s.Int32["cycle_duration_buffer"])
	copy(c.inhibition, s.Float32["inhibition"])
	copy(c.inhibitionBuf, s.Float32["inhibition_buffer"])
	copy(c.neighbor, s.Float32["neighbor"])
	copy(c.neighborBuf, s.Float32["neighbor_buffer"])
	int32ToPhases(c.phase, s.Int32["phase"])
	int32ToPhases(c.phaseBuf, s.Int32["phase_buffer"])
	importMovement(c.movement, s, "")
	importMovement(c.movementBuf, s, "_buffer")
	unflattenGenes(c.genes, s.Float32["genes"])
	unflattenGenes(c.genesBuf, s.Float32["genes_buffer"])
}

func phasesToInt32(src []components.Phase) []int32 {
	out := make([]int32, len(src))
	for i, p := range src {
		out[i] = int32(p)
	}
	return out
}

func int32ToPhases(dst []components.Phase, src []int32) {
	for i, v := range src {
		dst[i] = components.Phase(v)
	}
}

func exportMovement(s *State, suffix string, src []components.Movement) {
	heading := make([]float32, len(src))
	bias := make([]float32, len(src))
	speed := make([]float32, len(src))
	for i, m := range src {
		heading[i], bias[i], speed[i] = m.Heading, m.TurnBias, m.Speed
	}
	s.Float32["heading"+suffix] = heading
	s.Float32["turn_bias"+suffix] = bias
	s.Float32["speed"+suffix] = speed
}

func importMovement(dst []components.Movement, s *State, suffix string) {
	heading := s.Float32["heading"+suffix]
	bias := s.Float32["turn_bias"+suffix]
	speed := s.Float32["speed"+suffix]
	for i := range dst {
		dst[i] = components.Movement{Heading: heading[i], TurnBias: bias[i], Speed: speed[i]}
	}
}

func flattenGenes(src []components.Expression) []float32 {
	out := make([]float32, 0, len(src)*components.GeneCount)
	for _, e := range src {
		out = append(out, e[:]...)
	}
	return out
}

func unflattenGenes(dst []components.Expression, src []float32) {
	for i := range dst {
		copy(dst[i][:], src[i*components.GeneCount:(i+1)*components.GeneCount])
	}
}
