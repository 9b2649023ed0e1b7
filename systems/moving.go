package systems

import (
	"math/rand/v2"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/config"
)

// CollideFunc is called once per ordered neighbour pair (i, j) found during
// collision resolution. It runs inside a parallel pass and may only mutate i's fields.
type CollideFunc func(i, j int, dist float32)

// MovingStore adds previous-position tracking, damped Verlet integration,
// border reflection and soft pairwise collisions.
type MovingStore struct {
	*Store

	prev    []components.Vec2
	prevBuf []components.Vec2
	delta   []components.Vec2

	friction  float32
	radius    float32
	repulsion float32
	epsilon   float32

	collide CollideFunc
}

// NewMovingStore creates a moving store sized and tuned from cfg.
func NewMovingStore(name string, maxCount int, cfg *config.Config, pool *Pool, seed uint64) *MovingStore {
	grid := NewSpatialGrid(cfg.Derived.GridRes, cfg.Grid.MaxPerCell)
	m := &MovingStore{
		Store:     NewStore(name, maxCount, grid, pool, seed),
		prev:      make([]components.Vec2, maxCount),
		prevBuf:   make([]components.Vec2, maxCount),
		delta:     make([]components.Vec2, maxCount),
		friction:  float32(cfg.Physics.Friction),
		radius:    float32(cfg.Cell.Radius),
		repulsion: float32(cfg.Physics.Repulsion),
		epsilon:   float32(cfg.Physics.Epsilon),
	}
	m.AddLayer(movingLayer{m})
	return m
}

// SetCollide installs the per-pair hook.
func (m *MovingStore) SetCollide(fn CollideFunc) { m.collide = fn }

// Integrate applies pos' = pos + (pos - prev) * friction to every live agent.
func (m *MovingStore) Integrate() {
	m.pool.Run(m.Count(), func(lo, hi int, _ *Worker) {
		for i := lo; i < hi; i++ {
			p := m.pos[i]
			v := p.Sub(m.prev[i]).Scale(m.friction)
			m.prev[i] = p
			m.pos[i] = p.Add(v)
		}
	})
}

// ApplyBorders clamps positions into [0,1] and reflects the velocity at half
// strength on every axis that left the domain.
func (m *MovingStore) ApplyBorders() {
	m.pool.Run(m.Count(), func(lo, hi int, _ *Worker) {
		for i := lo; i < hi; i++ {
			p, q := m.pos[i], m.prev[i]
			p.X, q.X = reflectAxis(p.X, q.X)
			p.Y, q.Y = reflectAxis(p.Y, q.Y)
			m.pos[i], m.prev[i] = p, q
		}
	})
}

func reflectAxis(p, q float32) (float32, float32) {
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	default:
		return p, q
	}
	return p, p + (p-q)*0.5
}

// pairOffset is the push applied to an agent at a by a neighbour at b.
// pairOffset(b, a) is the exact negation of pairOffset(a, b).
func (m *MovingStore) pairOffset(a, b components.Vec2) (components.Vec2, float32, bool) {
	dx := a.Sub(b)
	d := dx.Len()
	minDist := 2 * m.radius
	if d >= minDist || d <= m.epsilon {
		return components.Vec2{}, d, false
	}
	k := m.radius * m.repulsion * ((minDist - d) / minDist)
	return components.Vec2{X: k * (dx.X / d), Y: k * (dx.Y / d)}, d, true
}

// ResolveCollisions pushes overlapping agents apart. Offsets are gathered from
// a read-only view of positions first and applied afterwards, so each pair
// contributes equal and opposite displacements regardless of scheduling.
// A pair is met once from each side and both visits push both agents, so
// every agent moves by twice its own pair offset. The grid must be current.
func (m *MovingStore) ResolveCollisions() {
	n := m.Count()
	m.pool.Run(n, func(lo, hi int, w *Worker) {
		for i := lo; i < hi; i++ {
			m.delta[i] = components.Vec2{}
			if !m.inGrid[i] {
				continue
			}
			p := m.pos[i]
			var sum components.Vec2
			w.Neighbors = m.grid.Neighbors(w.Neighbors[:0], p, 1)
			for _, o := range w.Neighbors {
				j := int(o)
				if j == i {
					continue
				}
				off, d, ok := m.pairOffset(p, m.pos[j])
				if ok {
					sum = sum.Add(off)
				}
				if m.collide != nil {
					m.collide(i, j, d)
				}
			}
			m.delta[i] = sum.Scale(2)
		}
	})
	m.pool.Run(n, func(lo, hi int, _ *Worker) {
		for i := lo; i < hi; i++ {
			m.pos[i] = m.pos[i].Add(m.delta[i])
		}
	})
}

// movingLayer owns prev and prevBuf.
type movingLayer struct{ m *MovingStore }

func (l movingLayer) Init(i int, pos components.Vec2, _ *rand.Rand) { l.m.prev[i] = pos }

func (l movingLayer) Clear(i int) {
	l.m.prev[i] = components.Sentinel
	l.m.prevBuf[i] = components.Sentinel
	l.m.delta[i] = components.Vec2{}
}

func (l movingLayer) CompactWrite(dst, src int) { l.m.prevBuf[dst] = l.m.prev[src] }

func (l movingLayer) CompactRestore(i int) { l.m.prev[i] = l.m.prevBuf[i] }

func (l movingLayer) Export(s *State) {
	exportField(s.Vec2, "prev_position", l.m.prev)
	exportField(s.Vec2, "prev_position_buffer", l.m.prevBuf)
}

func (l movingLayer) Validate(s *State) error {
	if err := checkField(s.Vec2, "prev_position", l.m.maxCount); err != nil {
		return err
	}
	return checkField(s.Vec2, "prev_position_buffer", l.m.maxCount)
}

func (l movingLayer) Import(s *State) {
	copy(l.m.prev, s.Vec2["prev_position"])
	copy(l.m.prevBuf, s.Vec2["prev_position_buffer"])
}
