package systems

import (
	"math/rand/v2"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/config"
)

// ECMStore holds static matrix deposits. Each deposit remembers the position
// of the previous deposit laid by the same fibroblast, for polyline drawing.
type ECMStore struct {
	*Store

	link    []components.Vec2
	linkBuf []components.Vec2
}

// NewECMStore creates an ECM store sized from cfg.
func NewECMStore(cfg *config.Config, pool *Pool, seed uint64) *ECMStore {
	n := cfg.ECM.MaxCount
	grid := NewSpatialGrid(cfg.Derived.GridRes, cfg.Grid.MaxPerCell)
	e := &ECMStore{
		Store:   NewStore("ecm", n, grid, pool, seed),
		link:    make([]components.Vec2, n),
		linkBuf: make([]components.Vec2, n),
	}
	e.AddLayer(ecmLayer{e})
	return e
}

// Link returns the back-reference position of deposit i.
func (e *ECMStore) Link(i int) components.Vec2 { return e.link[i] }

// Links returns a copy of the live back-references.
func (e *ECMStore) Links() []components.Vec2 {
	return append([]components.Vec2(nil), e.link[:e.Count()]...)
}

// CountWithin returns how many gridded deposits lie closer than radius to p,
// searching the 3×3 bucket block around p. buf is scratch space.
func (e *ECMStore) CountWithin(buf []int32, p components.Vec2, radius float32) (int, []int32) {
	buf = e.grid.Neighbors(buf[:0], p, 1)
	n := 0
	for _, o := range buf {
		if p.Sub(e.pos[o]).Len() < radius {
			n++
		}
	}
	return n, buf
}

// deposit creates a deposit at p linked back to prev. A Sentinel prev links the
// deposit to itself.
func (e *ECMStore) deposit(p, prev components.Vec2, rng *rand.Rand) bool {
	i, ok := e.spawn(p, rng)
	if !ok {
		return false
	}
	if prev != components.Sentinel {
		e.link[i] = prev
	}
	return true
}

// ecmLayer owns the link fields.
type ecmLayer struct{ e *ECMStore }

func (l ecmLayer) Init(i int, pos components.Vec2, _ *rand.Rand) { l.e.link[i] = pos }

func (l ecmLayer) Clear(i int) {
	l.e.link[i] = components.Sentinel
	l.e.linkBuf[i] = components.Sentinel
}

func (l ecmLayer) CompactWrite(dst, src int) { l.e.linkBuf[dst] = l.e.link[src] }

func (l ecmLayer) CompactRestore(i int) { l.e.link[i] = l.e.linkBuf[i] }

func (l ecmLayer) Export(s *State) {
	exportField(s.Vec2, "link", l.e.link)
	exportField(s.Vec2, "link_buffer", l.e.linkBuf)
}

func (l ecmLayer) Validate(s *State) error {
	if err := checkField(s.Vec2, "link", l.e.maxCount); err != nil {
		return err
	}
	return checkField(s.Vec2, "link_buffer", l.e.maxCount)
}

func (l ecmLayer) Import(s *State) {
	copy(l.e.link, s.Vec2["link"])
	copy(l.e.linkBuf, s.Vec2["link_buffer"])
}
