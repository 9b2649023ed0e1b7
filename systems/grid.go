package systems

import (
	"sync/atomic"

	"github.com/pthm-cable/fibro/components"
)

// SpatialGrid is a uniform bucket grid over the unit square.
// Each bucket holds at most maxPerCell indices; inserts past that are dropped
// (soft clip), which under-reports neighbours in very dense regions.
//
// Insert is safe for concurrent use. Clear and queries must not overlap with inserts.
type SpatialGrid struct {
	res        int
	maxPerCell int
	counts     []atomic.Int32 // res*res occupancy counters, may exceed maxPerCell
	slots      []int32        // res*res*maxPerCell agent indices
}

// NewSpatialGrid creates a res×res grid with the given bucket capacity.
func NewSpatialGrid(res, maxPerCell int) *SpatialGrid {
	if res < 1 {
		res = 1
	}
	if maxPerCell < 1 {
		maxPerCell = 1
	}
	return &SpatialGrid{
		res:        res,
		maxPerCell: maxPerCell,
		counts:     make([]atomic.Int32, res*res),
		slots:      make([]int32, res*res*maxPerCell),
	}
}

// MaxPerCell returns the bucket capacity.
func (g *SpatialGrid) MaxPerCell() int { return g.maxPerCell }

// Clear resets every bucket counter to zero.
func (g *SpatialGrid) Clear() {
	for i := range g.counts {
		g.counts[i].Store(0)
	}
}

// Bucket returns the clamped bucket coordinates of p.
func (g *SpatialGrid) Bucket(p components.Vec2) (cx, cy int) {
	return g.clampCoord(p.X), g.clampCoord(p.Y)
}

func (g *SpatialGrid) clampCoord(v float32) int {
	c := int(v * float32(g.res))
	if c < 0 {
		c = 0
	} else if c >= g.res {
		c = g.res - 1
	}
	return c
}

// Insert appends index to the bucket containing p.
// Returns false when the bucket is already full and the index was dropped.
func (g *SpatialGrid) Insert(index int, p components.Vec2) bool {
	cx, cy := g.Bucket(p)
	b := cy*g.res + cx
	slot := int(g.counts[b].Add(1)) - 1
	if slot >= g.maxPerCell {
		return false
	}
	g.slots[b*g.maxPerCell+slot] = int32(index)
	return true
}

// Occupancy returns the raw insert counter of a bucket, including dropped inserts.
func (g *SpatialGrid) Occupancy(cx, cy int) int {
	if cx < 0 || cx >= g.res || cy < 0 || cy >= g.res {
		return 0
	}
	return int(g.counts[cy*g.res+cx].Load())
}

// Cell returns a view of the stored indices of one bucket.
// INTERNAL USE ONLY - the view is invalidated by the next Clear.
func (g *SpatialGrid) Cell(cx, cy int) []int32 {
	if cx < 0 || cx >= g.res || cy < 0 || cy >= g.res {
		return nil
	}
	b := cy*g.res + cx
	n := int(g.counts[b].Load())
	if n > g.maxPerCell {
		n = g.maxPerCell
	}
	start := b * g.maxPerCell
	return g.slots[start : start+n]
}

// Neighbors appends to dst every stored index in the (2*radius+1)² block of
// buckets centred on p's bucket, clipped to the grid, and returns the result.
// Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) Neighbors(dst []int32, p components.Vec2, radius int) []int32 {
	cx, cy := g.Bucket(p)
	for y := cy - radius; y <= cy+radius; y++ {
		if y < 0 || y >= g.res {
			continue
		}
		for x := cx - radius; x <= cx+radius; x++ {
			if x < 0 || x >= g.res {
				continue
			}
			dst = append(dst, g.Cell(x, y)...)
		}
	}
	return dst
}

// Counts copies the raw bucket counters, row-major (index = cy*res + cx).
func (g *SpatialGrid) Counts() []int32 {
	out := make([]int32, len(g.counts))
	for i := range g.counts {
		out[i] = g.counts[i].Load()
	}
	return out
}
