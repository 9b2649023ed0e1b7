package telemetry

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/fibro/config"
)

// ErrRowOutOfRange is returned by WoundMeter.Width for a row outside the grid.
var ErrRowOutOfRange = errors.New("row out of range")

// WoundMeter derives wound metrics from the fibroblast grid occupancy.
// A bucket whose coverage (occupancy / pixel_cells) is below the threshold
// counts as wound. Counts are row-major, index = cy*res + cx.
type WoundMeter struct {
	res        int
	pixelCells float64
	threshold  float64
	bucketUM   float64

	initial    float64 // mm², zero until SetInitial
	hasInitial bool
}

// NewWoundMeter creates a meter for the grid resolution in cfg.
func NewWoundMeter(cfg *config.Config) *WoundMeter {
	pixelCells := float64(cfg.Telemetry.PixelCells)
	if pixelCells <= 0 {
		pixelCells = 1
	}
	return &WoundMeter{
		res:        cfg.Derived.GridRes,
		pixelCells: pixelCells,
		threshold:  cfg.Telemetry.WoundThreshold,
		bucketUM:   cfg.Derived.BucketUM,
	}
}

// Coverage converts raw bucket counters into coverage fractions.
func (m *WoundMeter) Coverage(counts []int32) []float64 {
	cov := make([]float64, len(counts))
	for i, c := range counts {
		cov[i] = float64(c)
	}
	floats.Scale(1/m.pixelCells, cov)
	return cov
}

// Mask flags every bucket below the wound threshold.
func (m *WoundMeter) Mask(counts []int32) []bool {
	cov := m.Coverage(counts)
	mask := make([]bool, len(cov))
	for i, v := range cov {
		mask[i] = v < m.threshold
	}
	return mask
}

// Area returns the wound area in mm².
func (m *WoundMeter) Area(counts []int32) float64 {
	n := floats.Count(func(v float64) bool { return v < m.threshold }, m.Coverage(counts))
	return float64(n) * m.bucketUM * m.bucketUM / 1e6
}

// Width returns the extent in µm from the first to the last wound bucket along
// grid row, gaps included. A row without wound has width zero.
func (m *WoundMeter) Width(counts []int32, row int) (float64, error) {
	if row < 0 || row >= m.res {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrRowOutOfRange, row, m.res)
	}
	mask := m.Mask(counts)
	first, last := -1, -1
	for cx := 0; cx < m.res; cx++ {
		if !mask[row*m.res+cx] {
			continue
		}
		if first < 0 {
			first = cx
		}
		last = cx
	}
	if first < 0 {
		return 0, nil
	}
	return float64(last-first+1) * m.bucketUM, nil
}

// SetInitial records the wound area closure is measured against.
func (m *WoundMeter) SetInitial(areaMM2 float64) {
	m.initial = areaMM2
	m.hasInitial = true
}

// Initial returns the recorded initial area and whether one was set.
func (m *WoundMeter) Initial() (float64, bool) { return m.initial, m.hasInitial }

// Closure returns the percentage of the initial wound area that has closed.
// It is zero until an initial area above zero has been recorded.
func (m *WoundMeter) Closure(areaMM2 float64) float64 {
	if !m.hasInitial || m.initial <= 0 {
		return 0
	}
	return 100 * (m.initial - areaMM2) / m.initial
}
