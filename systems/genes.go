package systems

import (
	"math/rand/v2"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/config"
)

// genePoint is one control point of a channel, time normalised to the cycle.
type genePoint struct {
	t, v float32
}

// GeneProgram drives the piecewise-linear expression channels of every cell.
type GeneProgram struct {
	channels [components.GeneCount][]genePoint // control points padded with one wrapped point per side
	noise    float32
}

// NewGeneProgram builds the program from validated config. It returns nil when genes are disabled.
func NewGeneProgram(cfg config.GenesConfig) *GeneProgram {
	if !cfg.Enabled || len(cfg.Channels) != components.GeneCount {
		return nil
	}
	g := &GeneProgram{noise: float32(cfg.Noise)}
	for c, ch := range cfg.Channels {
		n := len(ch.Points)
		first, last := ch.Points[0], ch.Points[n-1]
		pts := make([]genePoint, 0, n+2)
		pts = append(pts, genePoint{float32(last[0] - 1), float32(last[1])})
		for _, p := range ch.Points {
			pts = append(pts, genePoint{float32(p[0]), float32(p[1])})
		}
		pts = append(pts, genePoint{float32(first[0] + 1), float32(first[1])})
		g.channels[c] = pts
	}
	return g
}

// segment returns the control points bracketing t. Zero-width segments are skipped.
func segment(pts []genePoint, t float32) (a, b genePoint, ok bool) {
	for k := 0; k+1 < len(pts); k++ {
		a, b = pts[k], pts[k+1]
		if b.t > a.t && t >= a.t && t < b.t {
			return a, b, true
		}
	}
	return genePoint{}, genePoint{}, false
}

// Birth returns the expression of a newborn cell: each channel evaluated at
// cycle time zero, which falls on the wrapped segment from the previous cycle.
func (g *GeneProgram) Birth() components.Expression {
	var e components.Expression
	for c, pts := range g.channels {
		a, b, ok := segment(pts, 0)
		if !ok {
			e[c] = pts[1].v
			continue
		}
		e[c] = a.v + (b.v-a.v)*(0-a.t)/(b.t-a.t)
	}
	return e
}

// Advance moves every channel one tick along its program. Past the end of the
// cycle the values are held.
func (g *GeneProgram) Advance(e *components.Expression, cycleTime, duration int32, rng *rand.Rand) {
	if duration <= 0 {
		return
	}
	t := float32(cycleTime) / float32(duration)
	if t > 1 {
		return
	}
	for c, pts := range g.channels {
		a, b, ok := segment(pts, t)
		if !ok {
			continue
		}
		slope := (b.v - a.v) / ((b.t - a.t) * float32(duration))
		v := e[c] + slope
		if g.noise > 0 {
			v += (rng.Float32()*2 - 1) * g.noise
		}
		if slope >= 0 {
			v = min(v, b.v)
		} else {
			v = max(v, b.v)
		}
		e[c] = v
	}
}
