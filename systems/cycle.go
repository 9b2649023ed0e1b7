package systems

import "github.com/pthm-cable/fibro/components"

// cycleBounds are the phase boundaries of one cell cycle, in ticks since division.
type cycleBounds struct {
	g1End      int32
	sEnd       int32
	g2End      int32
	earlyG1End int32 // G0 entry is only allowed before this
}

func newCycleBounds(duration int32) cycleBounds {
	d := float64(duration)
	g1 := max(1, int32(0.4*d))
	s := max(g1+1, g1+max(1, int32(0.33*d)))
	g2 := max(s+1, s+max(1, int32(0.17*d)))
	if g2 > duration {
		g2 = duration
	}
	return cycleBounds{
		g1End:      g1,
		sEnd:       s,
		g2End:      g2,
		earlyG1End: max(2, g1/20),
	}
}

// phaseAt is the phase reached by cycle time alone.
func (b cycleBounds) phaseAt(cycleTime int32) components.Phase {
	switch {
	case cycleTime < b.g1End:
		return components.PhaseG1
	case cycleTime < b.sEnd:
		return components.PhaseS
	case cycleTime < b.g2End:
		return components.PhaseG2
	default:
		return components.PhaseM
	}
}

// inhibitionThresholds holds the G0 entry and exit levels.
type inhibitionThresholds struct {
	entry float32
	exit  float32
}

// nextPhase evaluates one cycle transition. restart reports that the cell left
// G0 and its cycle clock must restart at the current step.
func nextPhase(current components.Phase, cycleTime int32, inhibition float32, b cycleBounds, th inhibitionThresholds) (next components.Phase, restart bool) {
	if current == components.PhaseG0 {
		if inhibition < th.exit {
			return components.PhaseG1, true
		}
		return components.PhaseG0, false
	}
	if cycleTime < b.earlyG1End && inhibition >= th.entry {
		return components.PhaseG0, false
	}
	return b.phaseAt(cycleTime), false
}

// coupleSpeed slows cells in G2 and G0 and speeds them up in G1.
func coupleSpeed(phase components.Phase, speed, maxSpeed float32) float32 {
	switch phase {
	case components.PhaseG2, components.PhaseG0:
		speed -= maxSpeed / 40
		if speed < 0 {
			speed = 0
		}
	case components.PhaseG1:
		speed += maxSpeed / 10
		if speed > maxSpeed {
			speed = maxSpeed
		}
	}
	return speed
}
