package components

// Phase is a cell-cycle phase.
type Phase int8

// PhaseNone is stored in dead slots.
const PhaseNone Phase = -1

const (
	PhaseG0 Phase = iota // quiescent, contact inhibited
	PhaseG1
	PhaseS
	PhaseG2
	PhaseM
)

// Movement is the persistent random-walk state of a cell.
// Heading is measured in turns (1.0 = full revolution).
type Movement struct {
	Heading  float32
	TurnBias float32 // -1, 0 or +1
	Speed    float32
}

// SentinelMovement marks a dead slot.
var SentinelMovement = Movement{Heading: -1, TurnBias: -1, Speed: -1}

// GeneCount is the number of tracked expression channels.
const GeneCount = 11

// Expression holds one value per gene channel.
type Expression [GeneCount]float32

// SentinelExpression marks a dead slot.
var SentinelExpression = Expression{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1}
