package game

import (
	"github.com/pthm-cable/fibro/config"
	"github.com/pthm-cable/fibro/telemetry"
)

// Speed limits for steps-per-update.
const (
	MinStepsPerUpdate = 1
	MaxStepsPerUpdate = 10
)

// Options configures a Game.
type Options struct {
	Config         *config.Config // nil means config.Cfg()
	Seed           uint64
	Headless       bool
	StepsPerUpdate int

	LogStats      bool // structured window stats via slog
	PerfLog       bool // plain-text world and timing dump via Logf
	StatsCallback func(telemetry.WindowStats)

	OutputDir      string // CSV telemetry; empty disables
	FrameEvery     int    // coverage PNG every N ticks into OutputDir/frames; 0 disables
	CheckpointDir  string // root for save_* directories; empty disables saving
	LoadCheckpoint string // save_* directory to resume from
}
