// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/fibro/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Init modes for the starting population.
const (
	InitSingle    = "single"    // one fibroblast at the domain centre
	InitScatter   = "scatter"   // init.count fibroblasts at uniform random positions
	InitConfluent = "confluent" // hexagonal sheet packed at two radii spacing
)

// Scenario event kinds.
const (
	EventWound      = "wound"
	EventSeed       = "seed"
	EventCheckpoint = "checkpoint"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Domain    DomainConfig    `yaml:"domain"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Grid      GridConfig      `yaml:"grid"`
	Cell      CellConfig      `yaml:"cell"`
	ECM       ECMConfig       `yaml:"ecm"`
	Genes     GenesConfig     `yaml:"genes"`
	Init      InitConfig      `yaml:"init"`
	Scenario  ScenarioConfig  `yaml:"scenario"`
	Parallel  ParallelConfig  `yaml:"parallel"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DomainConfig holds the real-world scale of the unit square.
type DomainConfig struct {
	SizeUM   float64 `yaml:"size_um"`  // Edge length of the unit square in micrometres
	Substeps int     `yaml:"substeps"` // Integration/collision passes per tick
}

// PhysicsConfig holds the heuristic motion constants.
type PhysicsConfig struct {
	Friction  float64 `yaml:"friction"`  // Verlet velocity retention per substep
	Repulsion float64 `yaml:"repulsion"` // Collision push strength
	Epsilon   float64 `yaml:"epsilon"`   // Distances below this are treated as coincident
}

// GridConfig holds spatial hash parameters.
type GridConfig struct {
	ScaleFactor float64 `yaml:"scale_factor"` // Bucket edge in cell diameters
	MaxPerCell  int     `yaml:"max_per_cell"` // Bucket capacity; overflow is dropped
}

// CellConfig holds fibroblast parameters.
type CellConfig struct {
	Radius                  float64 `yaml:"radius"`
	MaxCount                int     `yaml:"max_count"`
	MaxSpeed                float64 `yaml:"max_speed"`
	ReproductionOffset      float64 `yaml:"reproduction_offset"` // Child offset square edge, in radii
	CycleDuration           int     `yaml:"cycle_duration"`      // Base cycle length in ticks
	CycleJitter             int     `yaml:"cycle_jitter"`        // Full width of the uniform jitter
	InhibitionFactor        float64 `yaml:"inhibition_factor"`
	InhibitionThreshold     float64 `yaml:"inhibition_threshold"`
	InhibitionExitThreshold float64 `yaml:"inhibition_exit_threshold"`
	InhibitionRadius        float64 `yaml:"inhibition_radius"` // In radii
}

// ECMConfig holds deposit parameters.
type ECMConfig struct {
	MaxCount          int     `yaml:"max_count"`
	DetectionRadius   float64 `yaml:"detection_radius"` // Unit-domain distance
	MinPeriod         int     `yaml:"min_period"`       // Ticks between deposits on bare ground
	Threshold         int     `yaml:"threshold"`        // Deposition stops above this many nearby deposits
	AvoidanceStrength float64 `yaml:"avoidance_strength"`
}

// GenesConfig holds the developmental expression program.
type GenesConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Noise    float64         `yaml:"noise"` // Uniform noise half-width per tick
	Channels []ChannelConfig `yaml:"channels"`
}

// ChannelConfig defines one expression channel as control points over a normalized cycle.
type ChannelConfig struct {
	Name   string       `yaml:"name"`
	Points [][2]float64 `yaml:"points"` // (time in [0,1], value), sorted by time
}

// InitConfig holds the starting population.
type InitConfig struct {
	Mode  string `yaml:"mode"`
	Count int    `yaml:"count"`
	Seed  int64  `yaml:"seed"`
}

// ScenarioConfig holds scheduled interventions.
type ScenarioConfig struct {
	Events []EventConfig `yaml:"events"`
}

// EventConfig is one scheduled intervention.
type EventConfig struct {
	Step   int32   `yaml:"step"`
	Kind   string  `yaml:"kind"`
	Shape  string  `yaml:"shape,omitempty"`
	X      float64 `yaml:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty"`
	SizeUM float64 `yaml:"size_um,omitempty"`
	Count  int     `yaml:"count,omitempty"`
}

// ParallelConfig holds worker pool settings.
type ParallelConfig struct {
	Threshold int `yaml:"threshold"` // Minimum agents for a parallel pass
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow     int     `yaml:"stats_window"`    // Ticks per CSV row
	WoundThreshold  float64 `yaml:"wound_threshold"` // Occupancy below this counts as wound
	PixelCells      int     `yaml:"pixel_cells"`     // Bucket occupancy mapped to full coverage
	PerfWindow      int     `yaml:"perf_window"`
	BookmarkHistory int     `yaml:"bookmark_history"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	GridRes       int                // Buckets per axis
	CellRadius32  float32            // Cell.Radius as float32
	UMPerUnit     float64            // Domain.SizeUM
	BucketUM      float64            // Bucket edge in micrometres
	ScenarioShape []components.Shape // Parsed shape per scenario event (circle for non-wound events)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults, validated. Panics if the embedded file is broken.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates the config and recomputes derived values.
// Call it after mutating a loaded config in code.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Cell.Radius <= 0 || c.Cell.Radius >= 0.25 {
		return invalid("cell.radius %v outside (0, 0.25)", c.Cell.Radius)
	}
	if c.Cell.MaxCount <= 0 {
		return invalid("cell.max_count must be positive")
	}
	if c.ECM.MaxCount <= 0 {
		return invalid("ecm.max_count must be positive")
	}
	if c.Domain.Substeps <= 0 {
		return invalid("domain.substeps must be positive")
	}
	if c.Domain.SizeUM <= 0 {
		return invalid("domain.size_um must be positive")
	}
	if c.Grid.ScaleFactor <= 0 || c.Grid.MaxPerCell <= 0 {
		return invalid("grid.scale_factor and grid.max_per_cell must be positive")
	}
	if c.Cell.CycleDuration <= 0 {
		return invalid("cell.cycle_duration must be positive")
	}
	if c.Cell.CycleJitter < 0 || c.Cell.CycleJitter >= c.Cell.CycleDuration {
		return invalid("cell.cycle_jitter %d outside [0, cycle_duration)", c.Cell.CycleJitter)
	}
	if c.Cell.InhibitionExitThreshold >= c.Cell.InhibitionThreshold {
		return invalid("cell.inhibition_exit_threshold must be below inhibition_threshold")
	}

	switch c.Init.Mode {
	case InitSingle, InitScatter, InitConfluent:
	default:
		return invalid("unknown init.mode %q", c.Init.Mode)
	}

	for i, ev := range c.Scenario.Events {
		switch ev.Kind {
		case EventWound:
			if _, err := components.ParseShape(ev.Shape); err != nil {
				return invalid("scenario.events[%d]: %v", i, err)
			}
			if ev.SizeUM <= 0 {
				return invalid("scenario.events[%d]: size_um must be positive", i)
			}
		case EventSeed, EventCheckpoint:
		default:
			return invalid("scenario.events[%d]: unknown kind %q", i, ev.Kind)
		}
		if ev.Step < 0 {
			return invalid("scenario.events[%d]: negative step", i)
		}
	}

	if c.Genes.Enabled {
		if len(c.Genes.Channels) != components.GeneCount {
			return invalid("genes.channels: want %d channels, got %d", components.GeneCount, len(c.Genes.Channels))
		}
		for i, ch := range c.Genes.Channels {
			if len(ch.Points) < 2 {
				return invalid("genes.channels[%d]: need at least two points", i)
			}
			prev := math.Inf(-1)
			for _, p := range ch.Points {
				if p[0] < 0 || p[0] > 1 || p[0] <= prev {
					return invalid("genes.channels[%d]: point times must be strictly increasing in [0,1]", i)
				}
				prev = p[0]
			}
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	res := int(1 / (c.Cell.Radius * 2 * c.Grid.ScaleFactor))
	if res < 1 {
		res = 1
	}
	c.Derived.GridRes = res
	c.Derived.CellRadius32 = float32(c.Cell.Radius)
	c.Derived.UMPerUnit = c.Domain.SizeUM
	c.Derived.BucketUM = c.Domain.SizeUM / float64(res)

	c.Derived.ScenarioShape = make([]components.Shape, len(c.Scenario.Events))
	for i, ev := range c.Scenario.Events {
		if ev.Kind == EventWound {
			c.Derived.ScenarioShape[i], _ = components.ParseShape(ev.Shape)
		}
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
