// Package game runs the fibroblast simulation with its scenario, telemetry and
// interactive viewer.
package game

import (
	"fmt"
	"log/slog"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fibro/camera"
	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/config"
	"github.com/pthm-cable/fibro/renderer"
	"github.com/pthm-cable/fibro/scenario"
	"github.com/pthm-cable/fibro/systems"
	"github.com/pthm-cable/fibro/telemetry"
	"github.com/pthm-cable/fibro/ui"
)

const defaultToolSizeUM = 400

// Game holds the complete run state.
type Game struct {
	cfg      *config.Config
	sim      *systems.Simulation
	scenario *scenario.Scheduler

	// Telemetry
	collector     *telemetry.Collector
	meter         *telemetry.WoundMeter
	bookmarks     *telemetry.BookmarkDetector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	frames        *telemetry.FrameWriter
	frameEvery    int32
	statsCallback func(telemetry.WindowStats)
	logStats      bool
	perfLog       bool
	checkpointDir string
	lastStats     telemetry.WindowStats

	// Viewer (nil when headless)
	headless  bool
	camera    *camera.Camera
	cells     *renderer.CellRenderer
	ecm       *renderer.ECMRenderer
	occupancy *renderer.OccupancyRenderer
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	tools     *ui.ToolPanel
	controls  *ui.ControlsPanel
	overlays  *ui.OverlayRegistry
	tool      ui.ToolState

	stepsPerUpdate int
	screenWidth    float32
	screenHeight   float32
}

// NewGameWithOptions builds the simulation, loads a checkpoint if asked and
// sets up telemetry. The viewer is only created when not headless, and must be
// created after the raylib window.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	sim, err := systems.NewSimulation(cfg, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("creating simulation: %w", err)
	}

	g := &Game{
		cfg:            cfg,
		sim:            sim,
		scenario:       scenario.New(cfg),
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		meter:          telemetry.NewWoundMeter(cfg),
		bookmarks:      telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory, cfg.Cell.MaxCount, cfg.ECM.MaxCount),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		perfLog:        opts.PerfLog,
		checkpointDir:  opts.CheckpointDir,
		headless:       opts.Headless,
		stepsPerUpdate: min(max(opts.StepsPerUpdate, MinStepsPerUpdate), MaxStepsPerUpdate),
	}
	sim.SetRecorder(g.perfCollector)

	if opts.LoadCheckpoint != "" {
		if err := g.resume(opts.LoadCheckpoint); err != nil {
			sim.Close()
			return nil, err
		}
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			sim.Close()
			return nil, fmt.Errorf("creating output manager: %w", err)
		}
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
		g.outputManager = om

		if opts.FrameEvery > 0 {
			fw, err := telemetry.NewFrameWriter(filepath.Join(opts.OutputDir, "frames"), cfg)
			if err != nil {
				om.Close()
				sim.Close()
				return nil, err
			}
			g.frames = fw
			g.frameEvery = int32(opts.FrameEvery)
		}
	}

	if !g.headless {
		g.initViewer()
	}

	slog.Info("simulation started",
		"seed", opts.Seed,
		"mode", cfg.Init.Mode,
		"cells", sim.Fibroblasts.Count(),
		"grid_res", cfg.Derived.GridRes,
		"scheduled", g.scenario.Pending(),
		"headless", g.headless,
	)
	return g, nil
}

// resume imports a checkpoint and drops the scenario events it already contains.
func (g *Game) resume(dir string) error {
	cp, err := telemetry.LoadCheckpoint(dir)
	if err != nil {
		return fmt.Errorf("loading checkpoint: %w", err)
	}
	if err := g.sim.Import(cp); err != nil {
		return fmt.Errorf("importing checkpoint: %w", err)
	}
	skipped := g.scenario.Due(cp.Step - 1)
	g.collector.Reset(cp.Step)
	slog.Info("checkpoint loaded",
		"dir", dir,
		"step", cp.Step,
		"cells", g.sim.Fibroblasts.Count(),
		"ecm", g.sim.ECM.Count(),
		"skipped_events", len(skipped),
	)
	return nil
}

func (g *Game) initViewer() {
	w := float32(g.cfg.Screen.Width)
	h := float32(g.cfg.Screen.Height)
	g.screenWidth, g.screenHeight = w, h

	g.camera = camera.New(w, h)
	g.cells = renderer.NewCellRenderer()
	g.ecm = renderer.NewECMRenderer()
	g.occupancy = renderer.NewOccupancyRenderer()
	g.occupancy.Init(g.cfg.Derived.GridRes)
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(int32(w)-270, 10)
	g.tools = ui.NewToolPanel(w-310, h-140)
	g.controls = ui.NewControlsPanel(10, 360, 220)
	g.overlays = ui.NewOverlayRegistry()
	g.tool = ui.ToolState{
		Shape:  components.ShapeCircle,
		SizeUM: defaultToolSizeUM,
	}
}

// Tick returns the number of completed simulation steps.
func (g *Game) Tick() int32 {
	return g.sim.StepCount()
}

// Simulation returns the running engine.
func (g *Game) Simulation() *systems.Simulation {
	return g.sim
}

// LastStats returns the most recently flushed telemetry window.
func (g *Game) LastStats() telemetry.WindowStats {
	return g.lastStats
}

// Update handles input and advances the simulation in graphical mode.
func (g *Game) Update() {
	g.handleInput()
	if !g.tool.Paused {
		for range g.stepsPerUpdate {
			g.step()
		}
	}
	g.perfCollector.RecordFrame()
}

// UpdateHeadless advances the simulation by one step without input or rendering.
func (g *Game) UpdateHeadless() {
	g.step()
}

// step runs one tick: due interventions, the engine step, then telemetry.
// Scheduled checkpoints are written after the engine step so a resumed run
// replays from the same point as one saved interactively.
func (g *Game) step() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseScenario)
	actions := g.scenario.Apply(g.sim, g.sim.StepCount())
	for _, a := range actions {
		if a.Kind == scenario.KindWound {
			g.recordWound(a.Wound.Y, a.Removed)
		}
	}

	g.sim.Step()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordTick(g.sim.Fibroblasts.Births(), g.sim.Fibroblasts.Deposits())
	for _, a := range actions {
		if a.Kind == scenario.KindCheckpoint {
			g.saveCheckpoint(a.Checkpoint.Tag)
		}
	}
	g.flushTelemetry()
	g.captureFrame()

	g.perfCollector.EndTick()
}

// Unload releases GPU resources, closes output files and stops the worker pool.
func (g *Game) Unload() {
	if g.occupancy != nil {
		g.occupancy.Unload()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.sim.Close()
}

// screenSize reports the current window size.
func (g *Game) screenSize() (float32, float32) {
	return float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
}
