package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/pthm-cable/fibro/components"
	"github.com/pthm-cable/fibro/telemetry"
)

var errNoRows = errors.New("telemetry has no rows")

// series is one line on a chart.
type series struct {
	name  string
	value func(*telemetry.WindowStats) float64
}

// chart is one PNG written by render.
type chart struct {
	file   string
	title  string
	ylabel string
	series []series
}

func charts() []chart {
	phases := make([]series, len(components.PhaseNames()))
	for i, name := range components.PhaseNames() {
		phases[i] = series{name, func(s *telemetry.WindowStats) float64 { return float64(*s.PhaseCounts()[i]) }}
	}
	genes := make([]series, len(components.GeneNames()))
	for i, name := range components.GeneNames() {
		genes[i] = series{name, func(s *telemetry.WindowStats) float64 { return *s.GeneMeans()[i] }}
	}

	return []chart{
		{"population.png", "Population", "Count", []series{
			{"Fibroblasts", func(s *telemetry.WindowStats) float64 { return float64(s.Population) }},
			{"ECM", func(s *telemetry.WindowStats) float64 { return float64(s.ECM) }},
		}},
		{"phases.png", "Cell-cycle phases", "Cells", phases},
		{"genes.png", "Mean gene expression", "Expression", genes},
		{"closure.png", "Wound closure", "Closure (%)", []series{
			{"Closure", func(s *telemetry.WindowStats) float64 { return s.ClosurePct }},
		}},
	}
}

// loadWindows reads every row of a telemetry.csv.
func loadWindows(path string) ([]telemetry.WindowStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []telemetry.WindowStats
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rows, nil
}

// render writes every chart into outDir and returns the paths written.
func render(rows []telemetry.WindowStats, outDir string, width, height vg.Length) ([]string, error) {
	if len(rows) == 0 {
		return nil, errNoRows
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	var written []string
	for _, c := range charts() {
		p := plot.New()
		p.Title.Text = c.title
		p.X.Label.Text = "Simulation Step"
		p.Y.Label.Text = c.ylabel
		p.Legend.Top = true

		lines := make([]interface{}, 0, 2*len(c.series))
		for _, s := range c.series {
			pts := make(plotter.XYs, len(rows))
			for i := range rows {
				pts[i].X = float64(rows[i].WindowEndTick)
				pts[i].Y = s.value(&rows[i])
			}
			lines = append(lines, s.name, pts)
		}
		if err := plotutil.AddLines(p, lines...); err != nil {
			return written, fmt.Errorf("%s: %w", c.file, err)
		}

		path := filepath.Join(outDir, c.file)
		if err := p.Save(width, height, path); err != nil {
			return written, fmt.Errorf("saving %s: %w", c.file, err)
		}
		written = append(written, path)
	}
	return written, nil
}
