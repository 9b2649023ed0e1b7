// Package main renders PNG charts from the telemetry.csv of a run.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"gonum.org/v1/plot/vg"
)

func main() {
	input := flag.String("input", "", "Run output directory containing telemetry.csv")
	output := flag.String("output", "", "Directory for the PNG charts (empty = input directory)")
	width := flag.Float64("width", 8, "Chart width in inches")
	height := flag.Float64("height", 4, "Chart height in inches")
	flag.Parse()

	if *input == "" {
		log.Fatal("--input is required")
	}
	outDir := *output
	if outDir == "" {
		outDir = *input
	}

	rows, err := loadWindows(filepath.Join(*input, "telemetry.csv"))
	if err != nil {
		log.Fatalf("failed to load telemetry: %v", err)
	}

	paths, err := render(rows, outDir, vg.Length(*width)*vg.Inch, vg.Length(*height)*vg.Inch)
	if err != nil {
		log.Fatalf("failed to render charts: %v", err)
	}
	fmt.Printf("Rendered %d windows (steps %d-%d)\n", len(rows), rows[0].WindowEndTick, rows[len(rows)-1].WindowEndTick)
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
}
