package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/fibro/components"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cell.Radius != 0.004 {
		t.Errorf("cell.radius = %v, want 0.004", cfg.Cell.Radius)
	}
	// 1 / (2 * 0.004 * 1.5) = 83.3
	if cfg.Derived.GridRes != 83 {
		t.Errorf("Derived.GridRes = %d, want 83", cfg.Derived.GridRes)
	}
	if len(cfg.Genes.Channels) != components.GeneCount {
		t.Errorf("gene channels = %d, want %d", len(cfg.Genes.Channels), components.GeneCount)
	}
	if len(cfg.Derived.ScenarioShape) != len(cfg.Scenario.Events) {
		t.Errorf("derived shapes %d for %d events", len(cfg.Derived.ScenarioShape), len(cfg.Scenario.Events))
	}
}

func TestLoad_OverlayKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	overlay := "cell:\n  cycle_duration: 120\ninit:\n  mode: single\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cell.CycleDuration != 120 {
		t.Errorf("cycle_duration = %d, want 120", cfg.Cell.CycleDuration)
	}
	if cfg.Init.Mode != InitSingle {
		t.Errorf("init.mode = %q, want single", cfg.Init.Mode)
	}
	if cfg.Cell.MaxCount != 20000 {
		t.Errorf("max_count = %d, default lost", cfg.Cell.MaxCount)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown init mode", func(c *Config) { c.Init.Mode = "spiral" }},
		{"unknown wound shape", func(c *Config) { c.Scenario.Events[0].Shape = "hexagon" }},
		{"unknown event kind", func(c *Config) { c.Scenario.Events[0].Kind = "laser" }},
		{"zero wound size", func(c *Config) { c.Scenario.Events[0].SizeUM = 0 }},
		{"radius too large", func(c *Config) { c.Cell.Radius = 0.3 }},
		{"zero radius", func(c *Config) { c.Cell.Radius = 0 }},
		{"zero capacity", func(c *Config) { c.ECM.MaxCount = 0 }},
		{"exit above entry", func(c *Config) { c.Cell.InhibitionExitThreshold = 1.5 }},
		{"jitter too wide", func(c *Config) { c.Cell.CycleJitter = c.Cell.CycleDuration }},
		{"missing gene channel", func(c *Config) { c.Genes.Channels = c.Genes.Channels[:10] }},
		{"unsorted gene points", func(c *Config) {
			c.Genes.Channels[0].Points = [][2]float64{{0.5, 1}, {0.2, 0}}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidate_GenesDisabledSkipsChannels(t *testing.T) {
	cfg := Default()
	cfg.Genes.Enabled = false
	cfg.Genes.Channels = nil
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate = %v, want nil", err)
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Cell.CycleDuration = 321
	cfg.ECM.Threshold = 3
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Cell.CycleDuration != 321 || back.ECM.Threshold != 3 {
		t.Errorf("round trip lost values: cycle %d threshold %d", back.Cell.CycleDuration, back.ECM.Threshold)
	}
}

func TestInitAndCfg(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Cfg().Domain.Substeps != 3 {
		t.Errorf("Cfg().Domain.Substeps = %d, want 3", Cfg().Domain.Substeps)
	}
}
