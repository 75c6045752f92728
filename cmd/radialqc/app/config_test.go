package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roman-kulish/radialqc/internal/qc"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
  workers: 2
input:
  directory: /data/radials
  mergeWindow: 30m
qc:
  thresholds:
    peakPower: 7.5
averaging:
  bearingSpread: 2
  weight: snr
output:
  prefix: RDLy
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if config.Settings.LogLevel != slog.LevelDebug || config.Settings.Workers != 2 {
		t.Errorf("Unexpected settings: %+v", config.Settings)
	}
	if config.Input.Pattern != defaultPattern {
		t.Errorf("Expected default pattern, got %q", config.Input.Pattern)
	}
	if time.Duration(config.Input.MergeWindow) != 30*time.Minute {
		t.Errorf("Expected 30m merge window, got %v", time.Duration(config.Input.MergeWindow))
	}

	expected := qc.Thresholds{
		PeakPower:      7.5,
		HalfPowerWidth: qc.DefaultHalfPowerWidthThreshold,
		MonopoleSNR:    qc.DefaultMonopoleSNRThreshold,
	}
	if !config.QC.Enabled || config.QC.Thresholds != expected {
		t.Errorf("Expected QC enabled with %+v, got %+v", expected, config.QC)
	}

	if config.Averaging.BearingSpread != 2 || config.Averaging.Policy() != qc.WeightMonopoleSNR {
		t.Errorf("Unexpected averaging: %+v, policy %s", config.Averaging, config.Averaging.Policy())
	}
	if config.Output.Prefix != "RDLy" {
		t.Errorf("Expected prefix RDLy, got %q", config.Output.Prefix)
	}
	if config.Storage.Enabled {
		t.Error("Expected storage to be disabled by default")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains []string
	}{
		{
			name:     "no input",
			content:  "settings:\n  workers: 1\n",
			contains: []string{"directory or files required"},
		},
		{
			name:     "bad duration",
			content:  "input:\n  directory: .\n  mergeWindow: soon\n",
			contains: []string{"parsing config"},
		},
		{
			name: "several problems",
			content: `
input:
  directory: .
  pattern: "["
settings:
  workers: 0
averaging:
  bearingSpread: -1
  weight: median
storage:
  enabled: true
  maxBatchSize: 5000
`,
			contains: []string{
				"invalid pattern",
				"workers must be at least 1",
				"bearing spread must not be negative",
				"unknown weight policy",
				"max batch size",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			for _, s := range tt.contains {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("Expected error to contain %q, got %v", s, err)
				}
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
