package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/radialqc/internal/qc"
	"github.com/roman-kulish/radialqc/internal/storage"
)

const (
	defaultPattern      = "RDLv*.ruv"
	defaultOutputPrefix = "RDLx"
	defaultStorageDir   = "data"

	// SQLite binds at most 32766 variables per statement, 19 per radial
	maxStorageBatchSize = 1000
)

// Config represents the main application configuration
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Input     InputConfig     `yaml:"input"`
	QC        QCConfig        `yaml:"qc"`
	Averaging AveragingConfig `yaml:"averaging"`
	Output    OutputConfig    `yaml:"output"`
	Storage   StorageConfig   `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel slog.Level `yaml:"logLevel"`
	Workers  int        `yaml:"workers"` // Files processed concurrently, defaults to the number of CPUs
}

// InputConfig selects the radialmetric files to process
type InputConfig struct {
	Directory   string   `yaml:"directory"`   // Searched recursively for Pattern
	Pattern     string   `yaml:"pattern"`     // File name glob
	Files       []string `yaml:"files"`       // Explicit files, in addition to Directory
	MergeWindow Duration `yaml:"mergeWindow"` // Neighbouring files within this distance are merged, 0 disables
}

// QCConfig represents threshold test settings
type QCConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Thresholds qc.Thresholds `yaml:"thresholds"`
}

// AveragingConfig represents velocity averaging settings
type AveragingConfig struct {
	BearingSpread float64 `yaml:"bearingSpread"` // Window half-width in degrees
	Weight        string  `yaml:"weight"`        // MP, SNR3 (SNR) or NONE

	policy qc.WeightPolicy
}

// Policy returns the parsed weight policy, valid after Validate.
func (c *AveragingConfig) Policy() qc.WeightPolicy {
	return c.policy
}

// OutputConfig represents radialshort output settings
type OutputConfig struct {
	Directory string `yaml:"directory"` // Defaults to the directory of each input file
	Prefix    string `yaml:"prefix"`    // Replaces the radialmetric file prefix
}

// StorageConfig represents storage settings
type StorageConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DataDirectory string `yaml:"dataDirectory"`
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// Duration is a time.Duration read from strings such as "30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns the configuration used for keys missing from the file.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel: slog.LevelInfo,
			Workers:  runtime.NumCPU(),
		},
		Input: InputConfig{
			Pattern: defaultPattern,
		},
		QC: QCConfig{
			Enabled:    true,
			Thresholds: qc.DefaultThresholds(),
		},
		Averaging: AveragingConfig{
			BearingSpread: qc.DefaultBearingSpread,
			Weight:        string(qc.WeightMusicPower),
		},
		Output: OutputConfig{
			Prefix: defaultOutputPrefix,
		},
		Storage: StorageConfig{
			DataDirectory: defaultStorageDir,
			MaxBatchSize:  storage.DefaultMaxBatchSize,
		},
	}
}

// LoadConfig reads the YAML configuration at path over DefaultConfig and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration and resolves derived values. Every
// problem found is reported.
func (c *Config) Validate() error {
	var errs []error

	if c.Input.Directory == "" && len(c.Input.Files) == 0 {
		errs = append(errs, errors.New("input: directory or files required"))
	}
	if _, err := filepath.Match(c.Input.Pattern, ""); err != nil || c.Input.Pattern == "" {
		errs = append(errs, fmt.Errorf("input: invalid pattern %q", c.Input.Pattern))
	}
	if c.Input.MergeWindow < 0 {
		errs = append(errs, fmt.Errorf("input: merge window must not be negative: %s", time.Duration(c.Input.MergeWindow)))
	}

	if c.Settings.Workers < 1 {
		errs = append(errs, fmt.Errorf("settings: workers must be at least 1, got %d", c.Settings.Workers))
	}

	th := c.QC.Thresholds
	if math.IsNaN(th.PeakPower) || math.IsNaN(th.HalfPowerWidth) || math.IsNaN(th.MonopoleSNR) {
		errs = append(errs, errors.New("qc: thresholds must be numbers"))
	}

	if c.Averaging.BearingSpread < 0 || math.IsNaN(c.Averaging.BearingSpread) {
		errs = append(errs, fmt.Errorf("averaging: bearing spread must not be negative: %v", c.Averaging.BearingSpread))
	}
	policy, err := qc.ParseWeightPolicy(c.Averaging.Weight)
	if err != nil {
		errs = append(errs, fmt.Errorf("averaging: %w", err))
	}
	c.Averaging.policy = policy

	if c.Output.Prefix == "" {
		errs = append(errs, errors.New("output: prefix required"))
	}

	if c.Storage.Enabled && (c.Storage.MaxBatchSize < 1 || c.Storage.MaxBatchSize > maxStorageBatchSize) {
		errs = append(errs, fmt.Errorf("storage: max batch size must be within [1, %d], got %d",
			maxStorageBatchSize, c.Storage.MaxBatchSize))
	}

	return errors.Join(errs...)
}
