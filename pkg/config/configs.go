// Package config provides configuration management for the dataset generator.
package config

import (
	"os"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"DatasetGenerator/pkg/probing"
)

// Config holds all generator configuration options.
type Config struct {
	// Collection settings
	Samples       int           `yaml:"samples" env:"SAMPLES"`
	Capacity      int           `yaml:"capacity" env:"CAPACITY"`
	GoalSamples   int           `yaml:"goal_samples" env:"GOAL_SAMPLES"`
	GrowStep      int           `yaml:"grow_step" env:"GROW_STEP"`
	Interval      time.Duration `yaml:"interval" env:"INTERVAL"`
	ProgressEvery int           `yaml:"progress_every" env:"PROGRESS_EVERY"`
	FlushEvery    int           `yaml:"flush_every" env:"FLUSH_EVERY"`
	Concurrent    bool          `yaml:"concurrent" env:"CONCURRENT"`
	Retries       int           `yaml:"retries" env:"RETRIES"`

	// Sources
	DiskPath     string `yaml:"disk_path" env:"DISK_PATH"`
	Temperatures bool   `yaml:"temperatures" env:"TEMPERATURES"`
	TempPattern  string `yaml:"temp_pattern" env:"TEMP_PATTERN"`
	Process      bool   `yaml:"process" env:"PROCESS"`
	GPU          bool   `yaml:"gpu" env:"GPU"`
	RunFields    bool   `yaml:"run_fields" env:"RUN_FIELDS"`

	// Output settings
	OutputPath   string `yaml:"output" env:"OUTPUT"`
	ChunkSamples int    `yaml:"chunk_samples" env:"CHUNK_SAMPLES"`
	StrictNames  bool   `yaml:"strict_names" env:"STRICT_NAMES"`
	ExportFormat string `yaml:"export_format" env:"EXPORT_FORMAT"`
	ExportPath   string `yaml:"export_output" env:"EXPORT_OUTPUT"`

	// System identification
	UUID     string `yaml:"uuid" env:"UUID"`
	Hostname string `yaml:"hostname" env:"HOSTNAME_OVERRIDE"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// Default configuration values.
const (
	DefaultOutputPath    = "dataset.tlm"
	DefaultSamples       = 100000
	DefaultChunkSamples  = 1024
	DefaultProgressEvery = 100
	DefaultDiskPath      = "/"
	DefaultFormat        = "parquet"
	DefaultLogLevel      = "info"
	DefaultTempPattern   = probing.DefaultCorePattern
)

// New creates a Config with default values.
func New() *Config {
	hostname, _ := os.Hostname()

	return &Config{
		Samples:       DefaultSamples,
		ProgressEvery: DefaultProgressEvery,
		DiskPath:      DefaultDiskPath,
		Temperatures:  true,
		TempPattern:   DefaultTempPattern,
		RunFields:     true,
		OutputPath:    DefaultOutputPath,
		ChunkSamples:  DefaultChunkSamples,
		ExportFormat:  DefaultFormat,
		Hostname:      hostname,
		LogLevel:      DefaultLogLevel,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Samples < 1 {
		return errors.Errorf("samples must be at least 1, got %d", c.Samples)
	}
	if c.Capacity < 0 {
		return errors.Errorf("capacity cannot be negative, got %d", c.Capacity)
	}
	if c.GoalSamples < 0 {
		return errors.Errorf("goal samples cannot be negative, got %d", c.GoalSamples)
	}
	if c.GrowStep < 0 {
		return errors.Errorf("grow step cannot be negative, got %d", c.GrowStep)
	}
	if c.Interval < 0 {
		return errors.Errorf("interval cannot be negative, got %v", c.Interval)
	}
	if c.ProgressEvery < 0 || c.FlushEvery < 0 || c.Retries < 0 {
		return errors.New("progress, flush and retry counts cannot be negative")
	}
	if c.ChunkSamples < 1 {
		return errors.Errorf("chunk samples must be at least 1, got %d", c.ChunkSamples)
	}
	if c.OutputPath == "" {
		return errors.New("output path is required")
	}
	if _, err := regexp.Compile(c.TempPattern); err != nil {
		return errors.Wrap(err, "invalid temperature sensor pattern")
	}
	if !isValidOutputFormat(c.ExportFormat) {
		return errors.Errorf("invalid export format: %s (valid: parquet, jsonl, csv, tsv)", c.ExportFormat)
	}
	if info, err := os.Stat(c.OutputPath); err == nil && info.IsDir() {
		return errors.Errorf("output path is a directory: %s", c.OutputPath)
	}
	return nil
}

// ValidOutputFormats returns the list of supported export formats.
func ValidOutputFormats() []string {
	return []string{"parquet", "jsonl", "csv", "tsv"}
}

func isValidOutputFormat(format string) bool {
	for _, f := range ValidOutputFormats() {
		if f == format {
			return true
		}
	}
	return false
}

// ApplyDefaults fills in any missing values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Samples == 0 {
		c.Samples = DefaultSamples
	}
	if c.OutputPath == "" {
		c.OutputPath = DefaultOutputPath
	}
	if c.ChunkSamples == 0 {
		c.ChunkSamples = DefaultChunkSamples
	}
	if c.DiskPath == "" {
		c.DiskPath = DefaultDiskPath
	}
	if c.TempPattern == "" {
		c.TempPattern = DefaultTempPattern
	}
	if c.ExportFormat == "" {
		c.ExportFormat = DefaultFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Hostname == "" {
		c.Hostname, _ = os.Hostname()
	}
	if c.UUID == "" {
		c.UUID = uuid.NewString()
	}
}

// TableCapacity returns the number of samples to pre-allocate.
func (c *Config) TableCapacity() int {
	if c.Capacity > 0 {
		return c.Capacity
	}
	return c.Samples
}

// Goal returns the sample count used for the duration extrapolation.
func (c *Config) Goal() int {
	if c.GoalSamples > 0 {
		return c.GoalSamples
	}
	return c.Samples
}
