package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	healthxl "github.com/GRIGOR2T/apple-health-to-excel"
	"github.com/GRIGOR2T/apple-health-to-excel/pipeline"
)

// EnvPrefix prefixes every environment variable, e.g. HEALTH_EXPORT_PATH.
const EnvPrefix = "HEALTH"

// DateLayout is the layout of dates in config files and the environment.
const DateLayout = "2006-01-02"

// Config represents the complete report configuration.
type Config struct {
	ExportPath    string        `yaml:"export_path" envconfig:"EXPORT_PATH"`
	OutDir        string        `yaml:"out_dir" envconfig:"OUT_DIR"`
	Formats       []string      `yaml:"formats" envconfig:"FORMATS"`
	Jobs          []string      `yaml:"jobs" envconfig:"JOBS"`
	SourceMarker  string        `yaml:"source_marker" envconfig:"SOURCE_MARKER"`
	ZoneBounds    []float64     `yaml:"zone_bounds" envconfig:"ZONE_BOUNDS"`
	ProgressEvery int           `yaml:"progress_every" envconfig:"PROGRESS_EVERY"`
	Cutoffs       CutoffsConfig `yaml:"cutoffs" envconfig:"CUTOFF"`
	Logging       LoggingConfig `yaml:"logging" envconfig:"LOG"`
}

// CutoffsConfig holds the first date each report considers.
type CutoffsConfig struct {
	VO2Max          Date `yaml:"vo2max" envconfig:"VO2MAX"`
	Weight          Date `yaml:"weight" envconfig:"WEIGHT"`
	Walks           Date `yaml:"walks" envconfig:"WALKS"`
	WeeklyFromDaily Date `yaml:"weekly_from_daily" envconfig:"WEEKLY_FROM_DAILY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Date is a calendar date that decodes from "2006-01-02" in YAML and in
// the environment. The zero Date means no cutoff.
type Date struct {
	time.Time
}

// ParseDate reads a "2006-01-02" date. An empty string is the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return Date{t}, nil
}

// Decode implements envconfig.Decoder.
func (d *Date) Decode(value string) error {
	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Date) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.Decode(s)
}

// MarshalYAML writes the date back in DateLayout.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Default returns the built-in configuration.
func Default() Config {
	cut := pipeline.DefaultCutoffs()
	return Config{
		ExportPath:    "export.xml",
		OutDir:        "reports",
		Formats:       []string{pipeline.FormatXLSX},
		Jobs:          append([]string(nil), pipeline.DefaultJobs...),
		SourceMarker:  healthxl.DefaultSourceMarker,
		ZoneBounds:    append([]float64(nil), healthxl.DefaultZoneBounds...),
		ProgressEvery: healthxl.DefaultProgressEvery,
		Cutoffs: CutoffsConfig{
			VO2Max:          Date{cut.VO2Max},
			Weight:          Date{cut.Weight},
			Walks:           Date{cut.Walks},
			WeeklyFromDaily: Date{cut.WeeklyFromDaily},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file in the working directory and HEALTH_* environment
// variables, each layer overriding the previous one. Command-line flags are
// applied by the caller on top.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys missing from the file
// keep their current value.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the values no later stage would reject with a clear
// message.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ExportPath) == "" {
		return fmt.Errorf("export_path is required")
	}
	if strings.TrimSpace(c.OutDir) == "" {
		return fmt.Errorf("out_dir is required")
	}
	for _, f := range c.Formats {
		if _, err := pipeline.NewWriter(f); err != nil {
			return err
		}
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress_every must not be negative")
	}
	if len(c.ZoneBounds) > 0 {
		if _, err := healthxl.NewZoneTable(c.ZoneBounds); err != nil {
			return fmt.Errorf("zone_bounds: %w", err)
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q (expected text|json)", c.Logging.Format)
	}
	return nil
}

// Options maps the configuration onto pipeline options. The logger is
// supplied by the caller.
func (c *Config) Options() pipeline.Options {
	return pipeline.Options{
		ExportPath:    c.ExportPath,
		OutDir:        c.OutDir,
		Formats:       append([]string(nil), c.Formats...),
		Jobs:          append([]string(nil), c.Jobs...),
		SourceMarker:  c.SourceMarker,
		ZoneBounds:    append([]float64(nil), c.ZoneBounds...),
		ProgressEvery: c.ProgressEvery,
		Cutoffs: pipeline.Cutoffs{
			VO2Max:          c.Cutoffs.VO2Max.Time,
			Weight:          c.Cutoffs.Weight.Time,
			Walks:           c.Cutoffs.Walks.Time,
			WeeklyFromDaily: c.Cutoffs.WeeklyFromDaily.Time,
		},
	}
}
