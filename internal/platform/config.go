package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/quill/internal/atomicfile"
	"github.com/aretw0/quill/pkg/compaction"
)

// ConfigFileName is the notebook configuration file looked up by FindRoot.
const ConfigFileName = ".quill.yaml"

// Compaction modes.
const (
	ModeDaily    = "daily"
	ModeInterval = "interval"
)

// Config is the on-disk notebook configuration read by the CLI and the daemon.
type Config struct {
	Database    string           `yaml:"database"`
	ReadOnly    bool             `yaml:"read_only,omitempty"`
	LogLevel    string           `yaml:"log_level,omitempty"`
	MetricsAddr string           `yaml:"metrics_addr,omitempty"`
	Compaction  CompactionConfig `yaml:"compaction"`
}

// CompactionConfig selects the sweep policy.
type CompactionConfig struct {
	Mode     string        `yaml:"mode"`
	Interval time.Duration `yaml:"interval,omitempty"`
	DailyAt  string        `yaml:"daily_at,omitempty"`
	Timezone string        `yaml:"timezone,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Database: DefaultDatabase,
		LogLevel: "info",
		Compaction: CompactionConfig{
			Mode:     ModeDaily,
			Interval: compaction.DevInterval,
			DailyAt:  fmt.Sprintf("%02d:%02d", compaction.DefaultHour, compaction.DefaultMinute),
		},
	}
}

// LoadConfig reads a config file over the defaults and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig stores cfg at path atomically.
func WriteConfig(path string, cfg Config) error {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	return atomicfile.Write(path, []byte(buf.String()), 0644)
}

// Validate checks the policy and log level.
func (c Config) Validate() error {
	_, err := c.Policy()
	_, lerr := c.Level()
	return errors.Join(err, lerr)
}

// Policy builds the compaction policy described by the config.
func (c Config) Policy() (compaction.Policy, error) {
	switch c.Compaction.Mode {
	case ModeInterval:
		if c.Compaction.Interval <= 0 {
			return nil, fmt.Errorf("compaction interval must be positive, got %s", c.Compaction.Interval)
		}
		return compaction.Every(c.Compaction.Interval), nil
	case ModeDaily, "":
		hour, minute, err := parseClock(c.Compaction.DailyAt)
		if err != nil {
			return nil, err
		}
		loc := time.Local
		if c.Compaction.Timezone != "" {
			if loc, err = time.LoadLocation(c.Compaction.Timezone); err != nil {
				return nil, fmt.Errorf("compaction timezone: %w", err)
			}
		}
		return compaction.DailyAt(hour, minute, loc)
	default:
		return nil, fmt.Errorf("unknown compaction mode %q", c.Compaction.Mode)
	}
}

// Level parses LogLevel; empty means info.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// parseClock parses "HH:MM"; empty means the default 02:00.
func parseClock(s string) (int, int, error) {
	if s == "" {
		return compaction.DefaultHour, compaction.DefaultMinute, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("daily_at must be HH:MM, got %q", s)
	}
	return t.Hour(), t.Minute(), nil
}
