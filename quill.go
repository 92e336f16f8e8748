package quill

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/quill/internal/platform"
	"github.com/aretw0/quill/pkg/compaction"
	"github.com/aretw0/quill/pkg/core"
)

// Version is the release of the library and CLI. Overridden at link time.
var Version = "0.1.0-dev"

// --- Types ---

// Notebook bundles the store, service and compactor of one database.
type Notebook = platform.Notebook

// Config is the on-disk notebook configuration (.quill.yaml).
type Config = platform.Config

// --- Configuration ---

// Option defines a functional option for configuring quill.
type Option = platform.Option

// ConfigFileName is the name of the notebook configuration file.
const ConfigFileName = platform.ConfigFileName

// WithForceTemp forces the database into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist fails instead of creating a missing database.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithInMemory opens a private in-memory database.
func WithInMemory(enabled bool) Option {
	return platform.WithInMemory(enabled)
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore allows injecting a custom storage adapter.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithEngine sets the CRDT engine.
func WithEngine(engine core.Engine) Option {
	return platform.WithEngine(engine)
}

// WithMetrics registers compaction metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return platform.WithMetrics(reg)
}

// WithNow overrides the clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return platform.WithNow(now)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the dev sandbox used under `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// Open opens (creating if needed) the notebook database at path.
func Open(path string, opts ...Option) (*Notebook, error) {
	return platform.Open(path, opts...)
}

// Init opens and initializes the store only.
func Init(path string, opts ...Option) (core.Store, error) {
	return platform.Init(path, opts...)
}

// --- Compaction policies ---

// Every runs a sweep each d.
func Every(d time.Duration) compaction.Policy {
	return compaction.Every(d)
}

// DailyAt runs a sweep once a day at hour:minute in loc.
func DailyAt(hour, minute int, loc *time.Location) (compaction.Policy, error) {
	return compaction.DailyAt(hour, minute, loc)
}

// --- Config & Utils ---

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// LoadConfig reads a config file.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// WriteConfig writes a config file atomically.
func WriteConfig(path string, cfg Config) error {
	return platform.WriteConfig(path, cfg)
}

// WatchConfig calls onChange with every valid version of the config file until ctx ends.
func WatchConfig(ctx context.Context, path string, logger *slog.Logger, onChange func(Config)) error {
	return platform.WatchConfig(ctx, path, logger, onChange)
}

// ResolveDatabasePath determines the actual database path based on safety rules.
func ResolveDatabasePath(userPath string, forceTemp bool) string {
	return platform.ResolveDatabasePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for the directory holding ConfigFileName.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
