package platform

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/quill/pkg/core"
)

// options holds the internal configuration for a quill notebook.
type options struct {
	store      core.Store
	engine     core.Engine
	logger     *slog.Logger
	registerer prometheus.Registerer
	now        func() time.Time
	config     map[string]interface{}
}

// Option defines a functional option for configuring quill.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		config: make(map[string]interface{}),
	}
}

// WithForceTemp forces the database into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist fails instead of creating a database that does not exist yet.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithInMemory opens a private in-memory database. The path argument is ignored.
func WithInMemory(enabled bool) Option {
	return func(o *options) {
		o.config["in_memory"] = enabled
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore allows injecting a custom storage adapter (e.g. a mock).
// If provided, the SQLite adapter is skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithEngine sets the CRDT engine used to replay and squash fragments.
// Defaults to the last-writer-wins reference engine.
func WithEngine(engine core.Engine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// WithMetrics registers the compaction metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithNow overrides the clock used for note timestamps and sweep reports.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Every mutating operation (append, replace, compaction, note edits) returns ErrReadOnly.
// 2. The database must already exist and its schema is not touched.
// 3. Dev Safety Lock (go run temp dir) is BYPASSED (uses real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the "Sandbox" safety mechanism when running via `go run`.
// By default (true), quill forces a temporary database to prevent accidental data loss.
// Setting this to false allows operating on the real database even during `go run`.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}
