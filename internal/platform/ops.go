package platform

import (
	"context"

	"github.com/aretw0/quill/pkg/adapters/sqlite"
	"github.com/aretw0/quill/pkg/core"
)

// Init opens the notebook database based on the provided configuration.
// The 'uri' argument is the SQLite database file.
//
// It returns the initialized core.Store.
func Init(uri string, opts ...Option) (core.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initStore(uri, o)
}

func initStore(uri string, o *options) (core.Store, error) {
	// 1. Check for injected store
	store := o.store
	if store == nil {
		store = newSQLite(uri, o)
	}

	// 2. Run Initialization
	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// newSQLite resolves the database path and builds the SQLite adapter.
func newSQLite(path string, o *options) *sqlite.Repository {
	tempDir, _ := o.config["temp_dir"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	inMemory, _ := o.config["in_memory"].(bool)
	isReadOnly, _ := o.config["read_only"].(bool)

	// Default to true (safe) if not present.
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	// Bypass Safety if:
	// 1. ReadOnly is active (inherently safe)
	// 2. User explicitly disabled DevSafety
	bypassSafety := isReadOnly || !devSafety

	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolveDatabasePath(path, useTemp)
	if inMemory {
		resolvedPath = sqlite.MemoryPath
	}

	if o.logger != nil {
		switch {
		case inMemory:
			o.logger.Debug("using in-memory database")
		case IsDevRun() && bypassSafety && isReadOnly:
			o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolvedPath)
		case IsDevRun() && bypassSafety:
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolvedPath)
		case useTemp && resolvedPath != path:
			o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolvedPath)
		}
	}

	return sqlite.NewRepository(sqlite.Config{
		Path:      resolvedPath,
		ReadOnly:  isReadOnly,
		MustExist: mustExist,
		Logger:    o.logger,
		Now:       o.now,
	})
}
