// Package sqlite implements the quill storage ports on a single SQLite connection,
// opened through database/sql with the WebAssembly build of SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/aretw0/quill/pkg/core"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Config holds the configuration for the SQLite repository.
type Config struct {
	Path      string // database file, or MemoryPath
	ReadOnly  bool
	MustExist bool
	Logger    *slog.Logger
	// Now stamps created/updated times. Defaults to time.Now.
	Now func() time.Time
}

// Repository implements core.Store on SQLite.
type Repository struct {
	Path   string
	config Config
	logger *slog.Logger
	gate   *gate

	appends  atomic.Uint64
	replaces atomic.Uint64

	// beforeCommit runs inside ReplaceAll's transaction right before commit.
	beforeCommit func() error
}

// NewRepository creates a new SQLite-backed repository.
// No I/O happens until Initialize.
func NewRepository(config Config) *Repository {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Repository{
		Path:   config.Path,
		config: config,
		logger: logger,
	}
}

// Initialize opens the database, pins the single connection and creates the schema.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.gate != nil && r.gate.open() {
		return nil
	}

	if r.Path == "" {
		return fmt.Errorf("%w: database path is empty", core.ErrInvalidInput)
	}

	if r.Path != MemoryPath {
		if r.config.MustExist || r.config.ReadOnly {
			if _, err := os.Stat(r.Path); err != nil {
				return fmt.Errorf("database does not exist: %s: %w", r.Path, err)
			}
		} else if err := os.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", r.dsn())
	if err != nil {
		return &core.StorageError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return &core.StorageError{Op: "connect", Err: err}
	}

	if err := r.prepare(ctx, conn); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return err
	}

	r.gate = newGate(db, conn)
	r.logger.Debug("database opened", "path", r.Path, "read_only", r.config.ReadOnly)
	return nil
}

func (r *Repository) dsn() string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	if r.config.ReadOnly {
		q.Set("mode", "ro")
	}
	u := url.URL{Scheme: "file", OmitHost: true, Path: r.Path, RawQuery: q.Encode()}
	return u.String()
}

func (r *Repository) prepare(ctx context.Context, conn *sql.Conn) error {
	// Pragmas are per connection; the pinned connection is the only one we use.
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return &core.StorageError{Op: "enable foreign keys", Err: err}
	}
	var fk int
	if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		return &core.StorageError{Op: "check foreign keys", Err: err}
	}
	if fk != 1 {
		return &core.StorageError{Op: "check foreign keys", Err: errors.New("foreign keys are disabled")}
	}

	if r.config.ReadOnly {
		return nil
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return &core.StorageError{Op: "create schema", Err: err}
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return &core.StorageError{Op: "set schema version", Err: err}
	}
	return nil
}

// Close releases the connection. It waits for the operation in flight, if any.
func (r *Repository) Close() error {
	if r.gate == nil {
		return nil
	}
	return r.gate.close()
}

// do runs fn under the gate, wrapping failures as storage errors.
func (r *Repository) do(op string, fn func(conn *sql.Conn) error) error {
	if r.gate == nil {
		return core.ErrClosed
	}
	return wrap(op, r.gate.with(fn))
}

func (r *Repository) writable() error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	return nil
}

func (r *Repository) now() int64 {
	return r.config.Now().Unix()
}

// wrap turns driver failures into *core.StorageError and leaves domain errors alone.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *core.StorageError
	switch {
	case errors.Is(err, core.ErrNoteNotFound),
		errors.Is(err, core.ErrReadOnly),
		errors.Is(err, core.ErrClosed),
		errors.Is(err, core.ErrInvalidInput),
		errors.As(err, &se):
		return err
	}
	return &core.StorageError{Op: op, Err: err}
}

var _ core.Store = (*Repository)(nil)
