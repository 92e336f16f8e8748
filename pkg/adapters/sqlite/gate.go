package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aretw0/quill/pkg/core"
)

// gate owns the single connection to the database.
// Every operation touching the store runs inside gate.with, which makes the
// log single-writer and single-reader-at-a-time. Waiting on the lock has no timeout.
type gate struct {
	mu     sync.Mutex
	db     *sql.DB
	conn   *sql.Conn
	closed atomic.Bool
}

func newGate(db *sql.DB, conn *sql.Conn) *gate {
	return &gate{db: db, conn: conn}
}

// with runs fn holding the lock. The lock is released on every exit path.
func (g *gate) with(fn func(conn *sql.Conn) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conn == nil {
		return core.ErrClosed
	}
	return fn(g.conn)
}

// open reports whether the gate still owns a connection. It does not take the lock.
func (g *gate) open() bool {
	return !g.closed.Load()
}

// close waits for the running operation, then releases the connection.
func (g *gate) close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conn == nil {
		return nil
	}
	g.closed.Store(true)
	err := errors.Join(g.conn.Close(), g.db.Close())
	g.conn = nil
	g.db = nil
	return err
}

// withTx runs fn inside a transaction on conn. The transaction commits only
// if fn succeeds; any error (or a cancelled context) rolls everything back.
func withTx(ctx context.Context, conn *sql.Conn, fn func(tx *sql.Tx) error) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
