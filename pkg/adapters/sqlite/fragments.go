package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aretw0/quill/pkg/core"
)

// Append stores one fragment and bumps the note's updated timestamp in the same transaction.
func (r *Repository) Append(ctx context.Context, id core.NoteID, data []byte) error {
	return r.do("append fragment", func(conn *sql.Conn) error {
		return r.view(conn).Append(ctx, id, data)
	})
}

// LoadOrdered returns the note's fragment bytes in replay order.
func (r *Repository) LoadOrdered(ctx context.Context, id core.NoteID) ([][]byte, error) {
	var out [][]byte
	err := r.do("load fragments", func(conn *sql.Conn) error {
		var err error
		out, err = r.view(conn).LoadOrdered(ctx, id)
		return err
	})
	return out, err
}

// ReplaceAll swaps the note's fragments for one fragment in a single transaction.
func (r *Repository) ReplaceAll(ctx context.Context, id core.NoteID, data []byte, origin core.Origin) error {
	return r.do("replace fragments", func(conn *sql.Conn) error {
		return r.view(conn).ReplaceAll(ctx, id, data, origin)
	})
}

// Locked runs fn holding the gate. Store methods must not be called from fn;
// fn gets a log bound to the already-held connection instead.
// The error of fn is returned as is: the log wraps its own driver failures.
func (r *Repository) Locked(ctx context.Context, fn func(log core.FragmentLog) error) error {
	if r.gate == nil {
		return core.ErrClosed
	}
	return r.gate.with(func(conn *sql.Conn) error {
		return fn(r.view(conn))
	})
}

// Fragments returns the note's fragments with their metadata.
func (r *Repository) Fragments(ctx context.Context, id core.NoteID) ([]core.Fragment, error) {
	var out []core.Fragment
	err := r.do("list fragments", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			"SELECT id, note_id, data, created_at FROM fragments WHERE note_id = ? ORDER BY id ASC", id)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]core.Fragment, 0)
		for rows.Next() {
			var f core.Fragment
			var created int64
			if err := rows.Scan(&f.Seq, &f.NoteID, &f.Data, &created); err != nil {
				return err
			}
			f.CreatedAt = time.Unix(created, 0)
			out = append(out, f)
		}
		return rows.Err()
	})
	return out, err
}

// ListNoteIDsWithFragments returns notes holding at least minCount fragments, ascending.
func (r *Repository) ListNoteIDsWithFragments(ctx context.Context, minCount int) ([]core.NoteID, error) {
	if minCount < 1 {
		minCount = 1
	}
	var ids []core.NoteID
	err := r.do("list candidates", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			"SELECT note_id FROM fragments GROUP BY note_id HAVING COUNT(*) >= ? ORDER BY note_id", minCount)
		if err != nil {
			return err
		}
		defer rows.Close()

		ids = make([]core.NoteID, 0)
		for rows.Next() {
			var id core.NoteID
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	return ids, err
}

// logView is the fragment log bound to a connection whose gate is already held.
type logView struct {
	r    *Repository
	conn *sql.Conn
}

func (r *Repository) view(conn *sql.Conn) logView {
	return logView{r: r, conn: conn}
}

func (v logView) Append(ctx context.Context, id core.NoteID, data []byte) error {
	if err := v.r.writable(); err != nil {
		return err
	}
	now := v.r.now()
	err := withTx(ctx, v.conn, func(tx *sql.Tx) error {
		if err := touch(ctx, tx, id, now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO fragments (note_id, data, created_at) VALUES (?, ?, ?)", id, data, now)
		return err
	})
	if err != nil {
		return wrap("append fragment", err)
	}
	v.r.appends.Add(1)
	return nil
}

func (v logView) LoadOrdered(ctx context.Context, id core.NoteID) ([][]byte, error) {
	rows, err := v.conn.QueryContext(ctx,
		"SELECT data FROM fragments WHERE note_id = ? ORDER BY id ASC", id)
	if err != nil {
		return nil, wrap("load fragments", err)
	}
	defer rows.Close()

	out := make([][]byte, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, wrap("load fragments", err)
		}
		out = append(out, data)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("load fragments", err)
	}
	return out, nil
}

func (v logView) ReplaceAll(ctx context.Context, id core.NoteID, data []byte, origin core.Origin) error {
	if err := v.r.writable(); err != nil {
		return err
	}
	now := v.r.now()
	err := withTx(ctx, v.conn, func(tx *sql.Tx) error {
		if origin == core.OriginEdit {
			if err := touch(ctx, tx, id, now); err != nil {
				return err
			}
		} else if err := exists(ctx, tx, id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM fragments WHERE note_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO fragments (note_id, data, created_at) VALUES (?, ?, ?)", id, data, now); err != nil {
			return err
		}

		if v.r.beforeCommit != nil {
			return v.r.beforeCommit()
		}
		return nil
	})
	if err != nil {
		return wrap("replace fragments", err)
	}
	v.r.replaces.Add(1)
	v.r.logger.Debug("fragments replaced", "note", id, "origin", origin.String(), "bytes", len(data))
	return nil
}

// touch bumps the note's updated timestamp, failing when the note does not exist.
func touch(ctx context.Context, tx *sql.Tx, id core.NoteID, now int64) error {
	res, err := tx.ExecContext(ctx, "UPDATE notes SET updated_at = ? WHERE id = ?", now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNoteNotFound
	}
	return nil
}

func exists(ctx context.Context, tx *sql.Tx, id core.NoteID) error {
	var found int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM notes WHERE id = ?", id).Scan(&found)
	if err == sql.ErrNoRows {
		return core.ErrNoteNotFound
	}
	return err
}

var _ core.FragmentLog = logView{}
