package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/quill/pkg/core"
)

const noteColumns = "id, title, icon, created_at, updated_at"

var sortColumns = map[core.SortField]string{
	core.SortByUpdated: "updated_at",
	core.SortByCreated: "created_at",
	core.SortByTitle:   "title COLLATE NOCASE",
}

// CreateNote inserts a note and, when given, its first fragment in one transaction.
func (r *Repository) CreateNote(ctx context.Context, n core.NewNote) (core.Note, error) {
	if err := r.writable(); err != nil {
		return core.Note{}, err
	}
	var note core.Note
	err := r.do("create note", func(conn *sql.Conn) error {
		now := r.now()
		return withTx(ctx, conn, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO notes (title, icon, created_at, updated_at) VALUES (?, ?, ?, ?)",
				n.Title, nullString(n.Icon), now, now)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			if len(n.Initial) > 0 {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO fragments (note_id, data, created_at) VALUES (?, ?, ?)", id, n.Initial, now); err != nil {
					return err
				}
			}
			note = core.Note{
				ID:        core.NoteID(id),
				Title:     n.Title,
				Icon:      n.Icon,
				CreatedAt: time.Unix(now, 0),
				UpdatedAt: time.Unix(now, 0),
			}
			return nil
		})
	})
	return note, err
}

// GetNote retrieves a note by id.
func (r *Repository) GetNote(ctx context.Context, id core.NoteID) (core.Note, error) {
	var note core.Note
	err := r.do("get note", func(conn *sql.Conn) error {
		var err error
		note, err = fetchNote(ctx, conn, id)
		return err
	})
	return note, err
}

// ListNotes lists notes with paging, ordering and an optional title search.
func (r *Repository) ListNotes(ctx context.Context, opts core.ListOptions) ([]core.Note, error) {
	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = sortColumns[core.SortByUpdated]
	}
	order := "ASC"
	if opts.Descending {
		order = "DESC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	var (
		where string
		args  []any
	)
	if opts.Search != "" {
		where = ` WHERE title LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(opts.Search)+"%")
	}
	query := fmt.Sprintf("SELECT %s FROM notes%s ORDER BY %s %s, id %s LIMIT ? OFFSET ?",
		noteColumns, where, column, order, order)
	args = append(args, limit, opts.Offset)

	var notes []core.Note
	err := r.do("list notes", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		notes = make([]core.Note, 0)
		for rows.Next() {
			n, err := scanNote(rows)
			if err != nil {
				return err
			}
			notes = append(notes, n)
		}
		return rows.Err()
	})
	return notes, err
}

// UpdateNoteTitle renames a note.
func (r *Repository) UpdateNoteTitle(ctx context.Context, id core.NoteID, title string) (core.Note, error) {
	return r.updateNote(ctx, "update note title", id, "title = ?", title)
}

// UpdateNoteIcon sets or clears a note's icon.
func (r *Repository) UpdateNoteIcon(ctx context.Context, id core.NoteID, icon *string) (core.Note, error) {
	return r.updateNote(ctx, "update note icon", id, "icon = ?", nullString(icon))
}

func (r *Repository) updateNote(ctx context.Context, op string, id core.NoteID, set string, value any) (core.Note, error) {
	if err := r.writable(); err != nil {
		return core.Note{}, err
	}
	var note core.Note
	err := r.do(op, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"UPDATE notes SET "+set+", updated_at = ? WHERE id = ?", value, r.now(), id)
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
		note, err = fetchNote(ctx, conn, id)
		return err
	})
	return note, err
}

// DeleteNote deletes a note. Its fragments go with it through ON DELETE CASCADE.
func (r *Repository) DeleteNote(ctx context.Context, id core.NoteID) error {
	if err := r.writable(); err != nil {
		return err
	}
	return r.do("delete note", func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
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
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func fetchNote(ctx context.Context, conn *sql.Conn, id core.NoteID) (core.Note, error) {
	row := conn.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return core.Note{}, core.ErrNoteNotFound
	}
	return n, err
}

func scanNote(s rowScanner) (core.Note, error) {
	var (
		n                core.Note
		icon             sql.NullString
		created, updated int64
	)
	if err := s.Scan(&n.ID, &n.Title, &icon, &created, &updated); err != nil {
		return core.Note{}, err
	}
	if icon.Valid {
		v := icon.String
		n.Icon = &v
	}
	n.CreatedAt = time.Unix(created, 0)
	n.UpdatedAt = time.Unix(updated, 0)
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
