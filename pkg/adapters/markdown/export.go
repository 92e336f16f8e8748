package markdown

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/quill/internal/atomicfile"
	"github.com/aretw0/quill/pkg/core"
)

// Source is what the exporter reads notes from. *core.Service satisfies it.
type Source interface {
	ListNotes(ctx context.Context, opts core.ListOptions) ([]core.Note, error)
	Document(ctx context.Context, id core.NoteID) (core.Document, error)
}

// Sink is what the importer creates notes in. *core.Service satisfies it.
type Sink interface {
	CreateNote(ctx context.Context, title string, icon *string, content string) (core.Note, error)
}

// ExportOptions selects what to export.
type ExportOptions struct {
	// Match is a doublestar pattern applied to note titles. Empty matches everything.
	Match string
}

// Exporter writes notes as Markdown files into a directory.
type Exporter struct {
	Dir    string
	Logger *slog.Logger
}

const exportPage = 100

// Export writes one file per matching note and returns how many were written.
// A note that cannot be materialized is skipped and reported in the joined error.
func (e *Exporter) Export(ctx context.Context, src Source, opts ExportOptions) (int, error) {
	logger := e.logger()
	if opts.Match != "" && !doublestar.ValidatePattern(opts.Match) {
		return 0, fmt.Errorf("%w: bad pattern %q", core.ErrInvalidInput, opts.Match)
	}
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	written := 0
	var failed []string
	for offset := 0; ; offset += exportPage {
		notes, err := src.ListNotes(ctx, core.ListOptions{
			Limit:  exportPage,
			Offset: offset,
			SortBy: core.SortByCreated,
		})
		if err != nil {
			return written, err
		}

		for _, n := range notes {
			if !MatchTitle(opts.Match, n.Title) {
				continue
			}
			doc, err := src.Document(ctx, n.ID)
			if err != nil {
				logger.Warn("note skipped", "note", n.ID, "error", err)
				failed = append(failed, fmt.Sprintf("%d", n.ID))
				continue
			}
			data, err := Render(n, doc)
			if err != nil {
				return written, err
			}
			path := filepath.Join(e.Dir, FileName(n))
			if err := atomicfile.Write(path, data, 0644); err != nil {
				return written, err
			}
			logger.Debug("note exported", "note", n.ID, "path", path)
			written++
		}

		if len(notes) < exportPage {
			break
		}
	}

	if len(failed) > 0 {
		return written, fmt.Errorf("%d notes could not be exported: %s", len(failed), strings.Join(failed, ", "))
	}
	return written, nil
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MatchTitle reports whether title matches the doublestar pattern.
// Matching is case-insensitive; an empty pattern matches everything.
func MatchTitle(pattern, title string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(title))
	return err == nil && ok
}

// Import creates a note from every file matching the doublestar pattern.
// The frontmatter title wins; otherwise the file name without extension is used.
func Import(ctx context.Context, sink Sink, pattern string) ([]core.Note, error) {
	paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q: %v", core.ErrInvalidInput, pattern, err)
	}

	created := make([]core.Note, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return created, err
		}
		fm, body, err := Parse(data)
		if err != nil {
			return created, fmt.Errorf("%s: %w", path, err)
		}

		title := fm.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		var icon *string
		if fm.Icon != "" {
			icon = &fm.Icon
		}

		n, err := sink.CreateNote(ctx, title, icon, body)
		if err != nil {
			return created, fmt.Errorf("%s: %w", path, err)
		}
		created = append(created, n)
	}
	return created, nil
}
