package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Materializer replays fragments into a document.
type Materializer interface {
	Materialize(fragments [][]byte) (Doc, error)
}

// Service is the entry point of the edit/request-handling layer.
// Every call goes synchronously to the store; errors propagate to the caller.
type Service struct {
	store    Store
	replayer Materializer
	seeder   TextSeeder
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used by the service.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSeeder enables creating notes with initial text content.
func WithSeeder(seeder TextSeeder) ServiceOption {
	return func(s *Service) {
		s.seeder = seeder
	}
}

// NewService creates a new Service.
func NewService(store Store, replayer Materializer, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		replayer: replayer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append stores an incremental update emitted by the editor.
// Appending never deduplicates: the same bytes twice are two fragments.
func (s *Service) Append(ctx context.Context, id NoteID, update []byte) error {
	if err := validate(id, update); err != nil {
		return err
	}
	if err := s.store.Append(ctx, id, update); err != nil {
		return fmt.Errorf("append to note %d: %w", id, err)
	}
	s.logger.Debug("fragment appended", "note", id, "bytes", len(update))
	return nil
}

// LoadAll returns the note's fragments in replay order, used to hydrate an editor.
func (s *Service) LoadAll(ctx context.Context, id NoteID) ([][]byte, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: note id must be positive", ErrInvalidInput)
	}
	return s.store.LoadOrdered(ctx, id)
}

// ReplaceAll stores a full-state snapshot pushed by a client in place of the note's log.
func (s *Service) ReplaceAll(ctx context.Context, id NoteID, snapshot []byte) error {
	if err := validate(id, snapshot); err != nil {
		return err
	}
	if err := s.store.ReplaceAll(ctx, id, snapshot, OriginEdit); err != nil {
		return fmt.Errorf("replace note %d: %w", id, err)
	}
	s.logger.Debug("fragments replaced by snapshot", "note", id, "bytes", len(snapshot))
	return nil
}

// Document materializes the current state of a note.
func (s *Service) Document(ctx context.Context, id NoteID) (Document, error) {
	fragments, err := s.LoadAll(ctx, id)
	if err != nil {
		return Document{}, err
	}
	doc, err := s.replayer.Materialize(fragments)
	if err != nil {
		return Document{}, fmt.Errorf("materialize note %d: %w", id, err)
	}
	return Document{NoteID: id, Text: doc.Text(), Fragments: len(fragments)}, nil
}

// CreateNote creates a note, optionally seeding its content from plain text.
func (s *Service) CreateNote(ctx context.Context, title string, icon *string, content string) (Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Note{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	n := NewNote{Title: title, Icon: icon}
	if content != "" {
		if s.seeder == nil {
			return Note{}, fmt.Errorf("%w: engine cannot seed initial content", ErrInvalidInput)
		}
		seed, err := s.seeder.Seed(content)
		if err != nil {
			return Note{}, fmt.Errorf("seed initial content: %w", err)
		}
		n.Initial = seed
	}

	note, err := s.store.CreateNote(ctx, n)
	if err != nil {
		return Note{}, err
	}
	s.logger.Debug("note created", "note", note.ID, "seeded", n.Initial != nil)
	return note, nil
}

// GetNote retrieves a note's metadata.
func (s *Service) GetNote(ctx context.Context, id NoteID) (Note, error) {
	return s.store.GetNote(ctx, id)
}

// ListNotes lists notes. A zero Limit defaults to 50.
func (s *Service) ListNotes(ctx context.Context, opts ListOptions) ([]Note, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.SortBy == "" {
		opts.SortBy = SortByUpdated
		opts.Descending = true
	}
	return s.store.ListNotes(ctx, opts)
}

// RenameNote updates a note's title.
func (s *Service) RenameNote(ctx context.Context, id NoteID, title string) (Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Note{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return s.store.UpdateNoteTitle(ctx, id, title)
}

// SetNoteIcon updates or clears (nil) a note's icon.
func (s *Service) SetNoteIcon(ctx context.Context, id NoteID, icon *string) (Note, error) {
	return s.store.UpdateNoteIcon(ctx, id, icon)
}

// DeleteNote removes a note together with its whole fragment log.
func (s *Service) DeleteNote(ctx context.Context, id NoteID) error {
	if err := s.store.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("note deleted", "note", id)
	return nil
}

func validate(id NoteID, update []byte) error {
	if id <= 0 {
		return fmt.Errorf("%w: note id must be positive", ErrInvalidInput)
	}
	if len(update) == 0 {
		return fmt.Errorf("%w: empty update", ErrInvalidInput)
	}
	return nil
}
