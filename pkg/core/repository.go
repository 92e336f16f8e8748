package core

import "context"

// FragmentLog is the set of update-log primitives for a note's fragments.
type FragmentLog interface {
	// Append stores one fragment after every existing fragment of the note.
	Append(ctx context.Context, id NoteID, data []byte) error

	// LoadOrdered returns the note's fragments ascending by sequence.
	// A note without fragments yields an empty slice.
	LoadOrdered(ctx context.Context, id NoteID) ([][]byte, error)

	// ReplaceAll atomically swaps every fragment of the note for a single one.
	ReplaceAll(ctx context.Context, id NoteID, data []byte, origin Origin) error
}

// FragmentStore is a FragmentLog backed by durable storage with a single
// serialization point shared by every caller.
type FragmentStore interface {
	FragmentLog

	// Fragments returns the note's fragments with their metadata, ascending by sequence.
	Fragments(ctx context.Context, id NoteID) ([]Fragment, error)

	// ListNoteIDsWithFragments returns the notes holding at least minCount fragments.
	// The result is a snapshot and is not atomic with later calls.
	ListNoteIDsWithFragments(ctx context.Context, minCount int) ([]NoteID, error)

	// Locked runs fn while holding the store's lock, so several log operations
	// form one critical section. fn must only use the log it is given.
	Locked(ctx context.Context, fn func(log FragmentLog) error) error
}

// NoteStore persists note metadata.
// Deleting a note removes its fragments through the store's referential integrity.
type NoteStore interface {
	CreateNote(ctx context.Context, n NewNote) (Note, error)
	GetNote(ctx context.Context, id NoteID) (Note, error)
	ListNotes(ctx context.Context, opts ListOptions) ([]Note, error)
	UpdateNoteTitle(ctx context.Context, id NoteID, title string) (Note, error)
	UpdateNoteIcon(ctx context.Context, id NoteID, icon *string) (Note, error)
	DeleteNote(ctx context.Context, id NoteID) error
}

// Store is the full storage port consumed by the Service.
type Store interface {
	FragmentStore
	NoteStore

	// Initialize ensures the schema exists.
	Initialize(ctx context.Context) error
	Close() error
}

// Engine is the external CRDT engine. Any conformant implementation can be plugged in.
type Engine interface {
	// NewDoc returns an empty document.
	NewDoc() Doc
}

// Doc is the running state of one document inside the engine.
type Doc interface {
	// Apply merges one encoded update into the document.
	Apply(update []byte) error
	// EncodeState encodes the whole document as a single update relative to an empty document.
	EncodeState() ([]byte, error)
	// Text returns the plain-text view of the document.
	Text() string
}

// TextSeeder is implemented by engines able to build a first update from plain text.
type TextSeeder interface {
	Seed(text string) ([]byte, error)
}
