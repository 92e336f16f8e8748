// Package core holds the domain model of quill: notes, their CRDT update fragments,
// and the ports the storage and replay layers implement.
package core

import "time"

// NoteID identifies a note. It is assigned by the store.
type NoteID int64

// Note is the logical identity of a document.
// Its content is not stored here: it lives in the note's fragment log.
type Note struct {
	ID        NoteID    `json:"id"`
	Title     string    `json:"title"`
	Icon      *string   `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Fragment is one opaque CRDT update as persisted by the store.
// Seq defines replay order and is strictly increasing across the whole log.
type Fragment struct {
	Seq       int64     `json:"seq"`
	NoteID    NoteID    `json:"noteId"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Origin tells the store who is replacing a fragment log.
type Origin int

const (
	// OriginEdit is a user-facing write (e.g. a client pushing a full-state snapshot).
	// It bumps the note's updated timestamp.
	OriginEdit Origin = iota
	// OriginCompaction is an internal rewrite. It never touches user-visible timestamps.
	OriginCompaction
)

func (o Origin) String() string {
	switch o {
	case OriginEdit:
		return "edit"
	case OriginCompaction:
		return "compaction"
	default:
		return "unknown"
	}
}

// NewNote describes a note to be created.
// When Initial is non-empty it is stored as the note's first fragment in the same transaction.
type NewNote struct {
	Title   string
	Icon    *string
	Initial []byte
}

// SortField selects the ordering column for ListNotes.
type SortField string

const (
	SortByUpdated SortField = "updatedAt"
	SortByCreated SortField = "createdAt"
	SortByTitle   SortField = "title"
)

// ListOptions filters and pages ListNotes.
type ListOptions struct {
	Limit      int
	Offset     int
	SortBy     SortField
	Descending bool
	// Search is a case-insensitive substring match on the title.
	Search string
}

// Document is the materialized view of a note's fragment log.
type Document struct {
	NoteID    NoteID `json:"noteId"`
	Text      string `json:"text"`
	Fragments int    `json:"fragments"`
}
