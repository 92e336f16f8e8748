// Package quill is the Composition Root for the quill note store.
//
// It connects the core domain (notes, fragment logs, replay) with the SQLite
// persistence adapter and the compaction machinery, following the Hexagonal
// Architecture pattern.
//
// Philosophy:
//
// A note's content is an append-only log of opaque CRDT update fragments.
// Replaying the log in order rebuilds the document; a background compactor
// periodically collapses each log into a single equivalent fragment so that
// loading stays fast, without ever losing or reordering an edit.
//
// Features:
//
//   - **Hexagonal Architecture**: the core only sees the core.Store and core.Engine ports.
//   - **Single Writer Gate**: one SQLite connection behind a mutex serializes every operation.
//   - **Atomic Compaction**: load, squash and replace run as one critical section and one transaction.
//   - **Pluggable Engine**: any CRDT implementing core.Engine; a last-writer-wins engine ships by default.
//   - **Scheduled Sweeps**: interval or daily policies driven by a supervised lifecycle worker.
//
// Usage:
//
//	nb, err := quill.Open("./notes.db", quill.WithLogger(logger))
//	note, err := nb.Service.CreateNote(ctx, "Groceries", nil, "milk")
//	err = nb.Service.Append(ctx, note.ID, update)
//	report := nb.Compactor.CompactAll(ctx)
package quill
