package sqlite

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

// schema mirrors the desktop application's layout: note metadata in one table,
// CRDT update fragments in another, cascading on note deletion.
const schema = `
CREATE TABLE IF NOT EXISTS notes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    icon TEXT,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS fragments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    note_id INTEGER NOT NULL,
    data BLOB NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY(note_id) REFERENCES notes(id) ON DELETE CASCADE
);

-- Both load-by-note and the sweep's candidate listing filter/group on note_id.
CREATE INDEX IF NOT EXISTS fragments_note_id_idx ON fragments(note_id);
`
