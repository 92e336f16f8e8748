// Package lww is a small state-based CRDT engine: a map of last-writer-wins registers.
//
// Each update carries a set of register entries stamped with a Lamport clock and a
// replica id. Merging keeps, per key, the entry with the highest (clock, replica, value),
// which is commutative, associative and idempotent, so any replay order of the same
// updates converges, and a full-state encoding can stand in for the updates it absorbed.
package lww

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aretw0/quill/pkg/core"
)

// ContentKey is the register holding a note's text.
const ContentKey = "content"

const formatVersion uint8 = 1

var errEmptyKey = errors.New("register key is empty")

type entry struct {
	Key     string `msgpack:"k"`
	Clock   uint64 `msgpack:"c"`
	Replica string `msgpack:"r"`
	Value   string `msgpack:"v"`
}

// wins reports whether a beats b for the same key.
func (a entry) wins(b entry) bool {
	if a.Clock != b.Clock {
		return a.Clock > b.Clock
	}
	if a.Replica != b.Replica {
		return a.Replica > b.Replica
	}
	return a.Value > b.Value
}

type update struct {
	Version uint8   `msgpack:"v"`
	Entries []entry `msgpack:"e"`
}

// Engine creates empty documents. The zero value is ready to use.
type Engine struct{}

// New returns an Engine.
func New() *Engine {
	return &Engine{}
}

// NewDoc implements core.Engine.
func (e *Engine) NewDoc() core.Doc {
	return NewDoc()
}

// Seed implements core.TextSeeder.
func (e *Engine) Seed(text string) ([]byte, error) {
	return NewEditor("seed").SetText(text)
}

var _ core.Engine = (*Engine)(nil)
var _ core.TextSeeder = (*Engine)(nil)

// Doc is a running LWW map.
type Doc struct {
	registers map[string]entry
}

// NewDoc returns an empty document.
func NewDoc() *Doc {
	return &Doc{registers: make(map[string]entry)}
}

// Apply merges one encoded update. A malformed update leaves the document untouched.
func (d *Doc) Apply(b []byte) error {
	u, err := decode(b)
	if err != nil {
		return err
	}
	for _, e := range u.Entries {
		if cur, ok := d.registers[e.Key]; !ok || e.wins(cur) {
			d.registers[e.Key] = e
		}
	}
	return nil
}

// EncodeState encodes every register as one update.
func (d *Doc) EncodeState() ([]byte, error) {
	u := update{Version: formatVersion, Entries: make([]entry, 0, len(d.registers))}
	for _, e := range d.registers {
		u.Entries = append(u.Entries, e)
	}
	sort.Slice(u.Entries, func(i, j int) bool { return u.Entries[i].Key < u.Entries[j].Key })
	return encode(u)
}

// Text returns the value of the content register.
func (d *Doc) Text() string {
	return d.registers[ContentKey].Value
}

// Get returns the value of a register.
func (d *Doc) Get(key string) (string, bool) {
	e, ok := d.registers[key]
	return e.Value, ok
}

// Clock returns the highest Lamport clock seen by the document.
func (d *Doc) Clock() uint64 {
	var highest uint64
	for _, e := range d.registers {
		if e.Clock > highest {
			highest = e.Clock
		}
	}
	return highest
}

var _ core.Doc = (*Doc)(nil)

func decode(b []byte) (update, error) {
	var u update
	if err := msgpack.Unmarshal(b, &u); err != nil {
		return update{}, fmt.Errorf("decode update: %w", err)
	}
	if u.Version != formatVersion {
		return update{}, fmt.Errorf("decode update: unsupported format version %d", u.Version)
	}
	for _, e := range u.Entries {
		if e.Key == "" {
			return update{}, fmt.Errorf("decode update: %w", errEmptyKey)
		}
	}
	return u, nil
}

func encode(u update) ([]byte, error) {
	b, err := msgpack.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	return b, nil
}
