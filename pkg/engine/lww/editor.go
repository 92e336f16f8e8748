package lww

import "fmt"

// Editor produces updates on behalf of one replica.
// It keeps a Lamport clock so its writes win over everything it has observed.
type Editor struct {
	replica string
	clock   uint64
}

// NewEditor returns an editor for the given replica id.
func NewEditor(replica string) *Editor {
	return &Editor{replica: replica}
}

// Observe advances the editor's clock past every write already in doc.
func (e *Editor) Observe(doc *Doc) {
	if c := doc.Clock(); c > e.clock {
		e.clock = c
	}
}

// Set encodes an update writing value to key.
func (e *Editor) Set(key, value string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("set: %w", errEmptyKey)
	}
	e.clock++
	return encode(update{
		Version: formatVersion,
		Entries: []entry{{Key: key, Clock: e.clock, Replica: e.replica, Value: value}},
	})
}

// SetText encodes an update writing the content register.
func (e *Editor) SetText(text string) ([]byte, error) {
	return e.Set(ContentKey, text)
}
