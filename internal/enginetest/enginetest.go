// Package enginetest provides fake CRDT engines for tests.
package enginetest

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/quill/pkg/core"
)

// ErrUndecodable is returned by fake docs for fragments starting with Corrupt.
var ErrUndecodable = errors.New("undecodable fragment")

// Corrupt is a prefix fake docs refuse to decode.
var Corrupt = []byte("!corrupt")

// Recorder is an engine whose docs record every fragment in apply order.
// The text view is the applied fragments joined by "|"; the encoded state is the same.
type Recorder struct {
	mu   sync.Mutex
	docs []*RecordingDoc
}

// NewDoc implements core.Engine.
func (r *Recorder) NewDoc() core.Doc {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := &RecordingDoc{}
	r.docs = append(r.docs, d)
	return d
}

// Docs returns every document created so far.
func (r *Recorder) Docs() []*RecordingDoc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RecordingDoc(nil), r.docs...)
}

// RecordingDoc records applied fragments.
type RecordingDoc struct {
	Applied []string
}

func (d *RecordingDoc) Apply(update []byte) error {
	if bytes.HasPrefix(update, Corrupt) {
		return ErrUndecodable
	}
	d.Applied = append(d.Applied, string(update))
	return nil
}

func (d *RecordingDoc) EncodeState() ([]byte, error) {
	return []byte(d.Text()), nil
}

func (d *RecordingDoc) Text() string {
	return strings.Join(d.Applied, "|")
}

// Set is a grow-only set engine: each fragment is a comma-separated list of
// members and the state is their union. Merge is commutative and idempotent,
// which makes it handy to check that no fragment is ever lost.
type Set struct{}

// NewDoc implements core.Engine.
func (Set) NewDoc() core.Doc {
	return &SetDoc{members: make(map[string]struct{})}
}

// Seed implements core.TextSeeder.
func (Set) Seed(text string) ([]byte, error) {
	return []byte(text), nil
}

// SetDoc is the running state of a Set engine document.
type SetDoc struct {
	members map[string]struct{}
}

func (d *SetDoc) Apply(update []byte) error {
	if bytes.HasPrefix(update, Corrupt) {
		return fmt.Errorf("%w: %q", ErrUndecodable, update)
	}
	for _, m := range strings.Split(string(update), ",") {
		if m != "" {
			d.members[m] = struct{}{}
		}
	}
	return nil
}

func (d *SetDoc) EncodeState() ([]byte, error) {
	return []byte(d.Text()), nil
}

// Text returns the sorted members joined by commas.
func (d *SetDoc) Text() string {
	return strings.Join(d.Members(), ",")
}

// Members returns the sorted members.
func (d *SetDoc) Members() []string {
	out := make([]string, 0, len(d.members))
	for m := range d.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
