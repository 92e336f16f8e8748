// Package replay rebuilds document state from a note's ordered fragment log.
package replay

import (
	"github.com/aretw0/quill/pkg/core"
)

// Reconstructor replays fragments through a CRDT engine.
type Reconstructor struct {
	engine core.Engine
}

// New creates a Reconstructor for the given engine.
func New(engine core.Engine) *Reconstructor {
	return &Reconstructor{engine: engine}
}

// Materialize applies every fragment, in the order given, to a fresh document.
// The first fragment the engine cannot decode aborts the replay with a
// *core.CorruptFragmentError; nothing is skipped.
func (r *Reconstructor) Materialize(fragments [][]byte) (core.Doc, error) {
	doc := r.engine.NewDoc()
	for i, f := range fragments {
		if err := doc.Apply(f); err != nil {
			return nil, &core.CorruptFragmentError{Index: i, Err: err}
		}
	}
	return doc, nil
}

// Squash replays the fragments and encodes the result as a single fragment
// relative to an empty document.
func (r *Reconstructor) Squash(fragments [][]byte) ([]byte, error) {
	doc, err := r.Materialize(fragments)
	if err != nil {
		return nil, err
	}
	return doc.EncodeState()
}

var _ core.Materializer = (*Reconstructor)(nil)
