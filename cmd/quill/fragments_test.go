package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/pkg/engine/lww"
)

func TestTextSnapshotKeepsOtherRegisters(t *testing.T) {
	laptop, phone := lww.NewEditor("laptop"), lww.NewEditor("phone")
	tag, err := laptop.Set("tag", "groceries")
	require.NoError(t, err)
	old, err := phone.SetText("milk")
	require.NoError(t, err)
	fragments := [][]byte{tag, old}

	engine := lww.New()
	update, err := encodeText(engine, fragments, "cli", "milk, eggs")
	require.NoError(t, err)
	snapshot, err := mergeSnapshot(engine, fragments, update)
	require.NoError(t, err)
	assert.Len(t, fragments, 2, "the loaded log is not modified")

	doc := lww.NewDoc()
	require.NoError(t, doc.Apply(snapshot))
	assert.Equal(t, "milk, eggs", doc.Text())
	got, ok := doc.Get("tag")
	require.True(t, ok)
	assert.Equal(t, "groceries", got)
}
