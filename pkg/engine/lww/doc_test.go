package lww

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replay(t *testing.T, updates ...[]byte) *Doc {
	t.Helper()
	doc := NewDoc()
	for _, u := range updates {
		require.NoError(t, doc.Apply(u))
	}
	return doc
}

func TestDoc_LastWriterWins(t *testing.T) {
	ed := NewEditor("a")
	u1, err := ed.SetText("a")
	require.NoError(t, err)
	u2, err := ed.SetText("ab")
	require.NoError(t, err)
	u3, err := ed.SetText("abc")
	require.NoError(t, err)

	assert.Equal(t, "abc", replay(t, u1, u2, u3).Text())
	assert.Equal(t, "abc", replay(t, u3, u1, u2).Text(), "order must not matter")
}

func TestDoc_Idempotent(t *testing.T) {
	u, err := NewEditor("a").SetText("hello")
	require.NoError(t, err)

	once := replay(t, u)
	twice := replay(t, u, u)

	a, err := once.EncodeState()
	require.NoError(t, err)
	b, err := twice.EncodeState()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDoc_ConcurrentReplicasConverge(t *testing.T) {
	left, err := NewEditor("left").SetText("from left")
	require.NoError(t, err)
	right, err := NewEditor("right").SetText("from right")
	require.NoError(t, err)

	// Same clock: the higher replica id wins on both sides.
	assert.Equal(t, "from right", replay(t, left, right).Text())
	assert.Equal(t, "from right", replay(t, right, left).Text())
}

func TestDoc_EncodeStateReplacesHistory(t *testing.T) {
	ed := NewEditor("a")
	var updates [][]byte
	for _, text := range []string{"x", "xy", "xyz"} {
		u, err := ed.SetText(text)
		require.NoError(t, err)
		updates = append(updates, u)
	}
	title, err := ed.Set("title", "draft")
	require.NoError(t, err)
	updates = append(updates, title)

	full, err := replay(t, updates...).EncodeState()
	require.NoError(t, err)

	squashed := replay(t, full)
	assert.Equal(t, "xyz", squashed.Text())
	v, ok := squashed.Get("title")
	assert.True(t, ok)
	assert.Equal(t, "draft", v)
}

func TestDoc_ApplyRejectsGarbage(t *testing.T) {
	doc := replay(t, mustSeed(t, "kept"))

	for name, b := range map[string][]byte{
		"not msgpack":   []byte("definitely not an update"),
		"empty map":     {0x80},
		"truncated":     mustSeed(t, "truncated")[:3],
		"empty payload": {},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, doc.Apply(b))
			assert.Equal(t, "kept", doc.Text(), "failed apply must not change state")
		})
	}
}

func TestEditor_ObserveAdvancesClock(t *testing.T) {
	remote, err := NewEditor("z").SetText("remote")
	require.NoError(t, err)
	doc := replay(t, remote)

	local := NewEditor("a")
	local.Observe(doc)
	u, err := local.SetText("local")
	require.NoError(t, err)

	require.NoError(t, doc.Apply(u))
	assert.Equal(t, "local", doc.Text())
}

func mustSeed(t *testing.T, text string) []byte {
	t.Helper()
	b, err := New().Seed(text)
	require.NoError(t, err)
	return b
}
