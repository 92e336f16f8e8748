package markdown_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/pkg/adapters/markdown"
	"github.com/aretw0/quill/pkg/core"
)

func TestRenderParseRoundTrip(t *testing.T) {
	icon := "📓"
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	note := core.Note{ID: 12, Title: "Weekly review", Icon: &icon, CreatedAt: created, UpdatedAt: created.Add(time.Hour)}
	doc := core.Document{NoteID: 12, Text: "\nfirst line\n---\nnot a delimiter", Fragments: 3}

	data, err := markdown.Render(note, doc)
	require.NoError(t, err)

	fm, body, err := markdown.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Text, body)
	assert.Equal(t, core.NoteID(12), fm.ID)
	assert.Equal(t, "Weekly review", fm.Title)
	assert.Equal(t, icon, fm.Icon)
	assert.Equal(t, 3, fm.Fragments)
	require.NotNil(t, fm.CreatedAt)
	assert.True(t, created.Equal(*fm.CreatedAt))
}

func TestParse(t *testing.T) {
	t.Run("No frontmatter", func(t *testing.T) {
		fm, body, err := markdown.Parse([]byte("just text"))
		require.NoError(t, err)
		assert.Empty(t, fm.Title)
		assert.Equal(t, "just text", body)
	})

	t.Run("CRLF", func(t *testing.T) {
		fm, body, err := markdown.Parse([]byte("---\r\ntitle: Win\r\n---\r\nbody"))
		require.NoError(t, err)
		assert.Equal(t, "Win", fm.Title)
		assert.Equal(t, "body", body)
	})

	t.Run("Unterminated", func(t *testing.T) {
		_, _, err := markdown.Parse([]byte("---\ntitle: x\nbody"))
		assert.Error(t, err)
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "3-hello-world.md", markdown.FileName(core.Note{ID: 3, Title: "Hello, World!"}))
	assert.Equal(t, "4.md", markdown.FileName(core.Note{ID: 4, Title: "✨"}))
}

func TestMatchTitle(t *testing.T) {
	assert.True(t, markdown.MatchTitle("", "anything"))
	assert.True(t, markdown.MatchTitle("meeting*", "Meeting notes"))
	assert.True(t, markdown.MatchTitle("**/2026", "journal/q1/2026"))
	assert.False(t, markdown.MatchTitle("meeting*", "groceries"))
}

type fakeNotes struct {
	notes   []core.Note
	texts   map[core.NoteID]string
	broken  map[core.NoteID]bool
	created []string
}

func (f *fakeNotes) ListNotes(ctx context.Context, opts core.ListOptions) ([]core.Note, error) {
	if opts.Offset >= len(f.notes) {
		return nil, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(f.notes) {
		end = len(f.notes)
	}
	return f.notes[opts.Offset:end], nil
}

func (f *fakeNotes) Document(ctx context.Context, id core.NoteID) (core.Document, error) {
	if f.broken[id] {
		return core.Document{}, core.ErrCorruptFragment
	}
	return core.Document{NoteID: id, Text: f.texts[id], Fragments: 1}, nil
}

func (f *fakeNotes) CreateNote(ctx context.Context, title string, icon *string, content string) (core.Note, error) {
	if title == "reject" {
		return core.Note{}, errors.New("rejected")
	}
	f.created = append(f.created, title+"="+content)
	return core.Note{ID: core.NoteID(len(f.created)), Title: title, Icon: icon}, nil
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	src := &fakeNotes{
		notes: []core.Note{
			{ID: 1, Title: "Meeting one"},
			{ID: 2, Title: "Groceries"},
			{ID: 3, Title: "Meeting two"},
		},
		texts:  map[core.NoteID]string{1: "agenda", 2: "milk", 3: "minutes"},
		broken: map[core.NoteID]bool{3: true},
	}

	exp := &markdown.Exporter{Dir: dir}
	n, err := exp.Export(context.Background(), src, markdown.ExportOptions{Match: "meeting*"})
	require.Error(t, err, "the corrupt note is reported")
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(dir, "1-meeting-one.md"))
	require.NoError(t, err)
	_, body, err := markdown.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "agenda", body)

	_, err = os.Stat(filepath.Join(dir, "2-groceries.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestExport_BadPattern(t *testing.T) {
	exp := &markdown.Exporter{Dir: t.TempDir()}
	_, err := exp.Export(context.Background(), &fakeNotes{}, markdown.ExportOptions{Match: "[unclosed"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.md"), []byte("plain body"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "titled.md"), []byte("---\ntitle: Titled\nicon: ★\n---\nhello"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("ignored"), 0644))

	sink := &fakeNotes{}
	notes, err := markdown.Import(context.Background(), sink, filepath.Join(dir, "**", "*.md"))
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.ElementsMatch(t, []string{"plain=plain body", "Titled=hello"}, sink.created)

	for _, n := range notes {
		if n.Title == "Titled" {
			require.NotNil(t, n.Icon)
			assert.Equal(t, "★", *n.Icon)
		}
	}
}
