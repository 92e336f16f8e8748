package core_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/internal/enginetest"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/replay"
)

// MockStore implements core.Store in memory.
// It records the origin of every ReplaceAll so tests can check what the service passes down.
type MockStore struct {
	mu        sync.Mutex
	nextID    core.NoteID
	notes     map[core.NoteID]core.Note
	fragments map[core.NoteID][][]byte
	origins   []core.Origin
	lastList  core.ListOptions
}

func NewMockStore() *MockStore {
	return &MockStore{
		notes:     make(map[core.NoteID]core.Note),
		fragments: make(map[core.NoteID][][]byte),
	}
}

func (m *MockStore) Append(ctx context.Context, id core.NoteID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return core.ErrNoteNotFound
	}
	m.fragments[id] = append(m.fragments[id], data)
	return nil
}

func (m *MockStore) LoadOrdered(ctx context.Context, id core.NoteID) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte{}, m.fragments[id]...), nil
}

func (m *MockStore) ReplaceAll(ctx context.Context, id core.NoteID, data []byte, origin core.Origin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return core.ErrNoteNotFound
	}
	m.fragments[id] = [][]byte{data}
	m.origins = append(m.origins, origin)
	return nil
}

func (m *MockStore) Fragments(ctx context.Context, id core.NoteID) ([]core.Fragment, error) {
	return nil, errors.New("not implemented")
}

func (m *MockStore) ListNoteIDsWithFragments(ctx context.Context, minCount int) ([]core.NoteID, error) {
	return nil, errors.New("not implemented")
}

func (m *MockStore) Locked(ctx context.Context, fn func(core.FragmentLog) error) error {
	return fn(m)
}

func (m *MockStore) CreateNote(ctx context.Context, n core.NewNote) (core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	note := core.Note{ID: m.nextID, Title: n.Title, Icon: n.Icon}
	m.notes[note.ID] = note
	if n.Initial != nil {
		m.fragments[note.ID] = [][]byte{n.Initial}
	}
	return note, nil
}

func (m *MockStore) GetNote(ctx context.Context, id core.NoteID) (core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return core.Note{}, core.ErrNoteNotFound
	}
	return n, nil
}

func (m *MockStore) ListNotes(ctx context.Context, opts core.ListOptions) ([]core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = opts
	var out []core.Note
	for _, n := range m.notes {
		if opts.Search == "" || strings.Contains(strings.ToLower(n.Title), strings.ToLower(opts.Search)) {
			out = append(out, n)
		}
	}
	// Sort for deterministic tests
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) UpdateNoteTitle(ctx context.Context, id core.NoteID, title string) (core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return core.Note{}, core.ErrNoteNotFound
	}
	n.Title = title
	m.notes[id] = n
	return n, nil
}

func (m *MockStore) UpdateNoteIcon(ctx context.Context, id core.NoteID, icon *string) (core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return core.Note{}, core.ErrNoteNotFound
	}
	n.Icon = icon
	m.notes[id] = n
	return n, nil
}

func (m *MockStore) DeleteNote(ctx context.Context, id core.NoteID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return core.ErrNoteNotFound
	}
	delete(m.notes, id)
	delete(m.fragments, id)
	return nil
}

func (m *MockStore) Initialize(ctx context.Context) error { return nil }
func (m *MockStore) Close() error                         { return nil }

func newService(store *MockStore) *core.Service {
	return core.NewService(store, replay.New(enginetest.Set{}), core.WithSeeder(enginetest.Set{}))
}

func TestService_AppendAndDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	svc := newService(store)

	note, err := svc.CreateNote(ctx, "  Shopping  ", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Shopping", note.Title)

	require.NoError(t, svc.Append(ctx, note.ID, []byte("milk")))
	require.NoError(t, svc.Append(ctx, note.ID, []byte("eggs,milk")))

	fragments, err := svc.LoadAll(ctx, note.ID)
	require.NoError(t, err)
	assert.Len(t, fragments, 2)

	doc, err := svc.Document(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Document{NoteID: note.ID, Text: "eggs,milk", Fragments: 2}, doc)
}

func TestService_CreateNoteSeedsContent(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	svc := newService(store)

	note, err := svc.CreateNote(ctx, "Seeded", nil, "a,b")
	require.NoError(t, err)

	doc, err := svc.Document(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "a,b", doc.Text)
	assert.Equal(t, 1, doc.Fragments)
}

func TestService_CreateNoteWithoutSeeder(t *testing.T) {
	svc := core.NewService(NewMockStore(), replay.New(enginetest.Set{}))

	_, err := svc.CreateNote(context.Background(), "plain", nil, "content")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.CreateNote(context.Background(), "plain", nil, "")
	assert.NoError(t, err)
}

func TestService_ReplaceAllIsAnEdit(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	svc := newService(store)
	note, err := svc.CreateNote(ctx, "snap", nil, "")
	require.NoError(t, err)

	require.NoError(t, svc.ReplaceAll(ctx, note.ID, []byte("x,y")))
	assert.Equal(t, []core.Origin{core.OriginEdit}, store.origins)
}

func TestService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newService(NewMockStore())

	tests := []struct {
		name string
		call func() error
	}{
		{"append to id 0", func() error { return svc.Append(ctx, 0, []byte("x")) }},
		{"append empty update", func() error { return svc.Append(ctx, 1, nil) }},
		{"replace with empty snapshot", func() error { return svc.ReplaceAll(ctx, 1, []byte{}) }},
		{"load negative id", func() error { _, err := svc.LoadAll(ctx, -1); return err }},
		{"create without title", func() error { _, err := svc.CreateNote(ctx, "   ", nil, ""); return err }},
		{"rename to blank", func() error { _, err := svc.RenameNote(ctx, 1, ""); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), core.ErrInvalidInput)
		})
	}
}

func TestService_NotFoundPropagates(t *testing.T) {
	ctx := context.Background()
	svc := newService(NewMockStore())

	assert.ErrorIs(t, svc.Append(ctx, 9, []byte("x")), core.ErrNoteNotFound)
	assert.ErrorIs(t, svc.DeleteNote(ctx, 9), core.ErrNoteNotFound)
	_, err := svc.GetNote(ctx, 9)
	assert.ErrorIs(t, err, core.ErrNoteNotFound)
}

func TestService_DocumentCorrupt(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	svc := newService(store)
	note, err := svc.CreateNote(ctx, "broken", nil, "")
	require.NoError(t, err)
	require.NoError(t, svc.Append(ctx, note.ID, enginetest.Corrupt))

	_, err = svc.Document(ctx, note.ID)
	assert.ErrorIs(t, err, core.ErrCorruptFragment)
}

func TestService_ListNotesDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	svc := newService(store)
	for _, title := range []string{"alpha", "beta", "Alphabet"} {
		_, err := svc.CreateNote(ctx, title, nil, "")
		require.NoError(t, err)
	}

	notes, err := svc.ListNotes(ctx, core.ListOptions{Search: "alpha", Offset: -3})
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.Equal(t, core.ListOptions{Limit: 50, SortBy: core.SortByUpdated, Descending: true, Search: "alpha"}, store.lastList)
}

func TestService_RenameAndIcon(t *testing.T) {
	ctx := context.Background()
	svc := newService(NewMockStore())
	note, err := svc.CreateNote(ctx, "old", nil, "")
	require.NoError(t, err)

	renamed, err := svc.RenameNote(ctx, note.ID, " new ")
	require.NoError(t, err)
	assert.Equal(t, "new", renamed.Title)

	icon := "★"
	withIcon, err := svc.SetNoteIcon(ctx, note.ID, &icon)
	require.NoError(t, err)
	require.NotNil(t, withIcon.Icon)
	assert.Equal(t, icon, *withIcon.Icon)

	require.NoError(t, svc.DeleteNote(ctx, note.ID))
	fragments, err := svc.LoadAll(ctx, note.ID)
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestErrors(t *testing.T) {
	cause := errors.New("disk full")
	se := &core.StorageError{Op: "append fragment", Err: cause}
	assert.ErrorIs(t, se, core.ErrStorage)
	assert.ErrorIs(t, se, cause)
	assert.Contains(t, se.Error(), "append fragment")

	cfe := &core.CorruptFragmentError{Index: 4, Err: cause}
	assert.ErrorIs(t, cfe, core.ErrCorruptFragment)
	assert.ErrorIs(t, cfe, cause)
	assert.NotErrorIs(t, cfe, core.ErrStorage)
}
