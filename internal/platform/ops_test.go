package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/internal/enginetest"
	"github.com/aretw0/quill/internal/platform"
	"github.com/aretw0/quill/pkg/adapters/sqlite"
	"github.com/aretw0/quill/pkg/compaction"
	"github.com/aretw0/quill/pkg/core"
)

func TestInit(t *testing.T) {
	t.Run("Creates Database and Directories", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "notes.db")

		store, err := platform.Init(dbPath, platform.WithForceTemp(true))
		require.NoError(t, err)
		defer store.Close()

		repo, ok := store.(*sqlite.Repository)
		require.True(t, ok, "expected sqlite repository")
		assert.Equal(t, dbPath, repo.Path)

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("MustExist Fails if Database Missing", func(t *testing.T) {
		_, err := platform.Init(filepath.Join(t.TempDir(), "missing.db"), platform.WithMustExist(true), platform.WithForceTemp(true))
		assert.Error(t, err)
	})

	t.Run("Injected Store Is Used", func(t *testing.T) {
		injected := sqlite.NewRepository(sqlite.Config{Path: sqlite.MemoryPath})
		store, err := platform.Init("ignored", platform.WithStore(injected))
		require.NoError(t, err)
		defer store.Close()
		assert.Same(t, injected, store)
	})

	t.Run("In Memory", func(t *testing.T) {
		store, err := platform.Init("", platform.WithInMemory(true))
		require.NoError(t, err)
		defer store.Close()
		assert.Equal(t, sqlite.MemoryPath, store.(*sqlite.Repository).Path)
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	reg := prometheus.NewRegistry()

	nb, err := platform.Open(filepath.Join(t.TempDir(), "notes.db"),
		platform.WithForceTemp(true),
		platform.WithNow(func() time.Time { return now }),
		platform.WithMetrics(reg))
	require.NoError(t, err)
	defer nb.Close()

	note, err := nb.Service.CreateNote(ctx, "Hello", nil, "first draft")
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), note.CreatedAt.Unix())

	doc, err := nb.Service.Document(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "first draft", doc.Text)

	seed, err := nb.Engine.(core.TextSeeder).Seed("second draft")
	require.NoError(t, err)
	require.NoError(t, nb.Service.Append(ctx, note.ID, seed))

	report := nb.Compactor.CompactAll(ctx)
	require.NoError(t, report.Err())
	assert.Len(t, report.Compacted, 1)
	assert.Equal(t, now, report.Started)

	fragments, err := nb.Service.LoadAll(ctx, note.ID)
	require.NoError(t, err)
	assert.Len(t, fragments, 1)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families, "compaction metrics are registered")

	state := nb.State().(platform.NotebookState)
	assert.NotNil(t, state.Store)
	assert.Equal(t, "notebook", nb.ComponentType())
}

func TestOpen_CustomEngine(t *testing.T) {
	ctx := context.Background()
	nb, err := platform.Open("", platform.WithInMemory(true), platform.WithEngine(enginetest.Set{}))
	require.NoError(t, err)
	defer nb.Close()

	note, err := nb.Service.CreateNote(ctx, "set", nil, "b,a")
	require.NoError(t, err)
	require.NoError(t, nb.Service.Append(ctx, note.ID, []byte("c")))

	doc, err := nb.Service.Document(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "a,b,c", doc.Text)
}

func TestOpen_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ro.db")

	nb, err := platform.Open(dbPath, platform.WithForceTemp(true))
	require.NoError(t, err)
	note, err := nb.Service.CreateNote(ctx, "frozen", nil, "")
	require.NoError(t, err)
	require.NoError(t, nb.Close())

	ro, err := platform.Open(dbPath, platform.WithReadOnly(true))
	require.NoError(t, err)
	defer ro.Close()

	_, err = ro.Service.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, ro.Service.Append(ctx, note.ID, []byte("x")), core.ErrReadOnly)
}

func TestNotebook_NewScheduler(t *testing.T) {
	nb, err := platform.Open("", platform.WithInMemory(true))
	require.NoError(t, err)
	defer nb.Close()

	s := nb.NewScheduler(compaction.Every(time.Hour))
	require.NotNil(t, s)
	assert.Equal(t, "every 1h0m0s", s.State().Metadata["policy"])
}
