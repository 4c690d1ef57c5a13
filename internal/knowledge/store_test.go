package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusqa/campusqa/internal/testutil"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestStore(t *testing.T, embedder Embedder) *Store {
	t.Helper()
	store, err := New(Config{
		Path:       filepath.Join(t.TempDir(), "index"),
		Collection: "campus_docs",
	}, embedder, testutil.Logger())
	require.NoError(t, err)
	return store
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Collection: "c"}, testutil.NewEmbedder(), testutil.Logger())
	assert.Error(t, err)

	_, err = New(Config{Path: t.TempDir()}, testutil.NewEmbedder(), testutil.Logger())
	assert.Error(t, err)

	_, err = New(Config{Path: t.TempDir(), Collection: "c"}, nil, testutil.Logger())
	assert.ErrorIs(t, err, ErrNoEmbedder)
}

func TestRebuild_IndexesDocuments(t *testing.T) {
	embedder := testutil.NewEmbedder()
	store := newTestStore(t, embedder)

	docs := t.TempDir()
	writeDoc(t, docs, "hours.txt", "The library opens at 9 AM and closes at 5 PM.")
	writeDoc(t, docs, "wifi.md", "Connect to the campus network with your student account.")
	writeDoc(t, docs, "ignored.pdf", "binary stuff")

	result, err := store.Rebuild(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 2, result.Chunks)
	assert.Equal(t, 2, store.Count())

	// All chunks go to the embedder in a single batch.
	batches := embedder.Batches()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
}

func TestRebuild_EmptyDir(t *testing.T) {
	embedder := testutil.NewEmbedder()
	store := newTestStore(t, embedder)

	result, err := store.Rebuild(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.Zero(t, result.Files)
	assert.Zero(t, result.Chunks)
	assert.Zero(t, embedder.Calls())
}

func TestRebuild_MissingDir(t *testing.T) {
	store := newTestStore(t, testutil.NewEmbedder())

	_, err := store.Rebuild(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrSourceDirGone)
}

func TestRebuild_EmbedFailureKeepsExistingIndex(t *testing.T) {
	embedder := testutil.NewEmbedder()
	store := newTestStore(t, embedder)

	docs := t.TempDir()
	writeDoc(t, docs, "hours.txt", "The library opens at 9 AM and closes at 5 PM.")

	_, err := store.Rebuild(context.Background(), docs)
	require.NoError(t, err)
	require.Equal(t, 1, store.Count())

	writeDoc(t, docs, "extra.txt", "The gym is open on weekends.")
	embedder.FailWith(errors.New("provider down"))

	_, err = store.Rebuild(context.Background(), docs)
	require.Error(t, err)

	// The failed rebuild must not have touched the old index.
	assert.Equal(t, 1, store.Count())

	embedder.FailWith(nil)
	result, err := store.Query(context.Background(), "library", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"The library opens at 9 AM and closes at 5 PM."}, result.Documents)
}

func TestRebuild_Idempotent(t *testing.T) {
	embedder := testutil.NewEmbedder()
	store := newTestStore(t, embedder)

	docs := t.TempDir()
	writeDoc(t, docs, "hours.txt", "The library opens at 9 AM and closes at 5 PM.")
	writeDoc(t, docs, "wifi.md", "Connect to the campus network with your student account.")

	first, err := store.Rebuild(context.Background(), docs)
	require.NoError(t, err)

	second, err := store.Rebuild(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Chunks, store.Count())
}

func TestQuery_EmptyIndex(t *testing.T) {
	embedder := testutil.NewEmbedder()
	store := newTestStore(t, embedder)

	result, err := store.Query(context.Background(), "anything", 3)
	require.NoError(t, err)

	assert.True(t, result.Empty())
	// No point embedding a query against an empty index.
	assert.Zero(t, embedder.Calls())
}

func TestQuery_RanksPinnedVectorFirst(t *testing.T) {
	const hours = "The library opens at 9 AM and closes at 5 PM."
	const wifi = "Connect to the campus network with your student account."

	embedder := testutil.NewEmbedder()
	embedder.SetVector("library hours", testutil.DeterministicVector(hours, 8))

	store := newTestStore(t, embedder)

	docs := t.TempDir()
	writeDoc(t, docs, "hours.txt", hours)
	writeDoc(t, docs, "wifi.md", wifi)

	_, err := store.Rebuild(context.Background(), docs)
	require.NoError(t, err)

	result, err := store.Query(context.Background(), "library hours", 1)
	require.NoError(t, err)

	require.Len(t, result.Documents, 1)
	assert.Equal(t, hours, result.Documents[0])
	assert.Equal(t, []string{"hours.txt"}, result.Sources)
}

func TestQuery_ClampsTopK(t *testing.T) {
	embedder := testutil.NewEmbedder()
	store := newTestStore(t, embedder)

	docs := t.TempDir()
	writeDoc(t, docs, "a.txt", "Alpha building houses the admissions office.")
	writeDoc(t, docs, "b.txt", "Beta hall hosts the computer labs.")

	_, err := store.Rebuild(context.Background(), docs)
	require.NoError(t, err)

	result, err := store.Query(context.Background(), "buildings", 10)
	require.NoError(t, err)

	assert.Len(t, result.Documents, 2)
	assert.Len(t, result.Sources, 2)
}

func TestQuery_EmbedFailure(t *testing.T) {
	embedder := testutil.NewEmbedder()
	store := newTestStore(t, embedder)

	docs := t.TempDir()
	writeDoc(t, docs, "a.txt", "Alpha building houses the admissions office.")
	_, err := store.Rebuild(context.Background(), docs)
	require.NoError(t, err)

	embedder.FailWith(errors.New("provider down"))
	_, err = store.Query(context.Background(), "anything", 2)
	assert.Error(t, err)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	embedder := testutil.NewEmbedder()
	path := filepath.Join(t.TempDir(), "index")

	store, err := New(Config{Path: path, Collection: "campus_docs"}, embedder, testutil.Logger())
	require.NoError(t, err)

	docs := t.TempDir()
	writeDoc(t, docs, "hours.txt", "The library opens at 9 AM and closes at 5 PM.")
	_, err = store.Rebuild(context.Background(), docs)
	require.NoError(t, err)

	reopened, err := New(Config{Path: path, Collection: "campus_docs"}, embedder, testutil.Logger())
	require.NoError(t, err)

	assert.Equal(t, 1, reopened.Count())
}
