package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusqa/campusqa/internal/config"
	"github.com/campusqa/campusqa/internal/llm"
	"github.com/campusqa/campusqa/internal/rag"
	"github.com/campusqa/campusqa/internal/task"
	"github.com/campusqa/campusqa/internal/testutil"
)

// fakeProvider pairs the deterministic test embedder with a scripted
// generator.
type fakeProvider struct {
	*testutil.Embedder
	response string
	block    chan struct{} // when set, Embed waits until closed
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.Embedder.Embed(ctx, texts)
}

func (f *fakeProvider) Generate(_ context.Context, _ rag.GenerateRequest) (string, error) {
	return f.response, nil
}

func (f *fakeProvider) GenerateStream(ctx context.Context, req rag.GenerateRequest, emit func(string) error) error {
	_, err := f.Generate(ctx, req)
	if err != nil {
		return err
	}
	return emit(f.response)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := &config.Config{
		Addr:              ":0",
		Provider:          config.ProviderGoogleAI,
		ModelName:         "gemini-2.5-flash",
		EmbedderModel:     "text-embedding-004",
		Temperature:       0.3,
		MaxTokens:         150,
		DataDir:           filepath.Join(base, "data"),
		ModelsDir:         filepath.Join(base, "models"),
		IndexDir:          filepath.Join(base, "index"),
		Collection:        "campus_docs",
		ChunkSize:         500,
		ChunkOverlap:      50,
		TopK:              2,
		StreamTopK:        3,
		ContextBudget:     800,
		StreamBudget:      600,
		StreamMaxTokens:   512,
		FallbackMaxTokens: 120,
		AdminPassword:     "admin123",
		LogLevel:          "info",
	}
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.ModelsDir, 0o755))
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, provider Provider) *App {
	t.Helper()
	a, err := NewWithProvider(cfg, provider, testutil.Logger())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func waitIdle(t *testing.T, status func() task.Status) task.Status {
	t.Helper()
	require.Eventually(t, func() bool {
		return !status().Running
	}, 2*time.Second, 5*time.Millisecond)
	return status()
}

func TestApp_AnswerEndToEnd(t *testing.T) {
	const doc = "The library is open 9am to 5pm on weekdays. It is closed on public holidays."

	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "hours.txt"), []byte(doc), 0o644))

	embedder := testutil.NewEmbedder()
	embedder.SetVector("library hours", testutil.DeterministicVector(doc, 8))
	provider := &fakeProvider{
		Embedder: embedder,
		response: "The library is open from 9am to 5pm on weekdays.",
	}

	a := newTestApp(t, cfg, provider)

	require.NoError(t, a.RebuildKB())
	s := waitIdle(t, a.RebuildStatus)
	require.True(t, s.Completed, "rebuild failed: %s", s.Error)
	assert.Equal(t, 1, a.ChunkCount())

	result := a.Answer(context.Background(), "library hours")
	assert.Contains(t, result.Answer, "9")
	assert.Contains(t, result.Answer, "5")
	assert.Equal(t, 1, result.ContextUsed)
	assert.Equal(t, []string{"hours.txt"}, result.Sources)
}

func TestApp_AnswerEmptyIndex(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg, &fakeProvider{Embedder: testutil.NewEmbedder()})

	result := a.Answer(context.Background(), "anything")
	assert.Equal(t, []string{}, result.Sources)
	assert.Zero(t, result.ContextUsed)
	assert.NotEmpty(t, result.Answer)
}

func TestApp_RebuildConflict(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "a.txt"), []byte("Alpha hall hosts admissions."), 0o644))

	block := make(chan struct{})
	provider := &fakeProvider{Embedder: testutil.NewEmbedder(), block: block}
	a := newTestApp(t, cfg, provider)

	require.NoError(t, a.RebuildKB())
	assert.True(t, a.RebuildStatus().Running)

	err := a.RebuildKB()
	assert.ErrorIs(t, err, task.ErrAlreadyRunning)
	assert.True(t, a.RebuildStatus().Running, "conflict must not disturb the running rebuild")

	close(block)
	s := waitIdle(t, a.RebuildStatus)
	assert.True(t, s.Completed)
}

func TestApp_ModelLifecycle(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ModelsDir, "gemma-2b.gguf"), []byte("gguf"), 0o644))

	a := newTestApp(t, cfg, &fakeProvider{Embedder: testutil.NewEmbedder()})

	status := a.ModelStatus()
	assert.Equal(t, "gemini-2.5-flash", status.CurrentModel)
	assert.True(t, status.Loaded)

	models, err := a.Models()
	require.NoError(t, err)
	assert.Equal(t, []string{"gemma-2b.gguf"}, models)

	require.NoError(t, a.LoadModel("gemma-2b.gguf"))
	s := waitIdle(t, a.LoadStatus)
	require.True(t, s.Completed, "load failed: %s", s.Error)

	assert.Equal(t, "gemma-2b.gguf", a.ModelStatus().CurrentModel)
}

func TestApp_LoadModelUnknown(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg, &fakeProvider{Embedder: testutil.NewEmbedder()})

	err := a.LoadModel("missing.gguf")
	assert.ErrorIs(t, err, llm.ErrModelNotFound)
	assert.False(t, a.LoadStatus().Running)
}
