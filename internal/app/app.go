// Package app owns the assembled service: the knowledge store, the
// active answer engine and the background tasks that mutate them. The
// engine is swapped atomically on model reload so concurrent queries
// always see either the old or the new model, never a half-built one.
package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/campusqa/campusqa/internal/config"
	"github.com/campusqa/campusqa/internal/knowledge"
	"github.com/campusqa/campusqa/internal/llm"
	"github.com/campusqa/campusqa/internal/log"
	"github.com/campusqa/campusqa/internal/rag"
	"github.com/campusqa/campusqa/internal/task"
)

// Provider is what a model backend must offer: batch embeddings plus
// synchronous and incremental generation.
type Provider interface {
	knowledge.Embedder
	rag.StreamGenerator
}

// ModelStatus reports which generation model currently serves answers.
type ModelStatus struct {
	CurrentModel string `json:"current_model"`
	Loaded       bool   `json:"loaded"`
}

// App is the assembled service context. Construct with New (production
// wiring) or NewWithProvider (tests); safe for concurrent use.
type App struct {
	cfg     *config.Config
	logger  log.Logger
	store   *knowledge.Store
	catalog *llm.Catalog

	engine       atomic.Pointer[rag.Engine]
	currentModel atomic.Pointer[string]

	rebuildTask *task.Runner
	loadTask    *task.Runner
}

// New builds the service with the provider selected by cfg.Provider.
func New(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	provider, err := newProvider(ctx, cfg, cfg.ModelName)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, provider, logger)
}

// NewWithProvider builds the service around an existing provider.
func NewWithProvider(cfg *config.Config, provider Provider, logger log.Logger) (*App, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	store, err := knowledge.New(knowledge.Config{
		Path:         cfg.IndexDir,
		Collection:   cfg.Collection,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}, provider, logger)
	if err != nil {
		return nil, fmt.Errorf("app: open knowledge store: %w", err)
	}

	a := &App{
		cfg:         cfg,
		logger:      logger.With("component", "app"),
		store:       store,
		catalog:     llm.NewCatalog(cfg.ModelsDir),
		rebuildTask: task.NewRunner("rebuild", logger),
		loadTask:    task.NewRunner("model-load", logger),
	}
	a.engine.Store(rag.NewEngine(store, provider, engineOptions(cfg), logger))

	model := cfg.ModelName
	a.currentModel.Store(&model)

	return a, nil
}

// Answer runs the synchronous pipeline with the current engine.
func (a *App) Answer(ctx context.Context, query string) rag.AnswerResult {
	return a.engine.Load().Answer(ctx, query)
}

// AnswerStream runs the streaming pipeline with the current engine.
func (a *App) AnswerStream(ctx context.Context, query string, emit func(rag.Event) error) error {
	return a.engine.Load().AnswerStream(ctx, query, emit)
}

// ChunkCount returns the number of indexed chunks.
func (a *App) ChunkCount() int {
	return a.store.Count()
}

// RebuildKB starts a background knowledge base rebuild from the data
// directory. Returns task.ErrAlreadyRunning if one is in flight.
func (a *App) RebuildKB() error {
	return a.rebuildTask.Start(func(ctx context.Context) error {
		_, err := a.store.Rebuild(ctx, a.cfg.DataDir)
		return err
	})
}

// RebuildStatus reports the state of the rebuild task.
func (a *App) RebuildStatus() task.Status {
	return a.rebuildTask.Status()
}

// Models lists local model archives available to LoadModel.
func (a *App) Models() ([]string, error) {
	return a.catalog.List()
}

// LoadModel swaps the generation model behind answers to a local model
// archive, served through the configured OpenAI-compatible endpoint. The
// swap happens in the background; the previous engine keeps serving until
// the new one is in place. Returns task.ErrAlreadyRunning if a load is
// already in flight.
func (a *App) LoadModel(name string) error {
	if _, err := a.catalog.Resolve(name); err != nil {
		return err
	}

	return a.loadTask.Start(func(ctx context.Context) error {
		generator := llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:        a.cfg.OpenAIAPIKey,
			BaseURL:       a.cfg.OpenAIBaseURL,
			Model:         name,
			EmbedderModel: a.cfg.EmbedderModel,
		})

		// The store keeps its original embedder: query vectors must stay
		// comparable with the vectors written at index time.
		a.engine.Store(rag.NewEngine(a.store, generator, engineOptions(a.cfg), a.logger))

		model := name
		a.currentModel.Store(&model)
		a.logger.Info("model loaded", "model", name)
		return nil
	})
}

// ModelStatus reports the active model and the load task state.
func (a *App) ModelStatus() ModelStatus {
	return ModelStatus{
		CurrentModel: *a.currentModel.Load(),
		Loaded:       !a.loadTask.Status().Running,
	}
}

// LoadStatus reports the state of the model load task.
func (a *App) LoadStatus() task.Status {
	return a.loadTask.Status()
}

// Close cancels background tasks and waits for them.
func (a *App) Close() {
	a.rebuildTask.Close()
	a.loadTask.Close()
}

func newProvider(ctx context.Context, cfg *config.Config, model string) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:        cfg.OpenAIAPIKey,
			BaseURL:       cfg.OpenAIBaseURL,
			Model:         model,
			EmbedderModel: cfg.EmbedderModel,
		}), nil
	default:
		// Genkit wants the provider-qualified name, e.g. "googleai/gemini-2.5-flash".
		return llm.NewGoogleAI(ctx, cfg.FullModelName(), cfg.EmbedderModel)
	}
}

func engineOptions(cfg *config.Config) rag.Options {
	return rag.Options{
		TopK:              cfg.TopK,
		StreamTopK:        cfg.StreamTopK,
		ContextBudget:     cfg.ContextBudget,
		StreamBudget:      cfg.StreamBudget,
		MaxTokens:         cfg.MaxTokens,
		StreamMaxTokens:   cfg.StreamMaxTokens,
		FallbackMaxTokens: cfg.FallbackMaxTokens,
		Temperature:       cfg.Temperature,
		UseLLMFallback:    cfg.UseLLMFallback,
	}
}
