package llm

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/campusqa/campusqa/internal/rag"
)

// GoogleAI drives Gemini models through Genkit. It implements the
// pipeline's Generator, StreamGenerator and Embedder interfaces.
// Reads GEMINI_API_KEY from the environment (handled by the plugin).
type GoogleAI struct {
	g        *genkit.Genkit
	model    string
	embedder ai.Embedder
	limiter  *rate.Limiter
}

// NewGoogleAI initializes Genkit with the Google AI plugin.
// model is the generation model, embedderModel the embedding model.
func NewGoogleAI(ctx context.Context, model, embedderModel string) (*GoogleAI, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := googlegenai.GoogleAIEmbedder(g, embedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("llm: unknown embedder model %q", embedderModel)
	}

	return &GoogleAI{
		g:        g,
		model:    model,
		embedder: embedder,
		// 10 req/s with bursts of 30, matching provider quota headroom.
		limiter: rate.NewLimiter(10, 30),
	}, nil
}

// Generate runs one synchronous completion.
func (p *GoogleAI) Generate(ctx context.Context, req rag.GenerateRequest) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limit wait: %w", err)
	}

	resp, err := genkit.Generate(ctx, p.g,
		ai.WithModelName(p.model),
		ai.WithPrompt(req.Prompt),
		ai.WithConfig(generateConfig(req)),
	)
	if err != nil {
		return "", fmt.Errorf("llm: generate: %w", err)
	}
	return resp.Text(), nil
}

// GenerateStream runs a completion, emitting token fragments as the
// model produces them. An error returned by emit aborts the stream.
func (p *GoogleAI) GenerateStream(ctx context.Context, req rag.GenerateRequest, emit func(token string) error) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("llm: rate limit wait: %w", err)
	}

	var emitErr error
	_, err := genkit.Generate(ctx, p.g,
		ai.WithModelName(p.model),
		ai.WithPrompt(req.Prompt),
		ai.WithConfig(generateConfig(req)),
		ai.WithStreaming(func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			for _, part := range chunk.Content {
				if part.Text == "" {
					continue
				}
				if err := emit(part.Text); err != nil {
					emitErr = err
					return err
				}
			}
			return nil
		}),
	)
	if emitErr != nil {
		return emitErr
	}
	if err != nil {
		return fmt.Errorf("llm: generate stream: %w", err)
	}
	return nil
}

// Embed returns one embedding vector per input text.
func (p *GoogleAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("llm: rate limit wait: %w", err)
	}

	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}

	resp, err := p.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("llm: embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("llm: embed: want %d vectors, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Embedding
	}
	return vectors, nil
}

func generateConfig(req rag.GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Stop) > 0 {
		cfg.StopSequences = req.Stop
	}
	return cfg
}
