package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/campusqa/campusqa/internal/rag"
)

// OpenAIConfig configures the OpenAI-compatible provider. BaseURL may
// point at any server speaking the OpenAI API, including a local
// llama.cpp server fronting a .gguf model.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	EmbedderModel string
}

// OpenAI implements the pipeline's Generator, StreamGenerator and
// Embedder interfaces on the OpenAI chat and embeddings APIs.
type OpenAI struct {
	client     *openai.Client
	model      string
	embedModel string
	limiter    *rate.Limiter
}

// NewOpenAI creates the provider. An empty BaseURL uses the public API.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		embedModel: cfg.EmbedderModel,
		limiter:    rate.NewLimiter(10, 30),
	}
}

// Generate runs one synchronous chat completion.
func (p *OpenAI) Generate(ctx context.Context, req rag.GenerateRequest) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limit wait: %w", err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, p.chatRequest(req, false))
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream runs a chat completion in streaming mode, emitting
// content deltas as they arrive.
func (p *OpenAI) GenerateStream(ctx context.Context, req rag.GenerateRequest, emit func(token string) error) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("llm: rate limit wait: %w", err)
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, p.chatRequest(req, true))
	if err != nil {
		return fmt.Errorf("llm: open completion stream: %w", err)
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("llm: read completion stream: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := emit(delta); err != nil {
				return err
			}
		}
	}
}

// Embed returns one embedding vector per input text.
func (p *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("llm: rate limit wait: %w", err)
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(p.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("llm: embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("llm: embeddings: want %d vectors, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (p *OpenAI) chatRequest(req rag.GenerateRequest, stream bool) openai.ChatCompletionRequest {
	// go-openai tags Temperature with omitempty, so a literal 0 would be
	// dropped from the request and the server default (1.0) would apply.
	// The smallest nonzero float stands in for zero on the wire.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
		Stop:        req.Stop,
		Stream:      stream,
	}
}
