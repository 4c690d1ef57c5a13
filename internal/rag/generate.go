package rag

import (
	"context"
	"strings"
)

// GenerateRequest describes one language model invocation.
type GenerateRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
	Stop        []string
}

// Generator produces a complete text for a prompt. Implementations live
// in internal/llm.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// StreamGenerator additionally supports incremental generation, invoking
// emit once per token fragment as it is produced. Returning an error from
// emit aborts generation.
type StreamGenerator interface {
	Generator
	GenerateStream(ctx context.Context, req GenerateRequest, emit func(token string) error) error
}

// WordStreamer adapts a whole-response Generator to the incremental
// interface by generating the full text first and replaying it as
// whitespace-delimited words. Used when the configured provider has no
// native token streaming.
type WordStreamer struct {
	Generator
}

// GenerateStream generates the complete response, then emits it word by word.
func (w WordStreamer) GenerateStream(ctx context.Context, req GenerateRequest, emit func(token string) error) error {
	text, err := w.Generate(ctx, req)
	if err != nil {
		return err
	}
	for i, word := range strings.Fields(text) {
		token := word
		if i > 0 {
			token = " " + word
		}
		if err := emit(token); err != nil {
			return err
		}
	}
	return nil
}
