package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

const (
	// simpleQueryMaxWords bounds the short-circuit: queries at most this
	// many ASCII words skip the rewrite model call entirely.
	simpleQueryMaxWords = 5

	rewriteMaxTokens = 50
)

// isSimpleQuery reports whether query is already retrieval-friendly:
// short and pure ASCII. Rewriting such queries costs a model call for
// no retrieval benefit.
func isSimpleQuery(query string) bool {
	if len(strings.Fields(query)) > simpleQueryMaxWords {
		return false
	}
	for _, r := range query {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func rewritePrompt(query string) string {
	return fmt.Sprintf("Convert to English search terms: %q\n\nEnglish:", query)
}

// rewriteQuery normalizes a user question into an English retrieval query.
// The corpus is English-only while users may write in other languages, so
// non-trivial queries are restated by the model at temperature zero. Any
// failure falls back to the original query; normalization never blocks
// retrieval.
func (e *Engine) rewriteQuery(ctx context.Context, query string) string {
	if isSimpleQuery(query) {
		return query
	}

	resp, err := e.generator.Generate(ctx, GenerateRequest{
		Prompt:    rewritePrompt(query),
		MaxTokens: rewriteMaxTokens,
	})
	if err != nil {
		e.logger.Warn("query rewrite failed, using original query", "error", err)
		return query
	}

	rewritten := strings.TrimSpace(resp)
	if rewritten == "" {
		return query
	}
	return rewritten
}
