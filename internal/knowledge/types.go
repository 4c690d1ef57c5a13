package knowledge

import "context"

// Embedder produces vector embeddings for texts. Implementations live in
// internal/llm; tests supply deterministic fakes.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchResult holds retrieved chunks and their originating filenames.
// Documents and Sources are index-aligned.
type SearchResult struct {
	Documents []string
	Sources   []string
}

// Empty reports whether the search produced no usable context.
func (r SearchResult) Empty() bool {
	return len(r.Documents) == 0
}

// RebuildResult summarizes a completed index rebuild.
type RebuildResult struct {
	Files  int
	Chunks int
}
