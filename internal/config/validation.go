package config

import "fmt"

// Validate checks the configuration for consistency. Called by Load;
// exported so hand-built configs in tests get the same checks.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGoogleAI, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidProvider, c.Provider, ProviderGoogleAI, ProviderOpenAI)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidModelName)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (want 0..2)", ErrInvalidTemperature, c.Temperature)
	}

	for name, v := range map[string]int{
		"max_tokens":          c.MaxTokens,
		"stream_max_tokens":   c.StreamMaxTokens,
		"fallback_max_tokens": c.FallbackMaxTokens,
	} {
		if v <= 0 || v > 32768 {
			return fmt.Errorf("%w: %s=%d (want 1..32768)", ErrInvalidMaxTokens, name, v)
		}
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size=%d (want > 0)", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap=%d (want 0 <= overlap < chunk_size)", ErrInvalidChunking, c.ChunkOverlap)
	}

	if c.TopK <= 0 || c.TopK > 100 {
		return fmt.Errorf("%w: top_k=%d (want 1..100)", ErrInvalidTopK, c.TopK)
	}
	if c.StreamTopK <= 0 || c.StreamTopK > 100 {
		return fmt.Errorf("%w: stream_top_k=%d (want 1..100)", ErrInvalidTopK, c.StreamTopK)
	}

	for name, dir := range map[string]string{
		"data_dir":   c.DataDir,
		"models_dir": c.ModelsDir,
		"index_dir":  c.IndexDir,
	} {
		if dir == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrMissingDir, name)
		}
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: collection must not be empty", ErrMissingDir)
	}

	return nil
}
