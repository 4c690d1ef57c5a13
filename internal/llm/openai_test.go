package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusqa/campusqa/internal/rag"
)

func TestChatRequest_ZeroTemperatureStaysOnWire(t *testing.T) {
	p := NewOpenAI(OpenAIConfig{APIKey: "test-key", Model: "gemma-2b.gguf"})

	req := p.chatRequest(rag.GenerateRequest{Prompt: "rewrite this", MaxTokens: 50}, false)

	// Literal zero would be omitted from the request JSON; the sentinel
	// must keep the field present while staying effectively zero.
	assert.Greater(t, req.Temperature, float32(0))
	assert.Less(t, req.Temperature, float32(1e-30))

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"temperature"`)
}

func TestChatRequest_PassesOptionsThrough(t *testing.T) {
	p := NewOpenAI(OpenAIConfig{APIKey: "test-key", Model: "gemma-2b.gguf"})

	req := p.chatRequest(rag.GenerateRequest{
		Prompt:      "answer this",
		MaxTokens:   150,
		Temperature: 0.3,
		Stop:        []string{"\n\n", "Question:"},
	}, true)

	assert.Equal(t, "gemma-2b.gguf", req.Model)
	assert.Equal(t, 150, req.MaxTokens)
	assert.Equal(t, float32(0.3), req.Temperature)
	assert.Equal(t, []string{"\n\n", "Question:"}, req.Stop)
	assert.True(t, req.Stream)

	require.Len(t, req.Messages, 1)
	assert.Equal(t, "answer this", req.Messages[0].Content)
}
