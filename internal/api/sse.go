package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/campusqa/campusqa/internal/rag"
)

// sseWriter streams pipeline events as Server-Sent Events, one event per
// pipeline phase with a JSON payload.
type sseWriter struct {
	w       io.Writer
	flusher http.Flusher
}

// newSSEWriter wraps w and sets the SSE headers.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flusher interface")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	return &sseWriter{w: w, flusher: flusher}, nil
}

// writeEvent sends one pipeline event and flushes so clients see
// progress immediately.
func (s *sseWriter) writeEvent(ev rag.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Phase, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	s.flusher.Flush()
	return nil
}
