package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/campusqa/campusqa/internal/app"
	"github.com/campusqa/campusqa/internal/log"
	"github.com/campusqa/campusqa/internal/rag"
)

// maxMessageBytes bounds the chat request body.
const maxMessageBytes = 64 << 10

type chatHandler struct {
	app    *app.App
	logger log.Logger
}

type chatRequest struct {
	Message string `json:"message"`
}

// parseMessage decodes and validates the chat request body. Returns the
// trimmed message, or "" after writing an error response.
func (h *chatHandler) parseMessage(w http.ResponseWriter, r *http.Request) string {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return ""
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "Empty message", h.logger)
		return ""
	}
	return message
}

// send handles POST /api/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	message := h.parseMessage(w, r)
	if message == "" {
		return
	}

	result := h.app.Answer(r.Context(), message)
	writeJSON(w, http.StatusOK, result, h.logger)
}

// stream handles POST /api/chat/stream, delivering pipeline progress as
// Server-Sent Events.
func (h *chatHandler) stream(w http.ResponseWriter, r *http.Request) {
	message := h.parseMessage(w, r)
	if message == "" {
		return
	}

	sw, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", h.logger)
		return
	}

	err = h.app.AnswerStream(r.Context(), message, func(ev rag.Event) error {
		return sw.writeEvent(ev)
	})
	if err != nil {
		// Emission failed mid-stream, usually a client disconnect. The
		// response is already partially written; nothing more to send.
		h.logger.Debug("answer stream aborted", "error", err)
	}
}
