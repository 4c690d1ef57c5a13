package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusqa/campusqa/internal/app"
	"github.com/campusqa/campusqa/internal/llm"
	"github.com/campusqa/campusqa/internal/log"
	"github.com/campusqa/campusqa/internal/task"
)

type adminHandler struct {
	app      *app.App
	sessions *sessionStore
	password string
	logger   log.Logger
}

// requireAdmin rejects requests without a live admin session.
func (h *adminHandler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.sessions.Valid(adminToken(r)) {
			writeError(w, http.StatusUnauthorized, "Unauthorized", h.logger)
			return
		}
		next(w, r)
	}
}

// login handles POST /api/admin/login.
func (h *adminHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password)) != 1 {
		h.logger.Warn("admin login rejected", "ip", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, map[string]bool{"success": false}, h.logger)
		return
	}

	token := h.sessions.Create()
	setAdminCookie(w, token, adminSessionTTL)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true}, h.logger)
}

// logout handles POST /api/admin/logout.
func (h *adminHandler) logout(w http.ResponseWriter, r *http.Request) {
	if token := adminToken(r); token != "" {
		h.sessions.Delete(token)
	}
	clearAdminCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true}, h.logger)
}

// models handles GET /api/admin/models.
func (h *adminHandler) models(w http.ResponseWriter, r *http.Request) {
	models, err := h.app.Models()
	if err != nil {
		h.logger.Error("listing models failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not list models", h.logger)
		return
	}
	if models == nil {
		models = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"models":        models,
		"current_model": h.app.ModelStatus().CurrentModel,
	}, h.logger)
}

// loadModel handles POST /api/admin/load_model.
func (h *adminHandler) loadModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModelName string `json:"model_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}
	if req.ModelName == "" {
		writeError(w, http.StatusBadRequest, "Model name required", h.logger)
		return
	}

	err := h.app.LoadModel(req.ModelName)
	switch {
	case errors.Is(err, llm.ErrModelNotFound):
		writeError(w, http.StatusNotFound, "Model not found", h.logger)
	case errors.Is(err, llm.ErrBadModelName):
		writeError(w, http.StatusBadRequest, "Invalid model name", h.logger)
	case errors.Is(err, task.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "Model load already in progress", h.logger)
	case err != nil:
		h.logger.Error("model load failed to start", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not start model load", h.logger)
	default:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"success": true,
			"message": "Model loading started",
		}, h.logger)
	}
}

// modelStatus handles GET /api/admin/model_status.
func (h *adminHandler) modelStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.ModelStatus(), h.logger)
}

// sync handles POST /api/admin/sync, starting a knowledge base rebuild.
func (h *adminHandler) sync(w http.ResponseWriter, r *http.Request) {
	err := h.app.RebuildKB()
	switch {
	case errors.Is(err, task.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "Sync already in progress", h.logger)
	case err != nil:
		h.logger.Error("sync failed to start", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not start sync", h.logger)
	default:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"success": true,
			"message": "Sync started",
		}, h.logger)
	}
}

// syncStatus handles GET /api/admin/sync_status.
func (h *adminHandler) syncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.RebuildStatus(), h.logger)
}
