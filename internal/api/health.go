package api

import (
	"net/http"

	"github.com/campusqa/campusqa/internal/app"
	"github.com/campusqa/campusqa/internal/log"
)

// health reports liveness plus a quick view of the index size.
func health(a *app.App, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"chunks": a.ChunkCount(),
		}, logger)
	})
}
