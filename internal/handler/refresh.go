package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/comicshelf/internal/apperror"
	"github.com/sakif/comicshelf/internal/service"
)

// RefreshHandler exposes the manifest refresh pipeline.
type RefreshHandler struct {
	refresher *service.RefreshService
	logger    *slog.Logger
}

// NewRefreshHandler creates a RefreshHandler.
func NewRefreshHandler(refresher *service.RefreshService, logger *slog.Logger) *RefreshHandler {
	return &RefreshHandler{refresher: refresher, logger: logger}
}

// refreshRequest is the POST /api/refresh body. Slug, when present,
// overrides the manifest's own slug as the cache key.
type refreshRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Slug  string `json:"slug,omitempty"`
}

// HandleRefresh fetches, validates, and caches a registered repository's
// manifest.
//
// HTTP: POST /api/refresh
// Auth: required (RequireAuth middleware)
//
// Status codes follow the pipeline's failure classification: 400 for a bad
// body, 404 for an unregistered repository, 502 when the upstream fetch
// fails or returns non-JSON, 422 when the manifest breaks schema rules.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.BadRequest("invalid JSON body"))
		return
	}
	if req.Owner == "" || req.Repo == "" {
		writeError(w, apperror.BadRequest("owner and repo are required"))
		return
	}

	result, err := h.refresher.Refresh(r.Context(), req.Owner, req.Repo, req.Slug)
	if err != nil {
		h.logger.Warn("refresh failed",
			slog.String("repo", req.Owner+"/"+req.Repo),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
