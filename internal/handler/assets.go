package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/comicshelf/internal/apperror"
	"github.com/sakif/comicshelf/internal/blob"
)

// AssetHandler serves stored objects (page images) out of the blob store.
type AssetHandler struct {
	store  blob.Store
	logger *slog.Logger
}

// NewAssetHandler creates an AssetHandler.
func NewAssetHandler(store blob.Store, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{store: store, logger: logger}
}

// HandleAsset streams one object.
//
// HTTP: GET /assets/{key}
//
// Keys are content-addressed and never change, so responses are marked
// immutable and cacheable for a year. Unknown keys are a plain 404.
func (h *AssetHandler) HandleAsset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	obj, err := h.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("asset read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, obj.Body); err != nil {
		// Headers are already out; nothing to send but a log line.
		h.logger.Warn("asset stream interrupted",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
