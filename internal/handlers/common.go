package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ajuraforce/photo-product-analyzer/internal/pipeline"
)

// Handler exposes the photo pipeline over HTTP.
type Handler struct {
	orchestrator  *pipeline.Orchestrator
	uploadDir     string
	maxImageBytes int64
}

func New(orchestrator *pipeline.Orchestrator, uploadDir string, maxImageBytes int64) *Handler {
	return &Handler{
		orchestrator:  orchestrator,
		uploadDir:     uploadDir,
		maxImageBytes: maxImageBytes,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
