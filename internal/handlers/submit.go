package handlers

import (
	"errors"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ajuraforce/photo-product-analyzer/internal/normalize"
	"github.com/ajuraforce/photo-product-analyzer/internal/pipeline"
	"github.com/ajuraforce/photo-product-analyzer/internal/validate"
)

// HandleSubmit accepts one product photo and runs it through the full
// pipeline, blocking until the catalog append or a terminal failure.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		file, header, err = r.FormFile("file")
		if err != nil {
			h.writeError(w, "Failed to read photo: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	// Read one byte past the limit so an oversized part never buffers fully
	// in memory and still trips the size gate.
	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		h.writeError(w, "Failed to read photo contents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Chat transports carry a sender identity; plain HTTP clients fall back
	// to their remote address.
	senderID := r.FormValue("sender_id")
	if senderID == "" {
		senderID = remoteHost(r)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")

	res := h.orchestrator.Submit(r.Context(), pipeline.Event{
		SenderID: senderID,
		Image:    data,
		Format:   format,
	})
	if res.Err != nil {
		h.writeError(w, pipeline.FailureMessage(res.Err), statusFor(res.Err))
		return
	}

	h.writeJSON(w, map[string]any{
		"request_id":   res.RequestID,
		"row_id":       res.RowID,
		"product_type": res.Record.ProductType,
		"color":        res.Record.Color,
		"brand":        res.Record.Brand,
		"description":  res.Record.Description,
		"image_url":    res.Record.ImageURL,
	})
}

// statusFor maps pipeline failures onto HTTP status codes. Sender mistakes
// are client errors; upstream trouble is a gateway error.
func statusFor(err error) int {
	var violation *validate.Violation
	var validation *normalize.ValidationError
	switch {
	case errors.Is(err, pipeline.ErrConcurrentRequest):
		return http.StatusConflict
	case errors.As(err, &violation):
		return http.StatusBadRequest
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
