package handlers

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

// Extractor runs one note through the model and tool pipeline.
type Extractor interface {
	Extract(ctx context.Context, note string) (*entities.ExtractionResult, error)
}

// ExtractionHandler handles note extraction requests
type ExtractionHandler struct {
	extractor Extractor
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(extractor Extractor) *ExtractionHandler {
	return &ExtractionHandler{extractor: extractor}
}

// ExtractRequest is the JSON body of POST /api/extractions.
type ExtractRequest struct {
	Note string `json:"note"`
}

// Extract handles POST /api/extractions. The note is read from a JSON body or, for
// text/plain requests, from the raw body.
func (h *ExtractionHandler) Extract(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	var note string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "text/plain":
		raw, err := io.ReadAll(body)
		if err != nil {
			respondWithError(w, http.StatusRequestEntityTooLarge, "note is too large")
			return
		}
		note = string(raw)
	default:
		var req ExtractRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		note = req.Note
	}

	result, err := h.extractor.Extract(r.Context(), note)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
