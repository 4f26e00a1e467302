package handlers

import (
	"net/http"
	"strconv"

	"github.com/zatekoja/notefhir/internal/application/services"
	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/repositories"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

// ResourceHandler serves the accumulated and persisted resources
type ResourceHandler struct {
	service *services.ResourceService
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(service *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{service: service}
}

// ListResources handles GET /api/resources?kind=
func (h *ResourceHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.URL.Query().Get("kind"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"resources": records,
		"count":     len(records),
	})
}

// GetBundle handles GET /api/resources/bundle?kind=
func (h *ResourceHandler) GetBundle(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.service.Bundle(r.URL.Query().Get("kind"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/fhir+json")
	w.WriteHeader(http.StatusOK)
	writeJSONBody(w, bundle)
}

// GetResource handles GET /api/resources/{id}
func (h *ResourceHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}

// ResetResources handles DELETE /api/resources
func (h *ResourceHandler) ResetResources(w http.ResponseWriter, r *http.Request) {
	n := h.service.Reset(r.Context())
	respondWithJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// SearchResources handles GET /api/resources/search?q=&kind=&limit=
func (h *ResourceHandler) SearchResources(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := intParam(query.Get("limit"), 0)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	hits, err := h.service.Search(r.Context(), query.Get("q"), query.Get("kind"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hits":  hits,
		"count": len(hits),
	})
}

// ListHistory handles GET /api/resources/history?kind=&code=&subject=&limit=&offset=
func (h *ResourceHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repositories.ResourceFilter{
		Code:    query.Get("code"),
		Subject: query.Get("subject"),
	}
	if k := query.Get("kind"); k != "" {
		kind, err := entities.ParseResourceKind(k)
		if err != nil {
			respondWithAppError(w, r, apperrors.NewValidationError(err.Error()))
			return
		}
		filter.Kind = kind
	}

	var err error
	if filter.Limit, err = intParam(query.Get("limit"), 50); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if filter.Offset, err = intParam(query.Get("offset"), 0); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	records, err := h.service.History(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"resources": records,
		"count":     len(records),
	})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidationError("invalid integer parameter: " + raw)
	}
	return n, nil
}
