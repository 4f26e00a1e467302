package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

const maxBodyBytes = 1 << 20

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
	Field string `json:"field,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorResponse{Error: message})
}

// respondWithAppError maps an application error onto an HTTP status. Failures of upstream
// services, including rejected credentials, surface as 502.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	body := errorResponse{Error: err.Error(), Type: string(apperrors.TypeOf(err))}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
		body.Field = appErr.Field
	}

	logger := observability.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	}
	respondWithJSON(w, status, body)
}

func statusForError(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeValidation, apperrors.ErrorTypeMissingField, apperrors.ErrorTypeUnknownTool:
		return http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeUnauthorized, apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSONBody(w http.ResponseWriter, payload interface{}) {
	_ = json.NewEncoder(w).Encode(payload)
}
