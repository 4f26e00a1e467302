package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/notefhir/internal/application/services"
	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

// ToolHandler exposes the tool registry for inspection and direct invocation
type ToolHandler struct {
	registry *services.ToolRegistry
	exporter services.ResourceExporter
}

// NewToolHandler creates a new tool handler. exporter may be nil.
func NewToolHandler(registry *services.ToolRegistry, exporter services.ResourceExporter) *ToolHandler {
	return &ToolHandler{registry: registry, exporter: exporter}
}

// ListTools handles GET /api/tools
func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tools": h.registry.Tools(),
	})
}

// InvokeResponse is the result of a direct tool invocation.
type InvokeResponse struct {
	*services.BuildOutcome
	ExportIssues []string `json:"export_issues,omitempty"`
}

// InvokeTool handles POST /api/tools/{name}. The body is the tool's JSON arguments.
func (h *ToolHandler) InvokeTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !h.registry.Has(name) {
		respondWithAppError(w, r, apperrors.NewUnknownToolError(name))
		return
	}

	var raw json.RawMessage
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.registry.DispatchCall(r.Context(), entities.ToolCall{Name: name, Arguments: string(raw)})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	resp := InvokeResponse{BuildOutcome: outcome}
	if outcome.Added() && h.exporter != nil {
		resp.ExportIssues = h.exporter.Export(r.Context(), []*entities.ResourceRecord{outcome.Record})
		for _, issue := range resp.ExportIssues {
			observability.LoggerFromContext(r.Context()).Warn().Str("tool", name).Str("issue", issue).Msg("export failed")
		}
	}

	status := http.StatusOK
	if outcome.Added() {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, resp)
}
