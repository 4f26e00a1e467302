package routes

import (
	"net/http"

	"github.com/zatekoja/notefhir/internal/api/handlers"
	"github.com/zatekoja/notefhir/internal/api/middleware"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	extractionHandler *handlers.ExtractionHandler
	resourceHandler   *handlers.ResourceHandler
	toolHandler       *handlers.ToolHandler
	healthHandler     *handlers.HealthHandler
	sseHandler        *handlers.SSEHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router. sseHandler may be nil.
func NewRouter(
	extractionHandler *handlers.ExtractionHandler,
	resourceHandler *handlers.ResourceHandler,
	toolHandler *handlers.ToolHandler,
	healthHandler *handlers.HealthHandler,
	sseHandler *handlers.SSEHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		extractionHandler: extractionHandler,
		resourceHandler:   resourceHandler,
		toolHandler:       toolHandler,
		healthHandler:     healthHandler,
		sseHandler:        sseHandler,
		metrics:           metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Live)
	r.mux.HandleFunc("GET /health/ready", r.healthHandler.Ready)

	// Extraction
	r.mux.HandleFunc("POST /api/extractions", r.extractionHandler.Extract)

	// Resources
	r.mux.Handle("GET /api/resources", middleware.ETag(http.HandlerFunc(r.resourceHandler.ListResources)))
	r.mux.HandleFunc("DELETE /api/resources", r.resourceHandler.ResetResources)
	r.mux.HandleFunc("GET /api/resources/bundle", r.resourceHandler.GetBundle)
	r.mux.HandleFunc("GET /api/resources/search", r.resourceHandler.SearchResources)
	r.mux.HandleFunc("GET /api/resources/history", r.resourceHandler.ListHistory)
	r.mux.Handle("GET /api/resources/{id}", middleware.ETag(http.HandlerFunc(r.resourceHandler.GetResource)))

	// Tools
	r.mux.Handle("GET /api/tools", middleware.ETag(http.HandlerFunc(r.toolHandler.ListTools)))
	r.mux.HandleFunc("POST /api/tools/{name}", r.toolHandler.InvokeTool)

	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/resources", r.sseHandler.StreamResources)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = middleware.RoutePattern(r.mux)
	handler = middleware.Compression(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
