package routes

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/notefhir/internal/adapters/events"
	"github.com/zatekoja/notefhir/internal/api/handlers"
	"github.com/zatekoja/notefhir/internal/application/services"
	"github.com/zatekoja/notefhir/internal/application/services/tooldefs"
	"github.com/zatekoja/notefhir/internal/domain/entities"
)

type staticAnnotator struct{}

func (staticAnnotator) Annotate(ctx context.Context, text string) ([]entities.OntologyAnnotation, error) {
	return []entities.OntologyAnnotation{{OboID: "SNOMED:29857009", Label: "Chest pain"}}, nil
}

type staticExtractor struct{}

func (staticExtractor) Extract(ctx context.Context, note string) (*entities.ExtractionResult, error) {
	return &entities.ExtractionResult{ID: "ex-1", Message: "done"}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	results := services.NewResultAccumulator()
	builder := services.NewResourceBuilder(staticAnnotator{}, results, "")
	descriptors, err := tooldefs.Default()
	require.NoError(t, err)
	registry, err := services.NewToolRegistry(builder, descriptors)
	require.NoError(t, err)

	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	router := NewRouter(
		handlers.NewExtractionHandler(staticExtractor{}),
		handlers.NewResourceHandler(services.NewResourceService(results, nil, nil, nil)),
		handlers.NewToolHandler(registry, nil),
		handlers.NewHealthHandler(),
		handlers.NewSSEHandler(bus),
		nil,
	)
	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func TestRouter_Endpoints(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusOK},
		{http.MethodGet, "/api/tools", "", http.StatusOK},
		{http.MethodPost, "/api/tools/extract_fhir_condition", `{"condition":"chest pain"}`, http.StatusCreated},
		{http.MethodGet, "/api/resources", "", http.StatusOK},
		{http.MethodGet, "/api/resources/bundle", "", http.StatusOK},
		{http.MethodGet, "/api/resources/missing", "", http.StatusNotFound},
		{http.MethodGet, "/api/resources/search?q=chest", "", http.StatusNotFound},
		{http.MethodPost, "/api/extractions", `{"note":"chest pain"}`, http.StatusOK},
		{http.MethodDelete, "/api/resources", "", http.StatusOK},
		{http.MethodPut, "/api/resources", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestRouter_ETagRevalidation(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/tools")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/tools", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestRouter_GzipResponses(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/tools", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))

	zr, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "extract_fhir_condition")
}
