package typesense

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/notefhir/pkg/config"
	"github.com/zatekoja/notefhir/pkg/retry"
)

func TestNewClient_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := newClient(context.Background(), &config.TypesenseConfig{URL: server.URL, APIKey: "xyz"}, retry.LookupConfig(1))
	require.NoError(t, err)
	assert.NotNil(t, client.Client())
}

func TestNewClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"ok":false}`))
	}))
	defer server.Close()

	cfg := retry.LookupConfig(2)
	cfg.InitialDelay = 0
	_, err := newClient(context.Background(), &config.TypesenseConfig{URL: server.URL, APIKey: "xyz"}, cfg)
	assert.Error(t, err)
}

func TestInitSchema_CreatesMissingCollection(t *testing.T) {
	var created int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/health":
			_, _ = w.Write([]byte(`{"ok":true}`))
		case r.URL.Path == "/collections" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[]`))
		case r.URL.Path == "/collections" && r.Method == http.MethodPost:
			atomic.AddInt32(&created, 1)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"name":"clinical_resources","num_documents":0,"created_at":0,"fields":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := newClient(context.Background(), &config.TypesenseConfig{URL: server.URL, APIKey: "xyz"}, retry.LookupConfig(1))
	require.NoError(t, err)
	require.NoError(t, client.InitSchema(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&created))
}

func TestInitSchema_ExistingCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/collections":
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = w.Write([]byte(`[{"name":"clinical_resources","num_documents":3,"created_at":0,"fields":[]}]`))
		}
	}))
	defer server.Close()

	client, err := newClient(context.Background(), &config.TypesenseConfig{URL: server.URL, APIKey: "xyz"}, retry.LookupConfig(1))
	require.NoError(t, err)
	require.NoError(t, client.InitSchema(context.Background()))
}
