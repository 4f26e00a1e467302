package ols

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/pkg/config"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := NewClient(&config.OntologyConfig{BaseURL: server.URL, MaxAttempts: 3, Rows: 5})
	c.retry.InitialDelay = 0
	return c
}

func TestAnnotate_ParsesDocsInOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "chest pain", r.URL.Query().Get("q"))
		assert.Equal(t, "snomed", r.URL.Query().Get("ontology"))
		assert.Equal(t, "5", r.URL.Query().Get("rows"))
		_, _ = w.Write([]byte(`{"response":{"numFound":2,"docs":[
			{"iri":"http://snomed.info/id/29857009","label":"Chest pain","obo_id":"SNOMED:29857009","short_form":"SNOMED_29857009"},
			{"iri":"http://snomed.info/id/102588006","label":"Chest wall pain","short_form":"SNOMED_102588006"}
		]}}`))
	})

	got, err := client.Annotate(context.Background(), "chest pain")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entities.OntologyAnnotation{OboID: "SNOMED:29857009", Label: "Chest pain", IRI: "http://snomed.info/id/29857009"}, got[0])
	assert.Equal(t, "SNOMED:102588006", got[1].OboID)
	assert.Equal(t, "102588006", got[1].Code())
}

func TestAnnotate_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"numFound":0,"docs":[]}}`))
	})

	got, err := client.Annotate(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = client.Annotate(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAnnotate_RetriesThenFails(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Annotate(context.Background(), "asthma")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAnnotate_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Annotate(context.Background(), "asthma")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAnnotate_BreakerOpens(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.retry.MaxAttempts = 1

	for i := 0; i < 5; i++ {
		_, _ = client.Annotate(context.Background(), "asthma")
	}
	_, err := client.Annotate(context.Background(), "asthma")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}
