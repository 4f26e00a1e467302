package fhirserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/pkg/config"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

func conditionRecord() *entities.ResourceRecord {
	return &entities.ResourceRecord{
		ID:   "c-1",
		Kind: entities.ResourceKindCondition,
		Resource: &entities.Condition{
			ResourceType: "Condition",
			ID:           "c-1",
			Code: entities.CodeableConcept{
				Coding: []entities.Coding{{System: entities.SNOMEDSystem, Code: "29857009", Display: "Chest pain"}},
				Text:   "chest pain",
			},
			Subject: entities.Reference{Reference: "Patient/1"},
		},
		ExtractedAt: time.Now(),
	}
}

func TestWrite_PostsResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fhir/Condition", r.URL.Path)
		assert.Equal(t, "application/fhir+json", r.Header.Get("Content-Type"))
		assert.Equal(t, "notefhir/test", r.Header.Get("User-Agent"))

		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "Condition", body["resourceType"])

		w.Header().Set("Location", "http://fhir.local/fhir/Condition/42/_history/1")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewClient(&config.FHIRConfig{APIBase: server.URL + "/fhir/", AppID: "test"})
	require.NoError(t, err)

	loc, err := client.Write(context.Background(), conditionRecord())
	require.NoError(t, err)
	assert.Equal(t, "http://fhir.local/fhir/Condition/42/_history/1", loc)
}

func TestWrite_LocationFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"resourceType":"Condition","id":"99"}`))
	}))
	defer server.Close()

	client, err := NewClient(&config.FHIRConfig{APIBase: server.URL})
	require.NoError(t, err)

	loc, err := client.Write(context.Background(), conditionRecord())
	require.NoError(t, err)
	assert.Equal(t, "Condition/99", loc)
}

func TestWrite_OperationOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/fhir+json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"resourceType":"OperationOutcome","issue":[{"severity":"error","code":"invalid","diagnostics":"subject is required"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(&config.FHIRConfig{APIBase: server.URL})
	require.NoError(t, err)

	_, err = client.Write(context.Background(), conditionRecord())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.Contains(t, err.Error(), "error: subject is required")
	assert.Contains(t, err.Error(), "status 422")
}

func TestNewClient_RequiresBase(t *testing.T) {
	_, err := NewClient(&config.FHIRConfig{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestNewClient_InvalidBase(t *testing.T) {
	_, err := NewClient(&config.FHIRConfig{APIBase: "fhir.local/fhir"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestWrite_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	client, err := NewClient(&config.FHIRConfig{APIBase: base})
	require.NoError(t, err)

	_, err = client.Write(context.Background(), conditionRecord())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}
