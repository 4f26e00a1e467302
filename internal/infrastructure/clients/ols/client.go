// Package ols queries the EBI Ontology Lookup Service for candidate ontology terms.
package ols

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	"github.com/zatekoja/notefhir/pkg/config"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
	"github.com/zatekoja/notefhir/pkg/retry"
)

const (
	defaultBaseURL  = "https://www.ebi.ac.uk/ols4/api"
	defaultOntology = "snomed"
	defaultRows     = 10
)

// Client implements providers.OntologyAnnotator against the OLS search API.
type Client struct {
	baseURL    string
	ontology   string
	rows       int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	retry      retry.Config
}

// NewClient creates a new OLS client.
func NewClient(cfg *config.OntologyConfig) *Client {
	baseURL := defaultBaseURL
	ontology := defaultOntology
	rows := defaultRows
	maxAttempts := 3
	if cfg != nil {
		if cfg.BaseURL != "" {
			baseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		if cfg.Ontology != "" {
			ontology = cfg.Ontology
		}
		if cfg.Rows > 0 {
			rows = cfg.Rows
		}
		if cfg.MaxAttempts > 0 {
			maxAttempts = cfg.MaxAttempts
		}
	}

	retryCfg := retry.LookupConfig(maxAttempts)
	retryCfg.ShouldRetry = isRetryable

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ols",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// a rejected query says nothing about service health
			var se *statusError
			return err == nil || (errors.As(err, &se) && se.code < 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Client{
		baseURL:    baseURL,
		ontology:   ontology,
		rows:       rows,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    breaker,
		retry:      retryCfg,
	}
}

type searchDoc struct {
	IRI          string `json:"iri"`
	Label        string `json:"label"`
	OboID        string `json:"obo_id"`
	ShortForm    string `json:"short_form"`
	OntologyName string `json:"ontology_name"`
}

type searchEnvelope struct {
	Response struct {
		NumFound int         `json:"numFound"`
		Docs     []searchDoc `json:"docs"`
	} `json:"response"`
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ols search failed with status %d", e.code)
}

func isRetryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}

// Annotate implements providers.OntologyAnnotator. Candidates keep the service's ranking.
func (c *Client) Annotate(ctx context.Context, text string) ([]entities.OntologyAnnotation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	ctx, span := observability.StartSpan(ctx, "OLS.Search")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("ontology.name", c.ontology),
		attribute.String("ontology.query", text),
	)

	var docs []searchDoc
	err := retry.DoWithLog(ctx, c.retry, "ols", func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.search(ctx, text)
		})
		if err != nil {
			return err
		}
		docs = result.([]searchDoc)
		return nil
	}, func(attempt int, err error, next time.Duration) {
		observability.LoggerFromContext(ctx).Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("ontology search failed, retrying")
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("ontology search failed", err)
	}

	annotations := make([]entities.OntologyAnnotation, 0, len(docs))
	for _, d := range docs {
		id := d.OboID
		if id == "" {
			id = strings.Replace(d.ShortForm, "_", ":", 1)
		}
		if id == "" {
			continue
		}
		annotations = append(annotations, entities.OntologyAnnotation{OboID: id, Label: d.Label, IRI: d.IRI})
	}
	observability.SetSpanAttributes(span, attribute.Int("ontology.candidates", len(annotations)))
	return annotations, nil
}

func (c *Client) search(ctx context.Context, text string) ([]searchDoc, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("ontology", c.ontology)
	q.Set("rows", strconv.Itoa(c.rows))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode ols response: %w", err)
	}
	return envelope.Response.Docs, nil
}
