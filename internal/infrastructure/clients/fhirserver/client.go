// Package fhirserver writes built resources to a downstream FHIR REST server.
package fhirserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	fhirclient "github.com/SanteonNL/go-fhir-client"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	"github.com/zatekoja/notefhir/pkg/config"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

const maxDiagnosticsBody = 1 << 20

// Client creates resources with FHIR "create" interactions.
type Client struct {
	fhir fhirclient.Client
}

// NewClient creates a new FHIR server client.
func NewClient(cfg *config.FHIRConfig) (*Client, error) {
	if cfg == nil || cfg.APIBase == "" {
		return nil, apperrors.NewValidationError("fhir api base is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.APIBase, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid fhir api base %q", cfg.APIBase))
	}
	ua := "notefhir"
	if cfg.AppID != "" {
		ua += "/" + cfg.AppID
	}
	doer := &outcomeDoer{
		next:      &http.Client{Timeout: 15 * time.Second},
		userAgent: ua,
	}
	fhirConfig := fhirclient.DefaultConfig()
	return &Client{fhir: fhirclient.New(base, doer, &fhirConfig)}, nil
}

type createdResource struct {
	ID string `json:"id"`
}

// Write implements providers.ResourceWriter. It returns the server's location for the new
// resource, falling back to {type}/{id} from the response body.
func (c *Client) Write(ctx context.Context, record *entities.ResourceRecord) (string, error) {
	ctx, span := observability.StartSpan(ctx, "FHIR.Create")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("fhir.resource_type", string(record.Kind)))

	exchange := &exchange{}
	ctx = context.WithValue(ctx, exchangeKey{}, exchange)

	var created createdResource
	err := c.fhir.CreateWithContext(ctx, record.Resource, &created, fhirclient.AtPath(string(record.Kind)))
	if err != nil {
		if exchange.status != 0 && (exchange.status < 200 || exchange.status >= 300) {
			err = fmt.Errorf("status %d: %s", exchange.status, exchange.diagnostics)
			observability.RecordError(span, err)
			return "", apperrors.NewExternalError("fhir server rejected "+string(record.Kind), err)
		}
		if exchange.status == 0 {
			observability.RecordError(span, err)
			return "", apperrors.NewExternalError("fhir server request failed", err)
		}
		// Created, but the response body was empty or not a resource.
		observability.LoggerFromContext(ctx).Debug().Err(err).Str("kind", string(record.Kind)).
			Msg("fhir create response body not decoded")
	}

	if exchange.location != "" {
		return exchange.location, nil
	}
	if created.ID != "" {
		return string(record.Kind) + "/" + created.ID, nil
	}
	return "", nil
}

type exchangeKey struct{}

// exchange records what the server answered for one Write.
type exchange struct {
	status      int
	location    string
	diagnostics string
}

// outcomeDoer sets the user agent and records status, location and OperationOutcome
// diagnostics for the exchange stored in the request context.
type outcomeDoer struct {
	next      *http.Client
	userAgent string
}

func (d *outcomeDoer) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Prefer", "return=representation")
	resp, err := d.next.Do(req)
	if err != nil {
		return nil, err
	}
	ex, ok := req.Context().Value(exchangeKey{}).(*exchange)
	if !ok {
		return resp, nil
	}
	ex.status = resp.StatusCode
	ex.location = resp.Header.Get("Location")
	if ex.location == "" {
		ex.location = resp.Header.Get("Content-Location")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, readErr := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticsBody))
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		ex.diagnostics = diagnostics(payload)
		resp.Body = io.NopCloser(bytes.NewReader(payload))
	}
	return resp, nil
}

type operationOutcome struct {
	ResourceType string `json:"resourceType"`
	Issue        []struct {
		Severity    string `json:"severity"`
		Code        string `json:"code"`
		Diagnostics string `json:"diagnostics"`
	} `json:"issue"`
}

func diagnostics(payload []byte) string {
	var outcome operationOutcome
	if err := json.Unmarshal(payload, &outcome); err == nil && outcome.ResourceType == "OperationOutcome" {
		parts := make([]string, 0, len(outcome.Issue))
		for _, issue := range outcome.Issue {
			text := issue.Diagnostics
			if text == "" {
				text = issue.Code
			}
			parts = append(parts, issue.Severity+": "+text)
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	text := strings.TrimSpace(string(payload))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
