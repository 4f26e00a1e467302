package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/repositories"
	tsclient "github.com/zatekoja/notefhir/internal/infrastructure/clients/typesense"
)

const (
	collectionName = tsclient.ResourcesCollection
	queryBy        = "display,text,code"
	maxPerPage     = 250
)

// TypesenseAdapter implements resource search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements ResourceSearchRepository
var _ repositories.ResourceSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts a record
func (a *TypesenseAdapter) Index(ctx context.Context, record *entities.ResourceRecord) error {
	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, buildResourceDocument(record))
	if err != nil {
		return fmt.Errorf("failed to index resource: %w", err)
	}
	return nil
}

// Delete removes a record from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete resource from index: %w", err)
	}
	return nil
}

// Search runs a text query, optionally restricted to one kind
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.ResourceSearchParams) ([]*repositories.ResourceSearchHit, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > maxPerPage {
		limit = maxPerPage
	}
	q := strings.TrimSpace(params.Query)
	if q == "" {
		q = "*"
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String(queryBy),
		Page:    pointer.Int(1),
		PerPage: pointer.Int(limit),
	}
	if params.Kind != "" {
		searchParams.FilterBy = pointer.String("kind:=" + string(params.Kind))
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search resources: %w", err)
	}

	hits := []*repositories.ResourceSearchHit{}
	if result.Hits == nil {
		return hits, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		h := documentToHit(*hit.Document)
		if hit.TextMatch != nil {
			h.Score = float64(*hit.TextMatch)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func buildResourceDocument(record *entities.ResourceRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":           record.ID,
		"kind":         string(record.Kind),
		"code":         record.Code(),
		"display":      record.Display(),
		"text":         record.Resource.PrimaryConcept().Text,
		"subject":      record.Resource.SubjectReference(),
		"extracted_at": record.ExtractedAt.Unix(),
	}
}

func documentToHit(doc map[string]interface{}) *repositories.ResourceSearchHit {
	str := func(key string) string {
		s, _ := doc[key].(string)
		return s
	}
	return &repositories.ResourceSearchHit{
		ID:      str("id"),
		Kind:    entities.ResourceKind(str("kind")),
		Code:    str("code"),
		Display: str("display"),
		Text:    str("text"),
		Subject: str("subject"),
	}
}
