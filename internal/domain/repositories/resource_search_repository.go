package repositories

import (
	"context"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

// ResourceSearchRepository defines full-text search over extracted resources
type ResourceSearchRepository interface {
	// Index adds or replaces a record in the search index
	Index(ctx context.Context, record *entities.ResourceRecord) error

	// Search returns the best matching records for a free-text query
	Search(ctx context.Context, params ResourceSearchParams) ([]*ResourceSearchHit, error)
}

// ResourceSearchParams defines search parameters
type ResourceSearchParams struct {
	Query string
	Kind  entities.ResourceKind
	Limit int
}

// ResourceSearchHit is a single search match
type ResourceSearchHit struct {
	ID      string                `json:"id"`
	Kind    entities.ResourceKind `json:"kind"`
	Code    string                `json:"code"`
	Display string                `json:"display"`
	Text    string                `json:"text"`
	Subject string                `json:"subject"`
	Score   float64               `json:"score"`
}
