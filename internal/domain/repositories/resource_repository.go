package repositories

import (
	"context"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

// ResourceRepository defines the interface for extracted resource persistence
type ResourceRepository interface {
	// Save stores a record. Saving an existing ID is a no-op.
	Save(ctx context.Context, record *entities.ResourceRecord) error

	// GetByID retrieves a record by ID
	GetByID(ctx context.Context, id string) (*entities.ResourceRecord, error)

	// List retrieves records with filters, oldest first
	List(ctx context.Context, filter ResourceFilter) ([]*entities.ResourceRecord, error)
}

// ResourceFilter defines filters for listing resources
type ResourceFilter struct {
	Kind    entities.ResourceKind
	Code    string
	Subject string
	Limit   int
	Offset  int
}
