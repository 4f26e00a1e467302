package providers

import (
	"context"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

// ResourceWriter stores a resource on a remote clinical data server and returns the
// server-assigned location.
type ResourceWriter interface {
	Write(ctx context.Context, record *entities.ResourceRecord) (string, error)
}
