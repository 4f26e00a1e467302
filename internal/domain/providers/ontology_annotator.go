package providers

import (
	"context"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

// OntologyAnnotator maps free text to ranked ontology candidates, best match first.
// An empty slice with a nil error means nothing matched.
type OntologyAnnotator interface {
	Annotate(ctx context.Context, text string) ([]entities.OntologyAnnotation, error)
}
