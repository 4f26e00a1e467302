package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/notefhir/internal/application/services"
	"github.com/zatekoja/notefhir/internal/application/services/tooldefs"
	"github.com/zatekoja/notefhir/internal/domain/entities"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, note string) (*entities.ExtractionResult, error) {
	args := m.Called(ctx, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ExtractionResult), args.Error(1)
}

type MockAnnotator struct {
	mock.Mock
}

func (m *MockAnnotator) Annotate(ctx context.Context, text string) ([]entities.OntologyAnnotation, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.OntologyAnnotation), args.Error(1)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, records []*entities.ResourceRecord) []string {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func newRegistry(t *testing.T, annotator *MockAnnotator) (*services.ResourceBuilder, *services.ToolRegistry) {
	t.Helper()
	builder := services.NewResourceBuilder(annotator, services.NewResultAccumulator(), "")
	descriptors, err := tooldefs.Default()
	require.NoError(t, err)
	registry, err := services.NewToolRegistry(builder, descriptors)
	require.NoError(t, err)
	return builder, registry
}
