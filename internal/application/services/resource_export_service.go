package services

import (
	"context"
	"fmt"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/providers"
	"github.com/zatekoja/notefhir/internal/domain/repositories"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
)

// ResourceExportService delivers built records to every configured sink. Any sink may be
// nil. Failures are logged and returned; they never affect the accumulator.
type ResourceExportService struct {
	repo   repositories.ResourceRepository
	search repositories.ResourceSearchRepository
	events providers.EventBus
	writer providers.ResourceWriter
}

// NewResourceExportService creates a new export service.
func NewResourceExportService(
	repo repositories.ResourceRepository,
	search repositories.ResourceSearchRepository,
	events providers.EventBus,
	writer providers.ResourceWriter,
) *ResourceExportService {
	return &ResourceExportService{
		repo:   repo,
		search: search,
		events: events,
		writer: writer,
	}
}

// Enabled reports whether at least one sink is configured.
func (s *ResourceExportService) Enabled() bool {
	return s.repo != nil || s.search != nil || s.events != nil || s.writer != nil
}

// Export implements ResourceExporter.
func (s *ResourceExportService) Export(ctx context.Context, records []*entities.ResourceRecord) []string {
	logger := observability.LoggerFromContext(ctx)
	var issues []string
	fail := func(sink string, record *entities.ResourceRecord, err error) {
		logger.Error().Err(err).Str("sink", sink).Str("resource_id", record.ID).Msg("resource export failed")
		issues = append(issues, fmt.Sprintf("%s: %s %s: %v", sink, record.Kind, record.ID, err))
	}

	for _, record := range records {
		if s.repo != nil {
			if err := s.repo.Save(ctx, record); err != nil {
				fail("database", record, err)
			}
		}
		if s.search != nil {
			if err := s.search.Index(ctx, record); err != nil {
				fail("search", record, err)
			}
		}
		if s.writer != nil {
			location, err := s.writer.Write(ctx, record)
			if err != nil {
				fail("fhir", record, err)
			} else {
				logger.Debug().Str("resource_id", record.ID).Str("location", location).Msg("resource written to FHIR server")
			}
		}
		if s.events != nil {
			event := entities.NewResourceExtractedEvent(record)
			if err := s.publish(ctx, event, providers.EventChannelResourcesExtracted, providers.GetKindChannel(record.Kind)); err != nil {
				fail("events", record, err)
			}
		}
	}
	return issues
}

// PublishReset announces that the accumulator was emptied.
func (s *ResourceExportService) PublishReset(ctx context.Context) error {
	if s.events == nil {
		return nil
	}
	return s.publish(ctx, entities.NewResourcesResetEvent(), providers.EventChannelResourcesExtracted)
}

func (s *ResourceExportService) publish(ctx context.Context, event *entities.ResourceEvent, channels ...string) error {
	for _, ch := range channels {
		if err := s.events.Publish(ctx, ch, event); err != nil {
			return err
		}
	}
	return nil
}
