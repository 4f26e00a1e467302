package services

import (
	"context"
	"fmt"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/repositories"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100

	defaultReindexBatch = 500
)

// ResourceService exposes the accumulated resources and the optional stores behind them.
type ResourceService struct {
	results *ResultAccumulator
	repo    repositories.ResourceRepository
	search  repositories.ResourceSearchRepository
	export  *ResourceExportService
}

// NewResourceService creates a new resource service. repo, search and export may be nil.
func NewResourceService(
	results *ResultAccumulator,
	repo repositories.ResourceRepository,
	search repositories.ResourceSearchRepository,
	export *ResourceExportService,
) *ResourceService {
	return &ResourceService{
		results: results,
		repo:    repo,
		search:  search,
		export:  export,
	}
}

// List returns the accumulated records, optionally restricted to one kind.
func (s *ResourceService) List(kind string) ([]*entities.ResourceRecord, error) {
	if kind == "" {
		return s.results.Snapshot(), nil
	}
	k, err := entities.ParseResourceKind(kind)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return s.results.Filter(k), nil
}

// Bundle renders the accumulated records as a collection bundle.
func (s *ResourceService) Bundle(kind string) (*entities.Bundle, error) {
	records, err := s.List(kind)
	if err != nil {
		return nil, err
	}
	return entities.NewCollectionBundle(records), nil
}

// Get looks a record up in the accumulator, then in the database.
func (s *ResourceService) Get(ctx context.Context, id string) (*entities.ResourceRecord, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("resource ID is required")
	}
	for _, r := range s.results.Snapshot() {
		if r.ID == id {
			return r, nil
		}
	}
	if s.repo != nil {
		return s.repo.GetByID(ctx, id)
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("resource %s not found", id))
}

// History lists persisted records. It requires the database.
func (s *ResourceService) History(ctx context.Context, filter repositories.ResourceFilter) ([]*entities.ResourceRecord, error) {
	if s.repo == nil {
		return nil, apperrors.NewNotFoundError("resource history is not enabled")
	}
	return s.repo.List(ctx, filter)
}

// Reset empties the accumulator. Persisted and indexed copies are kept.
func (s *ResourceService) Reset(ctx context.Context) int {
	n := s.results.Reset()
	observability.LoggerFromContext(ctx).Info().Int("dropped", n).Msg("resources reset")
	if s.export != nil {
		if err := s.export.PublishReset(ctx); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to publish reset event")
		}
	}
	return n
}

// Search runs a full-text query against the search index.
func (s *ResourceService) Search(ctx context.Context, query, kind string, limit int) ([]*repositories.ResourceSearchHit, error) {
	if s.search == nil {
		return nil, apperrors.NewNotFoundError("resource search is not enabled")
	}
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	params := repositories.ResourceSearchParams{Query: query, Limit: limit}
	if kind != "" {
		k, err := entities.ParseResourceKind(kind)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		params.Kind = k
	}
	if params.Limit <= 0 {
		params.Limit = defaultSearchLimit
	}
	if params.Limit > maxSearchLimit {
		params.Limit = maxSearchLimit
	}
	return s.search.Search(ctx, params)
}

// ReindexSummary reports one reindex run.
type ReindexSummary struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// Reindex copies every persisted record into the search index, batchSize rows at a time.
// Records that fail to index are logged and counted; listing errors abort the run.
func (s *ResourceService) Reindex(ctx context.Context, batchSize int) (*ReindexSummary, error) {
	if s.repo == nil || s.search == nil {
		return nil, apperrors.NewValidationError("reindex needs both the database and the search index")
	}
	if batchSize <= 0 {
		batchSize = defaultReindexBatch
	}

	logger := observability.LoggerFromContext(ctx)
	summary := &ReindexSummary{}
	for offset := 0; ; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		records, err := s.repo.List(ctx, repositories.ResourceFilter{Limit: batchSize, Offset: offset})
		if err != nil {
			return summary, fmt.Errorf("list resources at offset %d: %w", offset, err)
		}
		for _, record := range records {
			if err := s.search.Index(ctx, record); err != nil {
				summary.Failed++
				logger.Warn().Err(err).Str("resource_id", record.ID).Msg("failed to index resource")
				continue
			}
			summary.Indexed++
		}
		if len(records) < batchSize {
			break
		}
	}

	logger.Info().Int("indexed", summary.Indexed).Int("failed", summary.Failed).Msg("reindex complete")
	return summary, nil
}
