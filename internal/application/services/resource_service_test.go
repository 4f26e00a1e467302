package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/providers"
	"github.com/zatekoja/notefhir/internal/domain/repositories"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

func seededAccumulator() *ResultAccumulator {
	acc := NewResultAccumulator()
	acc.Append(sampleRecord("c1", entities.ResourceKindCondition))
	acc.Append(&entities.ResourceRecord{ID: "p1", Kind: entities.ResourceKindProcedure, Resource: &entities.Procedure{ResourceType: "Procedure", ID: "p1"}})
	return acc
}

func TestResourceService_ListAndBundle(t *testing.T) {
	svc := NewResourceService(seededAccumulator(), nil, nil, nil)

	all, err := svc.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	procs, err := svc.List("Procedure")
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, "p1", procs[0].ID)

	_, err = svc.List("Observation")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	bundle, err := svc.Bundle("")
	require.NoError(t, err)
	assert.Equal(t, "Bundle", bundle.ResourceType)
	assert.Len(t, bundle.Entry, 2)
	assert.Equal(t, "urn:uuid:c1", bundle.Entry[0].FullURL)
}

func TestResourceService_GetFallsBackToRepository(t *testing.T) {
	repo := new(MockResourceRepo)
	stored := sampleRecord("old", entities.ResourceKindCondition)
	repo.On("GetByID", mock.Anything, "old").Return(stored, nil)

	svc := NewResourceService(seededAccumulator(), repo, nil, nil)

	got, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)

	got, err = svc.Get(context.Background(), "old")
	require.NoError(t, err)
	assert.Same(t, stored, got)
}

func TestResourceService_GetNotFoundWithoutRepository(t *testing.T) {
	svc := NewResourceService(seededAccumulator(), nil, nil, nil)
	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestResourceService_ResetPublishesEvent(t *testing.T) {
	bus := new(MockEventBus)
	bus.On("Publish", mock.Anything, providers.EventChannelResourcesExtracted, mock.MatchedBy(func(e *entities.ResourceEvent) bool {
		return e.EventType == entities.ResourceEventTypeReset
	})).Return(nil)
	acc := seededAccumulator()
	svc := NewResourceService(acc, nil, nil, NewResourceExportService(nil, nil, bus, nil))

	assert.Equal(t, 2, svc.Reset(context.Background()))
	assert.Equal(t, 0, acc.Len())
	bus.AssertExpectations(t)
}

func TestResourceService_Search(t *testing.T) {
	search := new(MockSearchRepo)
	hits := []*repositories.ResourceSearchHit{{ID: "c1", Display: "Chest pain"}}
	search.On("Search", mock.Anything, repositories.ResourceSearchParams{Query: "chest", Kind: entities.ResourceKindCondition, Limit: 100}).Return(hits, nil)

	svc := NewResourceService(NewResultAccumulator(), nil, search, nil)
	got, err := svc.Search(context.Background(), "chest", "Condition", 500)
	require.NoError(t, err)
	assert.Equal(t, hits, got)

	_, err = svc.Search(context.Background(), "", "", 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestResourceService_SearchDisabled(t *testing.T) {
	svc := NewResourceService(NewResultAccumulator(), nil, nil, nil)
	_, err := svc.Search(context.Background(), "chest", "", 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestResourceService_Reindex(t *testing.T) {
	repo := new(MockResourceRepo)
	search := new(MockSearchRepo)

	first := []*entities.ResourceRecord{
		sampleRecord("r1", entities.ResourceKindCondition),
		sampleRecord("r2", entities.ResourceKindCondition),
	}
	second := []*entities.ResourceRecord{sampleRecord("r3", entities.ResourceKindCondition)}
	repo.On("List", mock.Anything, repositories.ResourceFilter{Limit: 2, Offset: 0}).Return(first, nil)
	repo.On("List", mock.Anything, repositories.ResourceFilter{Limit: 2, Offset: 2}).Return(second, nil)

	search.On("Index", mock.Anything, first[0]).Return(nil)
	search.On("Index", mock.Anything, first[1]).Return(assert.AnError)
	search.On("Index", mock.Anything, second[0]).Return(nil)

	svc := NewResourceService(NewResultAccumulator(), repo, search, nil)
	summary, err := svc.Reindex(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, &ReindexSummary{Indexed: 2, Failed: 1}, summary)
	repo.AssertExpectations(t)
}

func TestResourceService_ReindexRequiresStores(t *testing.T) {
	svc := NewResourceService(NewResultAccumulator(), new(MockResourceRepo), nil, nil)
	_, err := svc.Reindex(context.Background(), 10)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestResourceService_ReindexListError(t *testing.T) {
	repo := new(MockResourceRepo)
	repo.On("List", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	svc := NewResourceService(NewResultAccumulator(), repo, new(MockSearchRepo), nil)
	_, err := svc.Reindex(context.Background(), 0)
	assert.ErrorIs(t, err, assert.AnError)
}
