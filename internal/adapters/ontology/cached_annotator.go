// Package ontology decorates ontology annotators with caching.
package ontology

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/providers"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
)

const (
	cacheName       = "ontology"
	defaultCacheTTL = 24 * time.Hour
)

// CachedAnnotator serves repeated lookups from a CacheProvider. Cache failures are logged and
// never fail the lookup.
type CachedAnnotator struct {
	next      providers.OntologyAnnotator
	cache     providers.CacheProvider
	namespace string
	ttl       time.Duration
	metrics   *observability.Metrics
}

// NewCachedAnnotator wraps next. namespace separates entries of different ontologies.
func NewCachedAnnotator(next providers.OntologyAnnotator, cache providers.CacheProvider, namespace string, ttl time.Duration) *CachedAnnotator {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedAnnotator{
		next:      next,
		cache:     cache,
		namespace: namespace,
		ttl:       ttl,
	}
}

// SetMetrics enables cache hit/miss counters.
func (a *CachedAnnotator) SetMetrics(m *observability.Metrics) {
	a.metrics = m
}

// CacheKey normalises the query so case and surrounding whitespace share an entry.
func (a *CachedAnnotator) CacheKey(text string) string {
	return "ontology:" + a.namespace + ":" + strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Annotate implements providers.OntologyAnnotator.
func (a *CachedAnnotator) Annotate(ctx context.Context, text string) ([]entities.OntologyAnnotation, error) {
	logger := observability.LoggerFromContext(ctx)
	key := a.CacheKey(text)

	if raw, err := a.cache.Get(ctx, key); err == nil {
		var cached []entities.OntologyAnnotation
		if err := json.Unmarshal(raw, &cached); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, cacheName)
			return cached, nil
		}
		logger.Warn().Str("key", key).Msg("discarding unreadable ontology cache entry")
		_ = a.cache.Delete(ctx, key)
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		logger.Warn().Err(err).Str("key", key).Msg("ontology cache read failed")
	}
	observability.RecordCacheMiss(ctx, a.metrics, cacheName)

	annotations, err := a.next.Annotate(ctx, text)
	if err != nil {
		return nil, err
	}
	if annotations == nil {
		annotations = []entities.OntologyAnnotation{}
	}

	raw, err := json.Marshal(annotations)
	if err == nil {
		err = a.cache.Set(ctx, key, raw, a.ttl)
	}
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("ontology cache write failed")
	}
	return annotations, nil
}
