package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	"github.com/zatekoja/notefhir/pkg/config"
	"github.com/zatekoja/notefhir/pkg/retry"
)

const (
	ResourcesCollection = "clinical_resources"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	return newClient(ctx, cfg, retry.DefaultConfig())
}

func newClient(ctx context.Context, cfg *config.TypesenseConfig, retryConfig retry.Config) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	logger := observability.LoggerFromContext(ctx)
	err := retry.DoWithLog(
		ctx,
		retryConfig,
		"Typesense",
		func() error {
			healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			ok, err := client.Health(healthCtx, 2*time.Second)
			if err == nil && !ok {
				err = fmt.Errorf("typesense reported unhealthy")
			}
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	logger.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the clinical_resources collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	logger := observability.LoggerFromContext(ctx)
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == ResourcesCollection {
			logger.Debug().Str("collection", ResourcesCollection).Msg("Typesense collection already exists")
			return nil
		}
	}

	schema := &api.CollectionSchema{
		Name: ResourcesCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "kind", Type: "string", Facet: pointer.True()},
			{Name: "code", Type: "string", Facet: pointer.True()},
			{Name: "display", Type: "string"},
			{Name: "text", Type: "string", Optional: pointer.True()},
			{Name: "subject", Type: "string", Facet: pointer.True()},
			{Name: "extracted_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("extracted_at"),
	}

	if _, err := c.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	logger.Info().Str("collection", ResourcesCollection).Msg("created Typesense collection")
	return nil
}
