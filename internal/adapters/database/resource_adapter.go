package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/repositories"
	"github.com/zatekoja/notefhir/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

const resourcesTable = "clinical_resources"

// ResourceSchema creates the clinical_resources table.
const ResourceSchema = `
CREATE TABLE IF NOT EXISTS clinical_resources (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	code         TEXT NOT NULL DEFAULT '',
	display      TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL DEFAULT '',
	tool         TEXT NOT NULL DEFAULT '',
	resource     JSONB NOT NULL,
	extracted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clinical_resources_kind ON clinical_resources (kind);
CREATE INDEX IF NOT EXISTS idx_clinical_resources_code ON clinical_resources (code);
CREATE INDEX IF NOT EXISTS idx_clinical_resources_subject ON clinical_resources (subject);
`

var resourceColumns = []interface{}{"id", "kind", "tool", "resource", "extracted_at"}

// ResourceAdapter implements ResourceRepository on PostgreSQL
type ResourceAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewResourceAdapter creates a new resource adapter
func NewResourceAdapter(client *postgres.Client) *ResourceAdapter {
	return &ResourceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.ResourceRepository = (*ResourceAdapter)(nil)

// SetMetrics enables query duration metrics.
func (a *ResourceAdapter) SetMetrics(m *observability.Metrics) {
	a.metrics = m
}

// EnsureSchema creates the backing table and indexes if they do not exist.
func (a *ResourceAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, ResourceSchema); err != nil {
		return apperrors.NewInternalError("failed to create clinical_resources schema", err)
	}
	return nil
}

// Save stores a record. Saving an existing ID is a no-op.
func (a *ResourceAdapter) Save(ctx context.Context, record *entities.ResourceRecord) error {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "resource.save", time.Since(start)) }()

	body, err := json.Marshal(record.Resource)
	if err != nil {
		return apperrors.NewInternalError("failed to encode resource", err)
	}

	row := goqu.Record{
		"id":           record.ID,
		"kind":         string(record.Kind),
		"code":         record.Code(),
		"display":      record.Display(),
		"subject":      record.Resource.SubjectReference(),
		"tool":         record.Tool,
		"resource":     string(body),
		"extracted_at": record.ExtractedAt.UTC(),
	}

	query, args, err := a.db.Insert(resourcesTable).
		Prepared(true).
		Rows(row).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save resource", err)
	}
	return nil
}

// GetByID retrieves a record by ID
func (a *ResourceAdapter) GetByID(ctx context.Context, id string) (*entities.ResourceRecord, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "resource.get", time.Since(start)) }()

	query, args, err := a.db.From(resourcesTable).
		Prepared(true).
		Select(resourceColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	record, err := scanRecord(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("resource not found: " + id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get resource", err)
	}
	return record, nil
}

// List retrieves records with filters, oldest first
func (a *ResourceAdapter) List(ctx context.Context, filter repositories.ResourceFilter) ([]*entities.ResourceRecord, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "resource.list", time.Since(start)) }()

	where := goqu.Ex{}
	if filter.Kind != "" {
		where["kind"] = string(filter.Kind)
	}
	if filter.Code != "" {
		where["code"] = filter.Code
	}
	if filter.Subject != "" {
		where["subject"] = filter.Subject
	}

	ds := a.db.From(resourcesTable).
		Prepared(true).
		Select(resourceColumns...).
		Order(goqu.C("extracted_at").Asc(), goqu.C("id").Asc())
	if len(where) > 0 {
		ds = ds.Where(where)
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list resources", err)
	}
	defer rows.Close()

	records := make([]*entities.ResourceRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan resource", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate resources", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*entities.ResourceRecord, error) {
	var (
		record entities.ResourceRecord
		kind   string
		body   []byte
	)
	if err := row.Scan(&record.ID, &kind, &record.Tool, &body, &record.ExtractedAt); err != nil {
		return nil, err
	}
	record.Kind = entities.ResourceKind(kind)
	res, err := entities.DecodeResource(record.Kind, body)
	if err != nil {
		return nil, err
	}
	record.Resource = res
	return &record, nil
}
