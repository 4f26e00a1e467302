package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/providers"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

// DefaultSubjectReference is the patient every extracted resource refers to.
const DefaultSubjectReference = "Patient/1"

// BuildOutcome reports what a build call did.
type BuildOutcome struct {
	Kind   entities.ResourceKind `json:"kind"`
	Status string                `json:"status"`
	// Record is nil when no ontology code matched.
	Record *entities.ResourceRecord `json:"record,omitempty"`
	Issues []entities.FieldIssue    `json:"issues,omitempty"`
}

// Added reports whether a record was appended.
func (o *BuildOutcome) Added() bool {
	return o.Record != nil
}

// ResourceBuilder turns tool-call parameters into coded clinical resources and appends them
// to its accumulator.
type ResourceBuilder struct {
	annotator providers.OntologyAnnotator
	results   *ResultAccumulator
	subject   string
	now       func() time.Time
	newID     func() string
}

// NewResourceBuilder creates a builder. An empty subject falls back to DefaultSubjectReference.
func NewResourceBuilder(annotator providers.OntologyAnnotator, results *ResultAccumulator, subject string) *ResourceBuilder {
	if results == nil {
		results = NewResultAccumulator()
	}
	if subject == "" {
		subject = DefaultSubjectReference
	}
	return &ResourceBuilder{
		annotator: annotator,
		results:   results,
		subject:   subject,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Results returns the accumulator the builder appends to.
func (b *ResourceBuilder) Results() *ResultAccumulator {
	return b.results
}

// BuildCondition builds a Condition from extract_fhir_condition arguments.
func (b *ResourceBuilder) BuildCondition(ctx context.Context, set entities.ParameterSet) (*BuildOutcome, error) {
	params, issues, err := entities.DecodeCondition(set)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, entities.ResourceKindCondition, params.Condition, issues,
		func(id string, code entities.CodeableConcept, subject entities.Reference) entities.Resource {
			return newCondition(id, code, subject, params)
		})
}

// BuildMedicationStatement builds a MedicationStatement from
// extract_fhir_medication_statement arguments.
func (b *ResourceBuilder) BuildMedicationStatement(ctx context.Context, set entities.ParameterSet) (*BuildOutcome, error) {
	params, issues, err := entities.DecodeMedicationStatement(set)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, entities.ResourceKindMedicationStatement, params.MedicationStatement, issues,
		func(id string, code entities.CodeableConcept, subject entities.Reference) entities.Resource {
			return newMedicationStatement(id, code, subject, params)
		})
}

// BuildProcedure builds a Procedure from extract_fhir_procedure arguments.
func (b *ResourceBuilder) BuildProcedure(ctx context.Context, set entities.ParameterSet) (*BuildOutcome, error) {
	params, issues, err := entities.DecodeProcedure(set)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, entities.ResourceKindProcedure, params.Procedure, issues,
		func(id string, code entities.CodeableConcept, subject entities.Reference) entities.Resource {
			return newProcedure(id, code, subject, params)
		})
}

type assembleFunc func(id string, code entities.CodeableConcept, subject entities.Reference) entities.Resource

func (b *ResourceBuilder) build(ctx context.Context, kind entities.ResourceKind, text string, issues []entities.FieldIssue, assemble assembleFunc) (*BuildOutcome, error) {
	ctx, span := observability.StartSpan(ctx, "ResourceBuilder.Build")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("resource.kind", string(kind)))

	logger := observability.LoggerFromContext(ctx)

	candidates, err := b.annotator.Annotate(ctx, text)
	if err != nil {
		observability.RecordError(span, err)
		if apperrors.TypeOf(err) == "" {
			err = apperrors.NewExternalError("ontology lookup failed", err)
		}
		return nil, err
	}
	if len(candidates) == 0 {
		logger.Info().Str("kind", string(kind)).Str("text", text).Msg("no ontology code found")
		return &BuildOutcome{Kind: kind, Status: kind.NotAddedStatus()}, nil
	}

	best := candidates[0]
	code := entities.CodeableConcept{
		Coding: []entities.Coding{best.Coding()},
		Text:   text,
	}
	id := b.newID()
	record := &entities.ResourceRecord{
		ID:          id,
		Kind:        kind,
		Resource:    assemble(id, code, entities.Reference{Reference: b.subject}),
		Tool:        string(ToolNameForKind(kind)),
		ExtractedAt: b.now().UTC(),
	}

	for _, issue := range issues {
		logger.Warn().
			Str("kind", string(kind)).
			Str("field", issue.Field).
			Str("reason", issue.Reason).
			Msg("optional field skipped")
	}

	b.results.Append(record)
	observability.SetSpanAttributes(span,
		attribute.String("resource.id", id),
		attribute.String("resource.code", record.Code()),
	)
	logger.Info().
		Str("kind", string(kind)).
		Str("id", id).
		Str("code", record.Code()).
		Str("display", record.Display()).
		Msg("resource added")

	return &BuildOutcome{Kind: kind, Status: kind.AddedStatus(), Record: record, Issues: issues}, nil
}
