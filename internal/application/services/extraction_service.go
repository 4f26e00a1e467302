package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/providers"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

// ResourceExporter ships freshly built records to downstream sinks and returns one
// message per failed delivery.
type ResourceExporter interface {
	Export(ctx context.Context, records []*entities.ResourceRecord) []string
}

// ExtractionService drives the model exchange for one note: a first exchange with tools
// attached and, when the model called tools, a second exchange for the final reply.
type ExtractionService struct {
	chat         providers.ChatProvider
	registry     *ToolRegistry
	systemPrompt string
	model        string
	exporter     ResourceExporter
	metrics      *observability.Metrics
}

// NewExtractionService creates a new extraction service.
func NewExtractionService(chat providers.ChatProvider, registry *ToolRegistry, systemPrompt, model string) *ExtractionService {
	return &ExtractionService{
		chat:         chat,
		registry:     registry,
		systemPrompt: systemPrompt,
		model:        model,
	}
}

// SetExporter installs the sink for built records.
func (s *ExtractionService) SetExporter(exporter ResourceExporter) {
	s.exporter = exporter
}

// SetMetrics enables extraction metrics.
func (s *ExtractionService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Registry returns the tool registry used on the first exchange.
func (s *ExtractionService) Registry() *ToolRegistry {
	return s.registry
}

// Extract processes one clinical note.
func (s *ExtractionService) Extract(ctx context.Context, note string) (*entities.ExtractionResult, error) {
	if strings.TrimSpace(note) == "" {
		return nil, apperrors.NewValidationError("note is required")
	}

	ctx, span := observability.StartSpan(ctx, "ExtractionService.Extract")
	defer span.End()

	start := time.Now()
	result := &entities.ExtractionResult{ID: uuid.NewString(), CreatedAt: start.UTC()}
	logger := observability.LoggerFromContext(ctx).With().Str("extraction_id", result.ID).Logger()

	err := s.run(ctx, note, result)
	result.Duration = time.Since(start)
	observability.RecordExtraction(ctx, s.metrics, s.chat.Name(), len(result.Resources), result.Duration, err)
	if err != nil {
		observability.RecordError(span, err)
		logger.Error().Err(err).Msg("extraction failed")
		return nil, err
	}

	observability.SetSpanAttributes(span,
		attribute.Int("extraction.tool_calls", len(result.ToolResults)),
		attribute.Int("extraction.resources", len(result.Resources)),
	)

	if s.exporter != nil && len(result.Resources) > 0 {
		result.ExportIssues = s.exporter.Export(ctx, result.Resources)
	}

	logger.Info().
		Int("tool_calls", len(result.ToolResults)).
		Int("resources", len(result.Resources)).
		Dur("duration", result.Duration).
		Msg("extraction completed")
	return result, nil
}

func (s *ExtractionService) run(ctx context.Context, note string, result *entities.ExtractionResult) error {
	transcript := []entities.Message{
		entities.SystemMessage(s.systemPrompt),
		entities.UserMessage(note),
	}

	first, err := s.complete(ctx, &entities.ChatRequest{
		Model:      s.model,
		Messages:   transcript,
		Tools:      s.registry.Tools(),
		ToolChoice: entities.ToolChoiceAuto,
	})
	if err != nil {
		return err
	}

	assistant := first.Message
	assistant.Role = entities.RoleAssistant
	transcript = append(transcript, assistant)

	if !assistant.HasToolCalls() {
		result.Message = assistant.Content
		result.Transcript = transcript
		return nil
	}

	for _, call := range assistant.ToolCalls {
		toolResult, record, err := s.dispatch(ctx, call)
		if err != nil {
			return err
		}
		result.ToolResults = append(result.ToolResults, toolResult)
		if record != nil {
			result.Resources = append(result.Resources, record)
		}
		transcript = append(transcript, entities.ToolResultMessage(call, toolResult.Content()))
	}

	second, err := s.complete(ctx, &entities.ChatRequest{
		Model:    s.model,
		Messages: transcript,
	})
	if err != nil {
		return err
	}
	final := second.Message
	final.Role = entities.RoleAssistant
	transcript = append(transcript, final)

	result.Message = final.Content
	result.Transcript = transcript
	return nil
}

func (s *ExtractionService) complete(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	ctx, span := observability.StartSpan(ctx, "ChatProvider.Complete")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("ai.provider", s.chat.Name()),
		attribute.Int("ai.messages", len(req.Messages)),
		attribute.Bool("ai.tools", len(req.Tools) > 0),
	)

	resp, err := s.chat.Complete(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		if apperrors.TypeOf(err) == "" {
			err = apperrors.NewExternalError("chat completion failed", err)
		}
		return nil, err
	}
	return resp, nil
}

// dispatch runs one tool call. Input errors are reported back to the model; anything else
// aborts the extraction.
func (s *ExtractionService) dispatch(ctx context.Context, call entities.ToolCall) (entities.ToolResult, *entities.ResourceRecord, error) {
	logger := observability.LoggerFromContext(ctx)
	start := time.Now()
	tr := entities.ToolResult{CallID: call.ID, Tool: call.Name}

	outcome, err := s.registry.DispatchCall(ctx, call)
	tr.Duration = time.Since(start).String()
	if err != nil {
		if !apperrors.IsToolInputError(err) {
			observability.RecordToolCall(ctx, s.metrics, call.Name, "failed")
			return tr, nil, err
		}
		logger.Warn().Err(err).Str("tool", call.Name).Str("call_id", call.ID).Msg("tool call rejected")
		observability.RecordToolCall(ctx, s.metrics, call.Name, "rejected")
		tr.Error = err.Error()
		return tr, nil, nil
	}

	tr.Status = outcome.Status
	tr.Issues = outcome.Issues
	if outcome.Record == nil {
		observability.RecordToolCall(ctx, s.metrics, call.Name, "not_added")
		return tr, nil, nil
	}
	tr.Record = outcome.Record.ID
	observability.RecordToolCall(ctx, s.metrics, call.Name, "added")
	return tr, outcome.Record, nil
}
