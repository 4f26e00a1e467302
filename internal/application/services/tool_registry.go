package services

import (
	"context"
	"fmt"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

// ToolName is one of the extraction tools the model may call.
type ToolName string

const (
	ToolExtractCondition           ToolName = "extract_fhir_condition"
	ToolExtractMedicationStatement ToolName = "extract_fhir_medication_statement"
	ToolExtractProcedure           ToolName = "extract_fhir_procedure"
)

// ToolNames lists every known tool.
var ToolNames = []ToolName{
	ToolExtractCondition,
	ToolExtractMedicationStatement,
	ToolExtractProcedure,
}

// ParseToolName resolves an exact tool name.
func ParseToolName(s string) (ToolName, bool) {
	for _, n := range ToolNames {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

// Kind returns the resource kind a tool builds.
func (n ToolName) Kind() entities.ResourceKind {
	switch n {
	case ToolExtractCondition:
		return entities.ResourceKindCondition
	case ToolExtractMedicationStatement:
		return entities.ResourceKindMedicationStatement
	case ToolExtractProcedure:
		return entities.ResourceKindProcedure
	}
	return ""
}

// ToolNameForKind returns the tool that builds a resource kind.
func ToolNameForKind(kind entities.ResourceKind) ToolName {
	switch kind {
	case entities.ResourceKindCondition:
		return ToolExtractCondition
	case entities.ResourceKindMedicationStatement:
		return ToolExtractMedicationStatement
	case entities.ResourceKindProcedure:
		return ToolExtractProcedure
	}
	return ""
}

// ToolHandler builds a resource from tool-call parameters.
type ToolHandler func(ctx context.Context, set entities.ParameterSet) (*BuildOutcome, error)

// ToolRegistry holds the tool descriptors offered to the model and routes calls to the
// resource builder.
type ToolRegistry struct {
	descriptors []entities.ToolDescriptor
	handlers    map[ToolName]ToolHandler
}

// NewToolRegistry validates descriptors against the known tools. Only described tools can
// be dispatched.
func NewToolRegistry(builder *ResourceBuilder, descriptors []entities.ToolDescriptor) (*ToolRegistry, error) {
	if builder == nil {
		return nil, fmt.Errorf("resource builder is required")
	}
	if len(descriptors) == 0 {
		return nil, apperrors.NewValidationError("at least one tool descriptor is required")
	}

	all := map[ToolName]ToolHandler{
		ToolExtractCondition:           builder.BuildCondition,
		ToolExtractMedicationStatement: builder.BuildMedicationStatement,
		ToolExtractProcedure:           builder.BuildProcedure,
	}

	r := &ToolRegistry{handlers: make(map[ToolName]ToolHandler, len(descriptors))}
	for _, d := range descriptors {
		if d.Type != "" && d.Type != "function" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("tool %q: unsupported type %q", d.Name(), d.Type))
		}
		name, ok := ParseToolName(d.Name())
		if !ok {
			return nil, apperrors.NewUnknownToolError(d.Name())
		}
		if _, dup := r.handlers[name]; dup {
			return nil, apperrors.NewConflictError(fmt.Sprintf("tool %q described twice", name))
		}
		if d.Type == "" {
			d.Type = "function"
		}
		r.handlers[name] = all[name]
		r.descriptors = append(r.descriptors, d)
	}
	return r, nil
}

// Tools returns the descriptors in configuration order.
func (r *ToolRegistry) Tools() []entities.ToolDescriptor {
	out := make([]entities.ToolDescriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Has reports whether a tool can be dispatched.
func (r *ToolRegistry) Has(name string) bool {
	n, ok := ParseToolName(name)
	if !ok {
		return false
	}
	_, ok = r.handlers[n]
	return ok
}

// Dispatch routes a call by exact name. Unknown or undescribed tools yield UNKNOWN_TOOL.
func (r *ToolRegistry) Dispatch(ctx context.Context, name string, set entities.ParameterSet) (*BuildOutcome, error) {
	n, ok := ParseToolName(name)
	if !ok {
		return nil, apperrors.NewUnknownToolError(name)
	}
	handler, ok := r.handlers[n]
	if !ok {
		return nil, apperrors.NewUnknownToolError(name)
	}
	if set == nil {
		set = entities.ParameterSet{}
	}
	return handler(ctx, set)
}

// DispatchCall decodes the JSON arguments of a model tool call and dispatches it.
func (r *ToolRegistry) DispatchCall(ctx context.Context, call entities.ToolCall) (*BuildOutcome, error) {
	if !r.Has(call.Name) {
		return nil, apperrors.NewUnknownToolError(call.Name)
	}
	set, err := entities.ParseParameterSet(call.Arguments)
	if err != nil {
		return nil, err
	}
	return r.Dispatch(ctx, call.Name, set)
}
