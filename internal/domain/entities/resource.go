package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResourceKind identifies one of the supported clinical resource types.
type ResourceKind string

const (
	ResourceKindCondition           ResourceKind = "Condition"
	ResourceKindMedicationStatement ResourceKind = "MedicationStatement"
	ResourceKindProcedure           ResourceKind = "Procedure"
)

// ResourceKinds lists every supported kind in a stable order.
var ResourceKinds = []ResourceKind{
	ResourceKindCondition,
	ResourceKindMedicationStatement,
	ResourceKindProcedure,
}

// ParseResourceKind resolves a resourceType string.
func ParseResourceKind(s string) (ResourceKind, error) {
	for _, k := range ResourceKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unsupported resource kind %q", s)
}

// Label is the human readable name used in status messages.
func (k ResourceKind) Label() string {
	switch k {
	case ResourceKindMedicationStatement:
		return "Medication statement"
	default:
		return string(k)
	}
}

// AddedStatus is the status reported after a record was built.
func (k ResourceKind) AddedStatus() string {
	return k.Label() + " was added"
}

// NotAddedStatus is the status reported when no ontology code matched.
func (k ResourceKind) NotAddedStatus() string {
	return k.Label() + " was not added because code was not found"
}

// Resource is a FHIR-shaped clinical resource.
type Resource interface {
	Kind() ResourceKind
	ResourceID() string
	// PrimaryConcept is the mandatory coded concept of the resource.
	PrimaryConcept() CodeableConcept
	SubjectReference() string
}

// ResourceRecord is an extracted resource together with extraction metadata. Records are
// immutable once appended to an accumulator.
type ResourceRecord struct {
	ID          string       `json:"id"`
	Kind        ResourceKind `json:"kind"`
	Resource    Resource     `json:"resource"`
	Tool        string       `json:"tool,omitempty"`
	ExtractedAt time.Time    `json:"extracted_at"`
}

// UnmarshalJSON decodes the resource body according to the record kind.
func (r *ResourceRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"id"`
		Kind        ResourceKind    `json:"kind"`
		Resource    json.RawMessage `json:"resource"`
		Tool        string          `json:"tool,omitempty"`
		ExtractedAt time.Time       `json:"extracted_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	res, err := DecodeResource(raw.Kind, raw.Resource)
	if err != nil {
		return err
	}
	*r = ResourceRecord{ID: raw.ID, Kind: raw.Kind, Resource: res, Tool: raw.Tool, ExtractedAt: raw.ExtractedAt}
	return nil
}

// Display returns the display of the primary coding, if any.
func (r *ResourceRecord) Display() string {
	concept := r.Resource.PrimaryConcept()
	if len(concept.Coding) > 0 {
		return concept.Coding[0].Display
	}
	return ""
}

// Code returns the primary code, if any.
func (r *ResourceRecord) Code() string {
	concept := r.Resource.PrimaryConcept()
	if len(concept.Coding) > 0 {
		return concept.Coding[0].Code
	}
	return ""
}

// FieldIssue describes an optional field that was present but could not be mapped.
type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (i FieldIssue) String() string {
	return i.Field + ": " + i.Reason
}
