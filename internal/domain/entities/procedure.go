package entities

import (
	"encoding/json"
	"fmt"
)

// Procedure is a FHIR Procedure resource.
type Procedure struct {
	ResourceType      string            `json:"resourceType"`
	ID                string            `json:"id,omitempty"`
	Meta              *Meta             `json:"meta,omitempty"`
	Status            string            `json:"status,omitempty"`
	StatusReason      *CodeableConcept  `json:"statusReason,omitempty"`
	Category          *CodeableConcept  `json:"category,omitempty"`
	Code              CodeableConcept   `json:"code"`
	Subject           Reference         `json:"subject"`
	PerformedDateTime string            `json:"performedDateTime,omitempty"`
	PerformedPeriod   *Period           `json:"performedPeriod,omitempty"`
	PerformedString   string            `json:"performedString,omitempty"`
	PerformedAge      *Age              `json:"performedAge,omitempty"`
	ReasonCode        []CodeableConcept `json:"reasonCode,omitempty"`
	BodySite          []CodeableConcept `json:"bodySite,omitempty"`
	Outcome           *CodeableConcept  `json:"outcome,omitempty"`
	Complication      []CodeableConcept `json:"complication,omitempty"`
	FollowUp          []CodeableConcept `json:"followUp,omitempty"`
	Note              []Annotation      `json:"note,omitempty"`
}

func (p *Procedure) Kind() ResourceKind              { return ResourceKindProcedure }
func (p *Procedure) ResourceID() string              { return p.ID }
func (p *Procedure) PrimaryConcept() CodeableConcept { return p.Code }
func (p *Procedure) SubjectReference() string        { return p.Subject.Reference }

// DecodeResource unmarshals a stored resource body of the given kind.
func DecodeResource(kind ResourceKind, raw []byte) (Resource, error) {
	var res Resource
	switch kind {
	case ResourceKindCondition:
		res = &Condition{}
	case ResourceKindMedicationStatement:
		res = &MedicationStatement{}
	case ResourceKindProcedure:
		res = &Procedure{}
	default:
		return nil, fmt.Errorf("unsupported resource kind %q", kind)
	}
	if err := json.Unmarshal(raw, res); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return res, nil
}
