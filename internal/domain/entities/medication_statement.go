package entities

// MedicationStatement is a FHIR MedicationStatement resource.
type MedicationStatement struct {
	ResourceType              string            `json:"resourceType"`
	ID                        string            `json:"id,omitempty"`
	Meta                      *Meta             `json:"meta,omitempty"`
	Status                    string            `json:"status,omitempty"`
	StatusReason              []CodeableConcept `json:"statusReason,omitempty"`
	Category                  *CodeableConcept  `json:"category,omitempty"`
	MedicationCodeableConcept CodeableConcept   `json:"medicationCodeableConcept"`
	Subject                   Reference         `json:"subject"`
	EffectiveDateTime         string            `json:"effectiveDateTime,omitempty"`
	EffectivePeriod           *Period           `json:"effectivePeriod,omitempty"`
	DateAsserted              string            `json:"dateAsserted,omitempty"`
	ReasonCode                []CodeableConcept `json:"reasonCode,omitempty"`
	Note                      []Annotation      `json:"note,omitempty"`
	Dosage                    []Dosage          `json:"dosage,omitempty"`
}

func (m *MedicationStatement) Kind() ResourceKind { return ResourceKindMedicationStatement }
func (m *MedicationStatement) ResourceID() string { return m.ID }
func (m *MedicationStatement) PrimaryConcept() CodeableConcept {
	return m.MedicationCodeableConcept
}
func (m *MedicationStatement) SubjectReference() string { return m.Subject.Reference }
