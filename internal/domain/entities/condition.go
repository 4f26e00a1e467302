package entities

// ConditionStage is a clinical stage or grade of a condition.
type ConditionStage struct {
	Summary *CodeableConcept `json:"summary,omitempty"`
}

// ConditionEvidence is supporting evidence for a condition.
type ConditionEvidence struct {
	Code []CodeableConcept `json:"code,omitempty"`
}

// Condition is a FHIR Condition resource.
type Condition struct {
	ResourceType       string              `json:"resourceType"`
	ID                 string              `json:"id,omitempty"`
	Meta               *Meta               `json:"meta,omitempty"`
	ClinicalStatus     *CodeableConcept    `json:"clinicalStatus,omitempty"`
	VerificationStatus *CodeableConcept    `json:"verificationStatus,omitempty"`
	Category           []CodeableConcept   `json:"category,omitempty"`
	Severity           *CodeableConcept    `json:"severity,omitempty"`
	Code               CodeableConcept     `json:"code"`
	BodySite           []CodeableConcept   `json:"bodySite,omitempty"`
	Subject            Reference           `json:"subject"`
	OnsetDateTime      string              `json:"onsetDateTime,omitempty"`
	OnsetAge           *Age                `json:"onsetAge,omitempty"`
	OnsetPeriod        *Period             `json:"onsetPeriod,omitempty"`
	OnsetString        string              `json:"onsetString,omitempty"`
	AbatementDateTime  string              `json:"abatementDateTime,omitempty"`
	AbatementAge       *Age                `json:"abatementAge,omitempty"`
	AbatementPeriod    *Period             `json:"abatementPeriod,omitempty"`
	AbatementString    string              `json:"abatementString,omitempty"`
	RecordedDate       string              `json:"recordedDate,omitempty"`
	Stage              []ConditionStage    `json:"stage,omitempty"`
	Evidence           []ConditionEvidence `json:"evidence,omitempty"`
	Note               []Annotation        `json:"note,omitempty"`
}

func (c *Condition) Kind() ResourceKind              { return ResourceKindCondition }
func (c *Condition) ResourceID() string              { return c.ID }
func (c *Condition) PrimaryConcept() CodeableConcept { return c.Code }
func (c *Condition) SubjectReference() string        { return c.Subject.Reference }
