package entities

// SNOMEDSystem is the code system URI for SNOMED CT.
const SNOMEDSystem = "http://snomed.info/sct"

// UCUMSystem is the code system URI for units of measure.
const UCUMSystem = "http://unitsofmeasure.org"

// Coding is a code from a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept is a concept that may be defined by codings and/or free text.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Reference points at another resource.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

// Period is a time range. Both ends are FHIR dateTime strings.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Age is a duration of life expressed as a UCUM quantity.
type Age struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit,omitempty"`
	System string  `json:"system,omitempty"`
	Code   string  `json:"code,omitempty"`
}

// Annotation is a free-text note.
type Annotation struct {
	Text string `json:"text"`
}

// Dosage carries how a medication is or was taken.
type Dosage struct {
	Text string `json:"text,omitempty"`
}

// Meta carries resource metadata.
type Meta struct {
	LastUpdated string   `json:"lastUpdated,omitempty"`
	Source      string   `json:"source,omitempty"`
	Tag         []Coding `json:"tag,omitempty"`
}

// TextConcept wraps free text into a concept with no coding.
func TextConcept(text string) *CodeableConcept {
	return &CodeableConcept{Text: text}
}

// TextConcepts wraps each entry into a text-only concept.
func TextConcepts(texts []string) []CodeableConcept {
	if len(texts) == 0 {
		return nil
	}
	out := make([]CodeableConcept, 0, len(texts))
	for _, t := range texts {
		out = append(out, CodeableConcept{Text: t})
	}
	return out
}

// YearsAge builds an Age in years.
func YearsAge(value float64) *Age {
	return &Age{Value: value, Unit: "a", System: UCUMSystem, Code: "a"}
}
