package entities

import "strings"

// OntologyAnnotation is one candidate term returned by the terminology search service.
// Candidates are ordered best match first by the provider.
type OntologyAnnotation struct {
	// OboID is the namespaced identifier, e.g. "SNOMED:29857009".
	OboID string `json:"obo_id"`
	Label string `json:"label"`
	IRI   string `json:"iri,omitempty"`
}

// Code returns the identifier with its namespace prefix removed. An identifier without a
// namespace is returned as is.
func (a OntologyAnnotation) Code() string {
	if idx := strings.Index(a.OboID, ":"); idx >= 0 {
		return a.OboID[idx+1:]
	}
	return a.OboID
}

// Coding converts the annotation into a SNOMED coding.
func (a OntologyAnnotation) Coding() Coding {
	return Coding{
		System:  SNOMEDSystem,
		Code:    a.Code(),
		Display: a.Label,
	}
}
