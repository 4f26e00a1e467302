package entities

import (
	"time"

	"github.com/google/uuid"
)

// Bundle is a FHIR collection bundle of extracted resources.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id"`
	Type         string        `json:"type"`
	Timestamp    string        `json:"timestamp"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

// BundleEntry wraps one resource of a bundle.
type BundleEntry struct {
	FullURL  string   `json:"fullUrl"`
	Resource Resource `json:"resource"`
}

// NewCollectionBundle wraps records into a collection bundle, preserving order.
func NewCollectionBundle(records []*ResourceRecord) *Bundle {
	b := &Bundle{
		ResourceType: "Bundle",
		ID:           uuid.NewString(),
		Type:         "collection",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	for _, r := range records {
		b.Entry = append(b.Entry, BundleEntry{
			FullURL:  "urn:uuid:" + r.ID,
			Resource: r.Resource,
		})
	}
	return b
}
