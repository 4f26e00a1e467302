package services

import (
	"sync"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

// ResultAccumulator is the ordered list of resources built during the process lifetime.
// Records are never modified after Append.
type ResultAccumulator struct {
	mu      sync.RWMutex
	records []*entities.ResourceRecord
}

// NewResultAccumulator creates an empty accumulator.
func NewResultAccumulator() *ResultAccumulator {
	return &ResultAccumulator{}
}

// Append adds a record to the end of the list.
func (a *ResultAccumulator) Append(record *entities.ResourceRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
}

// Snapshot returns a copy of the current list.
func (a *ResultAccumulator) Snapshot() []*entities.ResourceRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*entities.ResourceRecord, len(a.records))
	copy(out, a.records)
	return out
}

// Filter returns the records of a kind, in order.
func (a *ResultAccumulator) Filter(kind entities.ResourceKind) []*entities.ResourceRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*entities.ResourceRecord
	for _, r := range a.records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of records.
func (a *ResultAccumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

// Reset empties the list and returns how many records were dropped.
func (a *ResultAccumulator) Reset() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.records)
	a.records = nil
	return n
}
