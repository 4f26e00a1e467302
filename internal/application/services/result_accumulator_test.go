package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

func TestResultAccumulator_AppendSnapshotReset(t *testing.T) {
	acc := NewResultAccumulator()
	acc.Append(&entities.ResourceRecord{ID: "1", Kind: entities.ResourceKindCondition})
	acc.Append(&entities.ResourceRecord{ID: "2", Kind: entities.ResourceKindProcedure})

	snap := acc.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, "1", snap[0].ID)

	// mutating the snapshot leaves the accumulator alone
	snap[0] = nil
	assert.Equal(t, "1", acc.Snapshot()[0].ID)

	assert.Len(t, acc.Filter(entities.ResourceKindProcedure), 1)

	assert.Equal(t, 2, acc.Reset())
	assert.Equal(t, 0, acc.Len())
	assert.Empty(t, acc.Snapshot())

	// reset is idempotent
	assert.Equal(t, 0, acc.Reset())
	acc.Append(&entities.ResourceRecord{ID: "3"})
	assert.Equal(t, 1, acc.Len())
}

func TestResultAccumulator_ConcurrentAppend(t *testing.T) {
	acc := NewResultAccumulator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Append(&entities.ResourceRecord{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, acc.Len())
}
