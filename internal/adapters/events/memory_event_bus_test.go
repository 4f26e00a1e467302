package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/providers"
)

func receive(t *testing.T, ch <-chan *entities.ResourceEvent) *entities.ResourceEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all, err := bus.Subscribe(ctx, providers.EventChannelResourcesExtracted)
	require.NoError(t, err)
	conditions, err := bus.Subscribe(ctx, providers.GetKindChannel(entities.ResourceKindCondition))
	require.NoError(t, err)

	event := entities.NewResourcesResetEvent()
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelResourcesExtracted, event))

	assert.Equal(t, event.ID, receive(t, all).ID)
	select {
	case <-conditions:
		t.Fatal("event delivered to unrelated channel")
	default:
	}
}

func TestMemoryEventBus_UnsubscribeOnCancel(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx, "resources:Procedure")
	require.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool { return bus.hub.count("resources:Procedure") == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-ch
	assert.False(t, open)
}

func TestMemoryEventBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := bus.Subscribe(ctx, "resources:extracted")
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, bus.Publish(context.Background(), "resources:extracted", entities.NewResourcesResetEvent()))
	}
}

func TestMemoryEventBus_Close(t *testing.T) {
	bus := NewMemoryEventBus()
	ch, err := bus.Subscribe(context.Background(), "resources:extracted")
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	_, open := <-ch
	assert.False(t, open)

	assert.Error(t, bus.Publish(context.Background(), "resources:extracted", entities.NewResourcesResetEvent()))
	_, err = bus.Subscribe(context.Background(), "resources:extracted")
	assert.Error(t, err)
	assert.NoError(t, bus.Close())
}
