package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.Publish(New(TypeFolderRestored, "u-1", Change{Kind: "folder", ID: 9}))

	select {
	case e := <-events:
		assert.Equal(t, TypeFolderRestored, e.Type)
		assert.Equal(t, int64(9), e.Payload.ID)
		assert.Equal(t, "u-1", e.ActorID)
		assert.NotEmpty(t, e.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestInMemoryBus_UnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()
	events, unsubscribe := bus.Subscribe()

	unsubscribe()
	unsubscribe()

	_, open := <-events
	assert.False(t, open)
	assert.NotPanics(t, func() { bus.Publish(New(TypeFileArchived, "", Change{})) })
}

func TestInMemoryBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			bus.Publish(New(TypeFileUpdated, "", Change{Kind: "regular", ID: int64(i)}))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.Fail(t, "publisher blocked on a full subscriber")
	}
}

func TestInMemoryBus_TypeFilter(t *testing.T) {
	bus := NewBus()
	restores, unsubscribe := bus.Subscribe(TypeFolderRestored, TypeFileRestored)
	defer unsubscribe()
	assert.Equal(t, 1, bus.Subscribers())

	bus.Publish(New(TypeFolderArchived, "", Change{Kind: "folder", ID: 1}))
	bus.Publish(New(TypeFileRestored, "", Change{Kind: "extraction", ID: 2}))

	select {
	case e := <-restores:
		assert.Equal(t, TypeFileRestored, e.Type)
		assert.Equal(t, int64(2), e.Payload.ID)
	case <-time.After(time.Second):
		t.Fatal("restore event not delivered")
	}

	select {
	case e := <-restores:
		t.Fatalf("unexpected event %s", e.Type)
	default:
	}

	unsubscribe()
	assert.Zero(t, bus.Subscribers())
}
