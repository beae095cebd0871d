package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := New("call-1")
	_, ch := b.subscribe()

	b.Publish(Event{CallID: "call-1", Kind: "transcript"})

	select {
	case ev := <-ch:
		assert.Equal(t, "call-1", ev.CallID)
		assert.Equal(t, "transcript", ev.Kind)
	default:
		t.Fatal("expected event to be delivered")
	}
}

func TestPublishDropsOnFullQueueWithoutBlocking(t *testing.T) {
	b := New("call-1")
	id, ch := b.subscribe()
	defer b.unsubscribe(id)

	for i := 0; i < subscriberQueueSize+5; i++ {
		b.Publish(Event{Kind: "x"})
	}

	assert.LessOrEqual(t, len(ch), subscriberQueueSize)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New("call-1")
	id, ch := b.subscribe()
	b.unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestSubscriberCountReflectsActiveSubscribers(t *testing.T) {
	b := New("call-1")
	assert.Equal(t, 0, b.SubscriberCount())

	id1, _ := b.subscribe()
	_, _ = b.subscribe()
	assert.Equal(t, 2, b.SubscriberCount())

	b.unsubscribe(id1)
	assert.Equal(t, 1, b.SubscriberCount())
}

func TestRegistryGetCreatesThenReusesBus(t *testing.T) {
	r := NewRegistry()
	b1 := r.Get("call-1")
	b2 := r.Get("call-1")
	require.Same(t, b1, b2)
}

func TestRegistryDropRemovesBus(t *testing.T) {
	r := NewRegistry()
	b1 := r.Get("call-1")
	r.Drop("call-1")
	b2 := r.Get("call-1")
	assert.NotSame(t, b1, b2, "dropping should force a fresh bus on next Get")
}
