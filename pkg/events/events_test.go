package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerDeliversToSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	broker.Publish(&Event{
		Type:      EventPlanCreated,
		PlanID:    "plan-1",
		SpecIndex: -1,
		Message:   "plan created",
	})

	select {
	case event := <-sub:
		assert.Equal(t, EventPlanCreated, event.Type)
		assert.Equal(t, "plan-1", event.PlanID)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBrokerMultipleSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub1 := broker.Subscribe()
	sub2 := broker.Subscribe()
	defer broker.Unsubscribe(sub1)
	defer broker.Unsubscribe(sub2)

	broker.Publish(&Event{Type: EventOutOfOrder, PlanID: "plan-2", SpecIndex: 1})

	for _, sub := range []Subscriber{sub1, sub2} {
		select {
		case event := <-sub:
			assert.Equal(t, EventOutOfOrder, event.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()
	broker.Unsubscribe(sub)

	_, open := <-sub
	require.False(t, open)

	// Double unsubscribe must not panic
	broker.Unsubscribe(sub)
}

// TestStopClosesSubscribers verifies Stop terminates consumers ranging over
// their subscription instead of leaking them
func TestStopClosesSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()

	sub := broker.Subscribe()
	drained := make(chan struct{})
	go func() {
		for range sub {
		}
		close(drained)
	}()

	broker.Stop()

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel not closed by Stop")
	}
}

// TestPublishNeverBlocks fills the buffer without a running distribution
// loop and checks the publisher still returns
func TestPublishNeverBlocks(t *testing.T) {
	broker := NewBroker()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			broker.Publish(&Event{Type: EventNonTerminalUpdate, SpecIndex: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on full buffer")
	}
}
