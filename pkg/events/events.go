package events

import (
	"sync"
	"time"
)

// EventType tags an operational event. The set is closed: operators alert on
// these tags, so new code must extend the list rather than invent strings.
type EventType string

const (
	EventPlanCreated          EventType = "plan_created"
	EventPlanIdempotent       EventType = "plan_idempotent"
	EventPlanConflict         EventType = "plan_conflict"
	EventNonTerminalUpdate    EventType = "non_terminal_update"
	EventTerminalSpecFinished EventType = "terminal_spec_finished"
	EventTerminalPlanFinished EventType = "terminal_plan_finished"
	EventTerminalSpecFailed   EventType = "terminal_spec_failed"
	EventDuplicateMessage     EventType = "duplicate_message"
	EventOutOfOrder           EventType = "out_of_order"
	EventMissingPlan          EventType = "missing_plan"
	EventMissingSpec          EventType = "missing_spec"
)

// Event represents one operational event
type Event struct {
	Type      EventType
	Timestamp time.Time
	PlanID    string
	SpecIndex int // -1 when not spec-scoped
	MessageID string
	Message   string
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker manages event subscriptions and distribution
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop halts event distribution and closes all subscriber channels, so
// consumers ranging over a subscription terminate.
func (b *Broker) Stop() {
	close(b.stopCh)

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subscribers {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Subscribe registers a new subscriber channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 10)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscriber and closes its channel
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish sends an event to all subscribers. Publishing never blocks the
// caller: if the broker's buffer is full the event is dropped.
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case b.eventCh <- event:
	default:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.distribute(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) distribute(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		// Slow subscribers lose events rather than stall the loop
		select {
		case sub <- event:
		default:
		}
	}
}
