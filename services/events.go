package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies which kind of row changed.
type EventType string

const (
	TableChanged EventType = "table.changed"
	OrderChanged EventType = "order.changed"
)

// Topic is what a subscriber listens to.
type Topic string

const (
	TopicTables Topic = "tables"
	TopicOrders Topic = "orders"
)

// Event describes a single row mutation. Consumers are expected to refetch;
// events carry identifiers and the new status only.
type Event struct {
	Type    EventType `json:"type"`
	Action  string    `json:"action"`
	TableID string    `json:"table_id"`
	OrderID string    `json:"order_id,omitempty"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

// Topic returns the subscription topic the event is delivered on.
func (e Event) Topic() Topic {
	if e.Type == OrderChanged {
		return TopicOrders
	}
	return TopicTables
}

// EventBus publishes row changes and hands out subscriptions to them.
type EventBus interface {
	Publish(ctx context.Context, event Event)
	Subscribe(topics ...Topic) *Subscription
}

// Subscription receives events for its topics until Close is called.
type Subscription struct {
	id     string
	topics map[Topic]bool
	ch     chan Event
	hub    *Hub
	once   sync.Once
}

// Events returns the delivery channel. It is closed after Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unregister(s)
	})
}

func (s *Subscription) wants(t Topic) bool {
	return len(s.topics) == 0 || s.topics[t]
}

// Hub is an in-process EventBus. Delivery is best effort: a subscriber whose
// buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	buffer int
}

// NewHub creates a hub whose subscriptions buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{subs: make(map[string]*Subscription), buffer: buffer}
}

// Publish delivers event to every matching subscriber.
func (h *Hub) Publish(_ context.Context, event Event) {
	h.Broadcast(event)
}

// Broadcast fans event out without blocking.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	topic := event.Topic()
	for _, sub := range h.subs {
		if !sub.wants(topic) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			slog.Warn("Dropping event for slow subscriber", "subscription", sub.id, "type", event.Type)
		}
	}
}

// Subscribe registers a subscription; no topics means all topics.
func (h *Hub) Subscribe(topics ...Topic) *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		topics: make(map[Topic]bool, len(topics)),
		ch:     make(chan Event, h.buffer),
		hub:    h,
	}
	for _, t := range topics {
		sub.topics[t] = true
	}
	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()
	return sub
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) unregister(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub.id)
	close(sub.ch)
}

var eventBusInstance EventBus = NewHub(64)

// GetEventBus returns the process-wide event bus
func GetEventBus() EventBus {
	return eventBusInstance
}

// SetEventBus replaces the process-wide event bus (Redis relay in
// production, a fresh Hub in tests)
func SetEventBus(bus EventBus) {
	eventBusInstance = bus
}

func tableEvent(action string, tableID, status string, at time.Time) Event {
	return Event{Type: TableChanged, Action: action, TableID: tableID, Status: status, At: at}
}

func orderEvent(action string, tableID, orderID, status string, at time.Time) Event {
	return Event{Type: OrderChanged, Action: action, TableID: tableID, OrderID: orderID, Status: status, At: at}
}
