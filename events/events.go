package events

import (
	"context"
	"sync"

	"betline/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeEventStatusChanged EventType = "event_status_changed"
	EventTypeBetPlaced          EventType = "bet_placed"
	EventTypeBetSettled         EventType = "bet_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// EventStatusChangedEvent represents a betting event reaching a new status
type EventStatusChangedEvent struct {
	EventID     int64
	Coefficient decimal.Decimal
	Deadline    int64
	OldStatus   models.EventStatus
	NewStatus   models.EventStatus
}

func (e EventStatusChangedEvent) Type() EventType {
	return EventTypeEventStatusChanged
}

// BetPlacedEvent represents a bet that was accepted
type BetPlacedEvent struct {
	BetID       int64
	EventID     int64
	Amount      decimal.Decimal
	Coefficient decimal.Decimal
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BetSettledEvent represents a bet leaving the pending state
type BetSettledEvent struct {
	BetID   int64
	EventID int64
	Status  models.BetStatus
	Payout  decimal.Decimal
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// Handler consumes events dispatched on the bus
type Handler func(ctx context.Context, event Event)

// Bus fans events out to subscribed handlers
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for the given event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"event_type": eventType,
		"handlers":   len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event bus")
}

// Emit dispatches the event to every handler subscribed to its type.
// Handlers run in their own goroutines; a panicking handler is logged
// and contained.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type()]...)
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"event_type": event.Type(),
		"handlers":   len(handlers),
	}).Debug("Emitting event")

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"event_type": event.Type(),
						"panic":      r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events raised inside a unit of work and
// forwards them to the real bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish queues an event until Flush or Discard
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits every pending event. Called after commit; emission uses a
// fresh context since the transaction's context may already be done.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}

	log.WithFields(log.Fields{
		"pending": len(b.pending),
	}).Debug("Flushing pending events")

	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
