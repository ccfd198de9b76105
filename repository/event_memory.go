package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"betline/models"
)

// MemoryEventStore implements the line provider's event store in process
// memory. A per-event mutex serializes check-then-act sequences on the same
// event while distinct events proceed in parallel. Stored event structs are
// never mutated in place; updates swap in a fresh copy.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events map[int64]*models.Event
	locks  map[int64]*sync.Mutex
}

// NewMemoryEventStore creates an empty in-memory event store
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		events: make(map[int64]*models.Event),
		locks:  make(map[int64]*sync.Mutex),
	}
}

// lockEvent returns the mutex serializing operations on a single event
func (s *MemoryEventStore) lockEvent(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks[id] == nil {
		s.locks[id] = &sync.Mutex{}
	}
	return s.locks[id]
}

// get fetches the stored event pointer, nil when absent
func (s *MemoryEventStore) get(id int64) *models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events[id]
}

// Create inserts a new event with a client-assigned id
func (s *MemoryEventStore) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	lock := s.lockEvent(event.ID)
	lock.Lock()
	defer lock.Unlock()

	if s.get(event.ID) != nil {
		return nil, &models.AlreadyExistsError{Kind: "event", ID: event.ID}
	}

	now := time.Now().UTC()
	stored := *event
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.mu.Lock()
	s.events[event.ID] = &stored
	s.mu.Unlock()

	created := stored
	return &created, nil
}

// Update replaces the coefficient and deadline of an event that is still open
func (s *MemoryEventStore) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	lock := s.lockEvent(event.ID)
	lock.Lock()
	defer lock.Unlock()

	current := s.get(event.ID)
	if current == nil {
		return nil, models.NewEventNotFoundError(event.ID)
	}

	if current.Status.IsTerminal() {
		return nil, &models.InvalidTransitionError{EventID: event.ID, From: current.Status}
	}

	updated := *current
	updated.Coefficient = event.Coefficient
	updated.Deadline = event.Deadline
	updated.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.events[event.ID] = &updated
	s.mu.Unlock()

	result := updated
	return &result, nil
}

// Transition moves an event to a terminal status, enforcing terminal-once
func (s *MemoryEventStore) Transition(ctx context.Context, id int64, status models.EventStatus) (*models.Event, error) {
	lock := s.lockEvent(id)
	lock.Lock()
	defer lock.Unlock()

	current := s.get(id)
	if current == nil {
		return nil, models.NewEventNotFoundError(id)
	}

	if !current.CanTransitionTo(status) {
		return nil, &models.InvalidTransitionError{EventID: id, From: current.Status, To: status}
	}

	updated := *current
	updated.Status = status
	updated.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.events[id] = &updated
	s.mu.Unlock()

	result := updated
	return &result, nil
}

// GetByID retrieves an event by its ID
func (s *MemoryEventStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	current := s.get(id)
	if current == nil {
		return nil, nil
	}

	event := *current
	return &event, nil
}

// GetAll returns a page of events ordered by id
func (s *MemoryEventStore) GetAll(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	events := s.snapshot(func(e *models.Event) bool { return true })

	sort.Slice(events, func(i, j int) bool {
		return events[i].ID < events[j].ID
	})

	return pageEvents(events, limit, offset), nil
}

// GetActive returns a page of events that still accept bets, soonest deadline first
func (s *MemoryEventStore) GetActive(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	events := s.snapshot(func(e *models.Event) bool { return e.IsActive() })

	sort.Slice(events, func(i, j int) bool {
		if events[i].Deadline != events[j].Deadline {
			return events[i].Deadline < events[j].Deadline
		}
		return events[i].ID < events[j].ID
	})

	return pageEvents(events, limit, offset), nil
}

// snapshot copies every stored event matching the filter
func (s *MemoryEventStore) snapshot(keep func(*models.Event) bool) []*models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*models.Event, 0, len(s.events))
	for _, stored := range s.events {
		if keep(stored) {
			event := *stored
			events = append(events, &event)
		}
	}
	return events
}

// pageEvents applies limit and offset to a sorted slice
func pageEvents(events []*models.Event, limit, offset int) []*models.Event {
	if offset >= len(events) {
		return nil
	}
	events = events[offset:]
	if limit < len(events) {
		events = events[:limit]
	}
	return events
}
