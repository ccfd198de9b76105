package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"betline/events"
	"betline/models"
)

type eventService struct {
	store          EventStore
	eventBus       *events.Bus
	storageTimeout time.Duration
}

// NewEventService creates a new line provider event service
func NewEventService(store EventStore, eventBus *events.Bus, storageTimeout time.Duration) EventService {
	return &eventService{
		store:          store,
		eventBus:       eventBus,
		storageTimeout: storageTimeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	if err := models.ValidateCoefficient(event.Coefficient); err != nil {
		return nil, err
	}
	if err := models.ValidateDeadline(event.Deadline); err != nil {
		return nil, err
	}
	if !event.Status.IsValid() {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", event.Status)}
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	created, err := s.store.Create(storeCtx, event)
	if err != nil {
		return nil, storageError("create event", err)
	}

	log.WithFields(log.Fields{
		"event_id":    created.ID,
		"coefficient": created.Coefficient,
		"deadline":    created.Deadline,
		"status":      created.Status,
	}).Info("Event created")

	return created, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	if err := models.ValidateCoefficient(event.Coefficient); err != nil {
		return nil, err
	}
	if err := models.ValidateDeadline(event.Deadline); err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	updated, err := s.store.Update(storeCtx, event)
	if err != nil {
		return nil, storageError("update event", err)
	}

	log.WithFields(log.Fields{
		"event_id":    updated.ID,
		"coefficient": updated.Coefficient,
		"deadline":    updated.Deadline,
	}).Info("Event updated")

	return updated, nil
}

func (s *eventService) Transition(ctx context.Context, eventID int64, status models.EventStatus) (*models.Event, error) {
	if !status.IsValid() || !status.IsTerminal() {
		return nil, &models.InvalidTransitionError{EventID: eventID, To: status}
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	updated, err := s.store.Transition(storeCtx, eventID, status)
	if err != nil {
		return nil, storageError("transition event", err)
	}

	log.WithFields(log.Fields{
		"event_id":   updated.ID,
		"old_status": models.EventStatusNew,
		"new_status": updated.Status,
	}).Info("Event transitioned")

	// The change is durable at this point. Emission uses a background
	// context so subscribers outlive the request.
	s.eventBus.Emit(context.Background(), events.EventStatusChangedEvent{
		EventID:     updated.ID,
		Coefficient: updated.Coefficient,
		Deadline:    updated.Deadline,
		OldStatus:   models.EventStatusNew,
		NewStatus:   updated.Status,
	})

	return updated, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	event, err := s.store.GetByID(storeCtx, eventID)
	if err != nil {
		return nil, storageError("get event", err)
	}
	if event == nil {
		return nil, models.NewEventNotFoundError(eventID)
	}

	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	eventList, err := s.store.GetAll(storeCtx, limit, offset)
	if err != nil {
		return nil, storageError("list events", err)
	}

	return eventList, nil
}

func (s *eventService) ListActiveEvents(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	eventList, err := s.store.GetActive(storeCtx, limit, offset)
	if err != nil {
		return nil, storageError("list active events", err)
	}

	return eventList, nil
}
