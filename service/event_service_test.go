package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"betline/events"
	"betline/models"
)

func createOpenEvent(id int64, coefficient string) *models.Event {
	return &models.Event{
		ID:          id,
		Coefficient: decimal.RequireFromString(coefficient),
		Deadline:    time.Now().Add(10 * time.Minute).Unix(),
		Status:      models.EventStatusNew,
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	mockStore := new(MockEventStore)
	service := NewEventService(mockStore, events.NewBus(), time.Second)

	event := createOpenEvent(1, "1.20")
	mockStore.On("Create", mock.Anything, event).Return(event, nil)

	created, err := service.CreateEvent(ctx, event)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, models.EventStatusNew, created.Status)
	mockStore.AssertExpectations(t)
}

func TestEventService_CreateEvent_InvalidCoefficient(t *testing.T) {
	ctx := context.Background()
	mockStore := new(MockEventStore)
	service := NewEventService(mockStore, events.NewBus(), time.Second)

	// One decimal place
	event := createOpenEvent(1, "1.5")
	created, err := service.CreateEvent(ctx, event)
	assert.Error(t, err)
	assert.Nil(t, created)
	assert.Contains(t, err.Error(), "coefficient")

	// Three decimal places
	event = createOpenEvent(1, "1.505")
	created, err = service.CreateEvent(ctx, event)
	assert.Error(t, err)
	assert.Nil(t, created)
	assert.Contains(t, err.Error(), "coefficient")

	// Zero
	event = createOpenEvent(1, "0.00")
	created, err = service.CreateEvent(ctx, event)
	assert.Error(t, err)
	assert.Nil(t, created)
	assert.Contains(t, err.Error(), "coefficient")

	// Negative
	event = createOpenEvent(1, "-1.20")
	created, err = service.CreateEvent(ctx, event)
	assert.Error(t, err)
	assert.Nil(t, created)
	assert.Contains(t, err.Error(), "coefficient")

	mockStore.AssertNotCalled(t, "Create")
}

func TestEventService_CreateEvent_PastDeadline(t *testing.T) {
	ctx := context.Background()
	mockStore := new(MockEventStore)
	service := NewEventService(mockStore, events.NewBus(), time.Second)

	event := createOpenEvent(1, "1.20")
	event.Deadline = time.Now().Add(-time.Minute).Unix()

	created, err := service.CreateEvent(ctx, event)

	assert.Error(t, err)
	assert.Nil(t, created)

	var deadlineErr *models.InvalidDeadlineError
	assert.ErrorAs(t, err, &deadlineErr)
	mockStore.AssertNotCalled(t, "Create")
}

func TestEventService_CreateEvent_Duplicate(t *testing.T) {
	ctx := context.Background()
	mockStore := new(MockEventStore)
	service := NewEventService(mockStore, events.NewBus(), time.Second)

	event := createOpenEvent(1, "1.20")
	mockStore.On("Create", mock.Anything, event).Return(nil, &models.AlreadyExistsError{Kind: "event", ID: 1})

	created, err := service.CreateEvent(ctx, event)

	assert.Error(t, err)
	assert.Nil(t, created)

	var existsErr *models.AlreadyExistsError
	assert.ErrorAs(t, err, &existsErr)
	mockStore.AssertExpectations(t)
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()
	mockStore := new(MockEventStore)
	service := NewEventService(mockStore, events.NewBus(), time.Second)

	event := createOpenEvent(2, "1.85")
	mockStore.On("Update", mock.Anything, event).Return(event, nil)

	updated, err := service.UpdateEvent(ctx, event)

	assert.NoError(t, err)
	assert.True(t, updated.Coefficient.Equal(decimal.RequireFromString("1.85")))
	mockStore.AssertExpectations(t)
}

func TestEventService_Transition_EmitsStatusChange(t *testing.T) {
	ctx := context.Background()

	mockStore := new(MockEventStore)
	bus := events.NewBus()
	service := NewEventService(mockStore, bus, time.Second)

	finished := createOpenEvent(7, "1.67")
	finished.Status = models.EventStatusFinishedWin

	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeEventStatusChanged, func(ctx context.Context, e events.Event) {
		received <- e
	})

	mockStore.On("Transition", mock.Anything, int64(7), models.EventStatusFinishedWin).Return(finished, nil)

	updated, err := service.Transition(ctx, 7, models.EventStatusFinishedWin)

	assert.NoError(t, err)
	assert.Equal(t, models.EventStatusFinishedWin, updated.Status)

	select {
	case e := <-received:
		statusChange, ok := e.(events.EventStatusChangedEvent)
		assert.True(t, ok)
		assert.Equal(t, int64(7), statusChange.EventID)
		assert.Equal(t, models.EventStatusFinishedWin, statusChange.NewStatus)
		assert.True(t, statusChange.Coefficient.Equal(decimal.RequireFromString("1.67")))
	case <-time.After(time.Second):
		t.Fatal("expected a status change event on the bus")
	}

	mockStore.AssertExpectations(t)
}

func TestEventService_Transition_RejectsNonTerminalTarget(t *testing.T) {
	ctx := context.Background()
	mockStore := new(MockEventStore)
	service := NewEventService(mockStore, events.NewBus(), time.Second)

	updated, err := service.Transition(ctx, 7, models.EventStatusNew)

	assert.Error(t, err)
	assert.Nil(t, updated)
	assert.Contains(t, err.Error(), "cannot transition")
	mockStore.AssertNotCalled(t, "Transition")
}

func TestEventService_Transition_RejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	mockStore := new(MockEventStore)
	service := NewEventService(mockStore, events.NewBus(), time.Second)

	updated, err := service.Transition(ctx, 7, models.EventStatus("HALFTIME"))

	assert.Error(t, err)
	assert.Nil(t, updated)
	mockStore.AssertNotCalled(t, "Transition")
}

func TestEventService_Transition_AlreadyFinished(t *testing.T) {
	ctx := context.Background()
	mockStore := new(MockEventStore)
	service := NewEventService(mockStore, events.NewBus(), time.Second)

	mockStore.On("Transition", mock.Anything, int64(7), models.EventStatusCancelled).
		Return(nil, &models.InvalidTransitionError{EventID: 7, From: models.EventStatusFinishedWin})

	updated, err := service.Transition(ctx, 7, models.EventStatusCancelled)

	assert.Error(t, err)
	assert.Nil(t, updated)
	assert.Contains(t, err.Error(), "has finished and cannot be changed")
	mockStore.AssertExpectations(t)
}

func TestEventService_GetEvent_NotFound(t *testing.T) {
	ctx := context.Background()
	mockStore := new(MockEventStore)
	service := NewEventService(mockStore, events.NewBus(), time.Second)

	mockStore.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

	event, err := service.GetEvent(ctx, 99)

	assert.Error(t, err)
	assert.Nil(t, event)

	var notFoundErr *models.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, int64(99), notFoundErr.ID)
	mockStore.AssertExpectations(t)
}

func TestEventService_ListActiveEvents(t *testing.T) {
	ctx := context.Background()
	mockStore := new(MockEventStore)
	service := NewEventService(mockStore, events.NewBus(), time.Second)

	active := []*models.Event{createOpenEvent(2, "1.15"), createOpenEvent(3, "1.67")}
	mockStore.On("GetActive", mock.Anything, 50, 0).Return(active, nil)

	eventList, err := service.ListActiveEvents(ctx, 50, 0)

	assert.NoError(t, err)
	assert.Len(t, eventList, 2)
	mockStore.AssertExpectations(t)
}
