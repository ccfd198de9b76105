package service

import (
	"context"
	"fmt"
	"time"

	"betline/models"
)

type eventMirrorService struct {
	uowFactory     UnitOfWorkFactory
	eventRepo      EventRepository
	client         LineProviderClient
	settlement     SettlementService
	storageTimeout time.Duration
}

// NewEventMirrorService creates a new event mirror service. The event
// repository must be pool-bound; transactional work goes through the unit
// of work factory.
func NewEventMirrorService(
	uowFactory UnitOfWorkFactory,
	eventRepo EventRepository,
	client LineProviderClient,
	settlement SettlementService,
	storageTimeout time.Duration,
) EventMirrorService {
	return &eventMirrorService{
		uowFactory:     uowFactory,
		eventRepo:      eventRepo,
		client:         client,
		settlement:     settlement,
		storageTimeout: storageTimeout,
	}
}

func (s *eventMirrorService) Sync(ctx context.Context, remote *models.Event) (*models.SettlementResult, error) {
	if err := s.applySnapshot(ctx, remote); err != nil {
		return nil, err
	}

	if !remote.Status.IsTerminal() {
		return &models.SettlementResult{EventID: remote.ID}, nil
	}

	// Settlement runs after the mirror write is durable. It is idempotent,
	// so replays of the same notification cost nothing.
	return s.settlement.SettleEvent(ctx, remote.ID, remote.Status)
}

// applySnapshot folds a provider snapshot into the local mirror under a row
// lock. Terminal local state is never downgraded: a stale open snapshot
// arriving after the terminal one is dropped on the floor.
func (s *eventMirrorService) applySnapshot(ctx context.Context, remote *models.Event) error {
	txCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(txCtx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	local, err := uow.EventRepository().GetByIDForUpdate(txCtx, remote.ID)
	if err != nil {
		return storageError("lock event", err)
	}

	switch {
	case local == nil:
		if err := uow.EventRepository().Upsert(txCtx, remote); err != nil {
			return storageError("insert event", err)
		}
	case local.Status.IsTerminal():
		// Already final; nothing to write.
	case remote.Status.IsTerminal():
		if _, err := uow.EventRepository().UpdateStatus(txCtx, remote.ID, remote.Status); err != nil {
			return storageError("update event status", err)
		}
	default:
		// Both open: refresh the odds and deadline.
		if err := uow.EventRepository().Upsert(txCtx, remote); err != nil {
			return storageError("refresh event", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return storageError("commit event sync", err)
	}

	return nil
}

func (s *eventMirrorService) GetOrFetch(ctx context.Context, eventID int64) (*models.Event, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	local, err := s.eventRepo.GetByID(readCtx, eventID)
	cancel()
	if err != nil {
		return nil, storageError("get event", err)
	}
	if local != nil {
		return local, nil
	}

	remote, err := s.client.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if _, err := s.Sync(ctx, remote); err != nil {
		return nil, err
	}

	readCtx, cancel = context.WithTimeout(ctx, s.storageTimeout)
	local, err = s.eventRepo.GetByID(readCtx, eventID)
	cancel()
	if err != nil {
		return nil, storageError("get event", err)
	}
	if local == nil {
		return nil, models.NewEventNotFoundError(eventID)
	}

	return local, nil
}
