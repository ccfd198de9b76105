package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betline/database"
	"betline/events"
	"betline/models"
)

// placeBetAttempts bounds retries of the placement transaction on transient
// storage failures: serialization or deadlock errors and timeouts
const placeBetAttempts = 2

type betService struct {
	uowFactory     UnitOfWorkFactory
	mirror         EventMirrorService
	storageTimeout time.Duration
}

// NewBetService creates a new bet service
func NewBetService(uowFactory UnitOfWorkFactory, mirror EventMirrorService, storageTimeout time.Duration) BetService {
	return &betService{
		uowFactory:     uowFactory,
		mirror:         mirror,
		storageTimeout: storageTimeout,
	}
}

func (s *betService) PlaceBet(ctx context.Context, eventID int64, amount decimal.Decimal) (*models.Bet, error) {
	if err := models.ValidateAmount(amount); err != nil {
		return nil, err
	}

	// Make sure the local mirror knows the event before taking locks
	if _, err := s.mirror.GetOrFetch(ctx, eventID); err != nil {
		return nil, err
	}

	var bet *models.Bet
	var err error
	for attempt := 0; attempt < placeBetAttempts; attempt++ {
		bet, err = s.tryPlaceBet(ctx, eventID, amount)
		if err == nil || ctx.Err() != nil {
			break
		}
		if !database.IsSerializationFailure(err) && !database.IsTimeout(err) {
			break
		}
	}
	if err != nil {
		if database.IsSerializationFailure(err) {
			return nil, &models.ConflictError{Kind: "event", ID: eventID}
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"bet_id":      bet.ID,
		"event_id":    bet.EventID,
		"amount":      bet.Amount,
		"coefficient": bet.CoefficientAtPlacement,
	}).Info("Bet placed")

	return bet, nil
}

// tryPlaceBet runs one placement transaction: lock the event row, validate
// that it still accepts bets, insert the bet with the coefficient snapshot
func (s *betService) tryPlaceBet(ctx context.Context, eventID int64, amount decimal.Decimal) (*models.Bet, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(txCtx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	event, err := uow.EventRepository().GetByIDForUpdate(txCtx, eventID)
	if err != nil {
		return nil, storageError("lock event", err)
	}
	if event == nil {
		return nil, models.NewEventNotFoundError(eventID)
	}

	if event.Status != models.EventStatusNew {
		return nil, &models.EventNotOpenError{EventID: eventID, Status: event.Status}
	}
	if event.DeadlinePassed() {
		return nil, &models.DeadlinePassedError{EventID: eventID, Deadline: event.Deadline}
	}

	bet := &models.Bet{
		EventID:                eventID,
		Amount:                 amount,
		CoefficientAtPlacement: event.Coefficient,
		Status:                 models.BetStatusPending,
	}

	if err := uow.BetRepository().Create(txCtx, bet); err != nil {
		return nil, storageError("create bet", err)
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		BetID:       bet.ID,
		EventID:     bet.EventID,
		Amount:      bet.Amount,
		Coefficient: bet.CoefficientAtPlacement,
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit bet", err)
	}

	return bet, nil
}

func (s *betService) GetBet(ctx context.Context, betID int64) (*models.Bet, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(readCtx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByID(readCtx, betID)
	if err != nil {
		return nil, storageError("get bet", err)
	}
	if bet == nil {
		return nil, models.NewBetNotFoundError(betID)
	}

	return bet, nil
}

func (s *betService) ListBets(ctx context.Context, limit, offset int, status *models.BetStatus) ([]*models.Bet, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(readCtx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetAll(readCtx, limit, offset, status)
	if err != nil {
		return nil, storageError("list bets", err)
	}

	return bets, nil
}
