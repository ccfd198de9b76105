package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"betline/events"
	"betline/models"
)

type settlementService struct {
	bets           BetRepository
	eventBus       *events.Bus
	storageTimeout time.Duration
}

// NewSettlementService creates a new settlement service. The bet repository
// must be pool-bound: each bet settles in its own statement so one bad row
// cannot hold up the rest of the event.
func NewSettlementService(bets BetRepository, eventBus *events.Bus, storageTimeout time.Duration) SettlementService {
	return &settlementService{
		bets:           bets,
		eventBus:       eventBus,
		storageTimeout: storageTimeout,
	}
}

func (s *settlementService) SettleEvent(ctx context.Context, eventID int64, status models.EventStatus) (*models.SettlementResult, error) {
	outcome, ok := models.SettlementOutcome(status)
	if !ok {
		return nil, &models.InvalidTransitionError{EventID: eventID, To: status}
	}

	listCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	pending, err := s.bets.GetPendingByEvent(listCtx, eventID)
	cancel()
	if err != nil {
		return nil, storageError("list pending bets", err)
	}

	result := &models.SettlementResult{EventID: eventID}

	for _, bet := range pending {
		payout := bet.PayoutFor(outcome)

		betCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
		settled, err := s.bets.Settle(betCtx, bet.ID, outcome, payout)
		cancel()

		if err != nil {
			// Leave the bet pending; the next settlement pass picks it up.
			result.Failed++
			log.WithFields(log.Fields{
				"bet_id":   bet.ID,
				"event_id": eventID,
				"error":    err,
			}).Error("Failed to settle bet")
			continue
		}

		if !settled {
			// A concurrent pass got there first.
			result.Skipped++
			continue
		}

		result.Settled++
		s.eventBus.Emit(context.Background(), events.BetSettledEvent{
			BetID:   bet.ID,
			EventID: eventID,
			Status:  outcome,
			Payout:  payout,
		})
	}

	log.WithFields(log.Fields{
		"event_id": eventID,
		"status":   status,
		"settled":  result.Settled,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("Settlement pass finished")

	return result, nil
}
