package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"betline/models"
)

// CreateTestEvent creates an open test event with default values
func CreateTestEvent(id int64) *models.Event {
	return &models.Event{
		ID:          id,
		Coefficient: decimal.RequireFromString("1.20"),
		Deadline:    time.Now().Add(10 * time.Minute).Unix(),
		Status:      models.EventStatusNew,
	}
}

// CreateTestEventWithCoefficient creates a test event with a specific coefficient
func CreateTestEventWithCoefficient(id int64, coefficient string) *models.Event {
	event := CreateTestEvent(id)
	event.Coefficient = decimal.RequireFromString(coefficient)
	return event
}

// CreateTestEventWithDeadline creates a test event with a specific deadline
func CreateTestEventWithDeadline(id int64, deadline time.Time) *models.Event {
	event := CreateTestEvent(id)
	event.Deadline = deadline.Unix()
	return event
}

// CreateTestBet creates a pending test bet with default values
func CreateTestBet(eventID int64) *models.Bet {
	return &models.Bet{
		EventID:                eventID,
		Amount:                 decimal.RequireFromString("100.00"),
		CoefficientAtPlacement: decimal.RequireFromString("1.20"),
		Status:                 models.BetStatusPending,
	}
}

// CreateTestBetWithAmount creates a pending test bet with a specific stake
func CreateTestBetWithAmount(eventID int64, amount string) *models.Bet {
	bet := CreateTestBet(eventID)
	bet.Amount = decimal.RequireFromString(amount)
	return bet
}
