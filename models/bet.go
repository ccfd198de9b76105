package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetStatus represents the settlement state of a bet
type BetStatus string

const (
	BetStatusPending  BetStatus = "PENDING"
	BetStatusWon      BetStatus = "WON"
	BetStatusLost     BetStatus = "LOST"
	BetStatusRefunded BetStatus = "REFUNDED"
)

// IsValid checks if the status is one of the known bet states
func (s BetStatus) IsValid() bool {
	switch s {
	case BetStatusPending, BetStatusWon, BetStatusLost, BetStatusRefunded:
		return true
	}
	return false
}

// IsSettled checks if the bet has left the pending state
func (s BetStatus) IsSettled() bool {
	return s.IsValid() && s != BetStatusPending
}

// Bet represents a placed bet with the coefficient captured at placement time
type Bet struct {
	ID                     int64            `db:"id"`
	EventID                int64            `db:"event_id"`
	Amount                 decimal.Decimal  `db:"amount"`
	CoefficientAtPlacement decimal.Decimal  `db:"coefficient_at_placement"`
	Status                 BetStatus        `db:"status"`
	Payout                 *decimal.Decimal `db:"payout"`
	CreatedAt              time.Time        `db:"created_at"`
	SettledAt              *time.Time       `db:"settled_at"`
}

// SettlementOutcome maps a terminal event status to the bet status it produces.
// The boolean is false when the event status is not terminal.
func SettlementOutcome(s EventStatus) (BetStatus, bool) {
	switch s {
	case EventStatusFinishedWin:
		return BetStatusWon, true
	case EventStatusFinishedLose:
		return BetStatusLost, true
	case EventStatusCancelled:
		return BetStatusRefunded, true
	}
	return "", false
}

// PayoutFor computes the payout this bet receives when settled to the given
// status: stake times the placement coefficient for a win, the stake back for
// a refund, zero for a loss. Winnings are rounded to two decimal places.
func (b *Bet) PayoutFor(status BetStatus) decimal.Decimal {
	switch status {
	case BetStatusWon:
		return b.Amount.Mul(b.CoefficientAtPlacement).Round(2)
	case BetStatusRefunded:
		return b.Amount
	default:
		return decimal.Zero
	}
}

// SettlementResult summarizes one settlement pass over an event's bets
type SettlementResult struct {
	EventID int64
	Settled int
	Skipped int
	Failed  int
}

// ValidateAmount validates a stake: strictly positive with exactly two
// decimal places
func ValidateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return &InvalidAmountError{Reason: "must be greater than 0"}
	}
	if a.Exponent() != -2 {
		return &InvalidAmountError{Reason: "must have exactly 2 decimal places"}
	}
	return nil
}
