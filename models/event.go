package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventStatus represents the lifecycle state of a betting event
type EventStatus string

const (
	EventStatusNew          EventStatus = "NEW"
	EventStatusFinishedWin  EventStatus = "FINISHED_WIN"
	EventStatusFinishedLose EventStatus = "FINISHED_LOSE"
	EventStatusCancelled    EventStatus = "CANCELLED"
)

// IsValid checks if the status is one of the known lifecycle states
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusNew, EventStatusFinishedWin, EventStatusFinishedLose, EventStatusCancelled:
		return true
	}
	return false
}

// IsTerminal checks if the status is final and admits no further transitions
func (s EventStatus) IsTerminal() bool {
	switch s {
	case EventStatusFinishedWin, EventStatusFinishedLose, EventStatusCancelled:
		return true
	}
	return false
}

// Event represents a betting event published by the line provider
type Event struct {
	ID          int64           `db:"id"`
	Coefficient decimal.Decimal `db:"coefficient"`
	Deadline    int64           `db:"deadline"`
	Status      EventStatus     `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// IsActive checks if the event still accepts bets
func (e *Event) IsActive() bool {
	return e.Status == EventStatusNew && time.Now().Unix() < e.Deadline
}

// IsFinished checks if the event has reached a terminal status
func (e *Event) IsFinished() bool {
	return e.Status.IsTerminal()
}

// DeadlinePassed checks if the betting deadline is in the past
func (e *Event) DeadlinePassed() bool {
	return time.Now().Unix() >= e.Deadline
}

// CanTransitionTo checks if the event may move to the given status
func (e *Event) CanTransitionTo(next EventStatus) bool {
	return e.Status == EventStatusNew && next.IsTerminal()
}

// ValidateCoefficient validates an odds coefficient: strictly positive with
// exactly two decimal places
func ValidateCoefficient(c decimal.Decimal) error {
	if !c.IsPositive() {
		return &ValidationError{Field: "coefficient", Message: "must be greater than 0"}
	}
	if c.Exponent() != -2 {
		return &ValidationError{Field: "coefficient", Message: "must have exactly 2 decimal places"}
	}
	return nil
}

// ValidateDeadline validates an event deadline: a positive unix timestamp in
// the future
func ValidateDeadline(deadline int64) error {
	if deadline <= 0 || deadline <= time.Now().Unix() {
		return &InvalidDeadlineError{Deadline: deadline}
	}
	return nil
}
