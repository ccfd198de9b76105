package models

import "fmt"

// NotFoundError indicates the requested entity does not exist
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// NewEventNotFoundError creates a NotFoundError for an event
func NewEventNotFoundError(id int64) *NotFoundError {
	return &NotFoundError{Kind: "event", ID: id}
}

// NewBetNotFoundError creates a NotFoundError for a bet
func NewBetNotFoundError(id int64) *NotFoundError {
	return &NotFoundError{Kind: "bet", ID: id}
}

// AlreadyExistsError indicates a create collided with an existing entity
type AlreadyExistsError struct {
	Kind string
	ID   int64
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %d already exists", e.Kind, e.ID)
}

// InvalidTransitionError indicates a status change the event lifecycle forbids
type InvalidTransitionError struct {
	EventID int64
	From    EventStatus
	To      EventStatus
}

func (e *InvalidTransitionError) Error() string {
	switch {
	case e.To == "":
		return fmt.Sprintf("event %d has finished and cannot be changed (status %s)", e.EventID, e.From)
	case e.From == "":
		return fmt.Sprintf("event %d cannot transition to %s", e.EventID, e.To)
	default:
		return fmt.Sprintf("event %d cannot transition from %s to %s", e.EventID, e.From, e.To)
	}
}

// EventNotOpenError indicates a bet on an event that no longer accepts bets
type EventNotOpenError struct {
	EventID int64
	Status  EventStatus
}

func (e *EventNotOpenError) Error() string {
	return fmt.Sprintf("event %d is not open for betting (status %s)", e.EventID, e.Status)
}

// DeadlinePassedError indicates a bet placed after the betting deadline
type DeadlinePassedError struct {
	EventID  int64
	Deadline int64
}

func (e *DeadlinePassedError) Error() string {
	return fmt.Sprintf("betting deadline for event %d has passed", e.EventID)
}

// InvalidAmountError indicates a stake that violates the amount rules
type InvalidAmountError struct {
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid bet amount: %s", e.Reason)
}

// InvalidDeadlineError indicates an event deadline that is not in the future
type InvalidDeadlineError struct {
	Deadline int64
}

func (e *InvalidDeadlineError) Error() string {
	return fmt.Sprintf("event deadline %d must be a unix timestamp in the future", e.Deadline)
}

// IDMismatchError indicates a payload id that contradicts the path id
type IDMismatchError struct {
	PathID int64
	BodyID int64
}

func (e *IDMismatchError) Error() string {
	return fmt.Sprintf("event id in path (%d) does not match id in body (%d)", e.PathID, e.BodyID)
}

// ValidationError indicates a field value that fails domain validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConflictError indicates a concurrent modification; the operation may be retried
type ConflictError struct {
	Kind string
	ID   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently", e.Kind, e.ID)
}

// StorageTimeoutError indicates a persistence call exceeded its deadline
type StorageTimeoutError struct {
	Op  string
	Err error
}

func (e *StorageTimeoutError) Error() string {
	return fmt.Sprintf("storage timeout during %s: %v", e.Op, e.Err)
}

func (e *StorageTimeoutError) Unwrap() error {
	return e.Err
}

// RemoteUnavailableError indicates the line provider could not be reached
type RemoteUnavailableError struct {
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("line provider unavailable: %v", e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}
