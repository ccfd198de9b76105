package contracts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"betline/models"
)

// EventRequest is the payload for creating or updating an event
type EventRequest struct {
	EventID     int64           `json:"event_id"`
	Coefficient decimal.Decimal `json:"coefficient"`
	Deadline    int64           `json:"deadline"`
	Status      *string         `json:"status,omitempty"`
}

// EventResponse is the wire representation of an event
type EventResponse struct {
	EventID     int64           `json:"event_id"`
	Coefficient decimal.Decimal `json:"coefficient"`
	Deadline    int64           `json:"deadline"`
	Status      string          `json:"status"`
}

// StatusRequest is the payload for transitioning an event
type StatusRequest struct {
	Status string `json:"status"`
}

// BetRequest is the payload for placing a bet
type BetRequest struct {
	EventID int64           `json:"event_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// BetResponse is the wire representation of a bet
type BetResponse struct {
	BetID       int64            `json:"bet_id"`
	EventID     int64            `json:"event_id"`
	Amount      decimal.Decimal  `json:"amount"`
	Coefficient decimal.Decimal  `json:"coefficient"`
	Status      string           `json:"status"`
	Payout      *decimal.Decimal `json:"payout"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ErrorDetail carries the machine-readable failure description
type ErrorDetail struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	ErrorType  string `json:"error_type"`
}

// ErrorResponse is the error envelope returned by every API failure
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// NewEventResponse converts an event to its wire representation
func NewEventResponse(event *models.Event) EventResponse {
	return EventResponse{
		EventID:     event.ID,
		Coefficient: event.Coefficient,
		Deadline:    event.Deadline,
		Status:      string(event.Status),
	}
}

// NewEventResponses converts a slice of events to wire representations
func NewEventResponses(events []*models.Event) []EventResponse {
	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, NewEventResponse(event))
	}
	return responses
}

// NewBetResponse converts a bet to its wire representation
func NewBetResponse(bet *models.Bet) BetResponse {
	return BetResponse{
		BetID:       bet.ID,
		EventID:     bet.EventID,
		Amount:      bet.Amount,
		Coefficient: bet.CoefficientAtPlacement,
		Status:      string(bet.Status),
		Payout:      bet.Payout,
		CreatedAt:   bet.CreatedAt,
	}
}

// NewBetResponses converts a slice of bets to wire representations
func NewBetResponses(bets []*models.Bet) []BetResponse {
	responses := make([]BetResponse, 0, len(bets))
	for _, bet := range bets {
		responses = append(responses, NewBetResponse(bet))
	}
	return responses
}

// ToEvent converts a wire event back to the domain model.
func (r *EventResponse) ToEvent() (*models.Event, error) {
	status := models.EventStatus(r.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("unknown event status %q", r.Status)
	}
	return &models.Event{
		ID:          r.EventID,
		Coefficient: r.Coefficient,
		Deadline:    r.Deadline,
		Status:      status,
	}, nil
}

// ToEvent converts an event payload to the domain model. A missing status
// defaults to NEW.
func (r *EventRequest) ToEvent() *models.Event {
	status := models.EventStatusNew
	if r.Status != nil {
		status = models.EventStatus(*r.Status)
	}
	return &models.Event{
		ID:          r.EventID,
		Coefficient: r.Coefficient,
		Deadline:    r.Deadline,
		Status:      status,
	}
}
