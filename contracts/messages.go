package contracts

import (
	"time"

	"github.com/shopspring/decimal"

	"betline/models"
)

// EventStatusChangedMessage is published on TopicEventStatusChanged whenever
// an event changes status. It carries the full event snapshot so consumers
// can mirror events they have never seen.
type EventStatusChangedMessage struct {
	EventID     int64           `json:"event_id"`
	Coefficient decimal.Decimal `json:"coefficient"`
	Deadline    int64           `json:"deadline"`
	OldStatus   string          `json:"old_status"`
	NewStatus   string          `json:"new_status"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Event reconstructs the event snapshot carried by the message
func (m *EventStatusChangedMessage) Event() *models.Event {
	return &models.Event{
		ID:          m.EventID,
		Coefficient: m.Coefficient,
		Deadline:    m.Deadline,
		Status:      models.EventStatus(m.NewStatus),
	}
}
