package lineprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"betline/contracts"
	"betline/events"
)

// Publisher bridges status changes from the event bus onto Kafka
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Kafka publisher for status change notifications
func NewPublisher(brokers []string) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  contracts.TopicEventStatusChanged,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
	}
	return &Publisher{writer: writer}
}

// Attach subscribes the publisher to status changes on the bus. Publish
// failures are logged and dropped; consumers recover through polling.
func (p *Publisher) Attach(bus *events.Bus) {
	bus.Subscribe(events.EventTypeEventStatusChanged, func(ctx context.Context, e events.Event) {
		statusChange, ok := e.(events.EventStatusChangedEvent)
		if !ok {
			return
		}
		if err := p.publish(ctx, statusChange); err != nil {
			log.WithFields(log.Fields{
				"event_id": statusChange.EventID,
				"error":    err,
			}).Error("Failed to publish status change")
			return
		}
		log.WithFields(log.Fields{
			"event_id":   statusChange.EventID,
			"new_status": statusChange.NewStatus,
		}).Debug("Published status change")
	})
}

func (p *Publisher) publish(ctx context.Context, statusChange events.EventStatusChangedEvent) error {
	message := contracts.EventStatusChangedMessage{
		EventID:     statusChange.EventID,
		Coefficient: statusChange.Coefficient,
		Deadline:    statusChange.Deadline,
		OldStatus:   string(statusChange.OldStatus),
		NewStatus:   string(statusChange.NewStatus),
		OccurredAt:  time.Now().UTC(),
	}

	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal status change: %w", err)
	}

	// Keyed by event id so per-event ordering survives partitioning
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(statusChange.EventID, 10)),
		Value: value,
		Time:  time.Now(),
	})
}

// Close flushes and releases the writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
