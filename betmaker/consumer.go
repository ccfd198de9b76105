package betmaker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"betline/contracts"
	"betline/metrics"
	"betline/service"
)

// Consumer reads status change notifications from Kafka and folds them into
// the local mirror. Messages are keyed by event id, so per-event ordering
// holds within a partition.
type Consumer struct {
	reader *kafka.Reader
	mirror service.EventMirrorService
}

// NewConsumer creates a consumer group member on the status change topic.
func NewConsumer(brokers []string, groupID string, mirror service.EventMirrorService) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          contracts.TopicEventStatusChanged,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	return &Consumer{reader: reader, mirror: mirror}
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	log.WithField("topic", contracts.TopicEventStatusChanged).Info("Status change consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Status change consumer stopped")
				return
			}
			log.WithField("error", err).Warn("Failed to read status change message")
			time.Sleep(time.Second)
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var statusChange contracts.EventStatusChangedMessage
	if err := json.Unmarshal(msg.Value, &statusChange); err != nil {
		log.WithFields(log.Fields{
			"offset": msg.Offset,
			"error":  err,
		}).Error("Failed to decode status change message")
		return
	}

	result, err := c.mirror.Sync(ctx, statusChange.Event())
	if err != nil {
		log.WithFields(log.Fields{
			"event_id": statusChange.EventID,
			"error":    err,
		}).Error("Failed to apply status change")
		return
	}

	metrics.SettlementFailures.Add(float64(result.Failed))
	log.WithFields(log.Fields{
		"event_id": statusChange.EventID,
		"status":   statusChange.NewStatus,
		"settled":  result.Settled,
		"skipped":  result.Skipped,
	}).Info("Applied status change")
}

// Close releases the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
