package betmaker

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"betline/metrics"
	"betline/service"
)

const maxPollBackoff = 5 * time.Minute

// Poller periodically pulls the full event listing from the line provider
// and folds it into the local mirror. It is the safety net that catches
// status changes the stream missed.
type Poller struct {
	client   service.LineProviderClient
	mirror   service.EventMirrorService
	interval time.Duration
}

// NewPoller creates a poller that lists provider events every interval.
func NewPoller(client service.LineProviderClient, mirror service.EventMirrorService, interval time.Duration) *Poller {
	return &Poller{client: client, mirror: mirror, interval: interval}
}

// Run polls until the context is cancelled. Consecutive failures stretch the
// interval exponentially up to maxPollBackoff.
func (p *Poller) Run(ctx context.Context) {
	log.WithField("interval", p.interval).Info("Event polling started")

	consecutiveFailures := 0
	for {
		delay := p.interval
		if err := p.poll(ctx); err != nil {
			consecutiveFailures++
			delay = pollBackoff(p.interval, consecutiveFailures)
			log.WithFields(log.Fields{
				"attempt":  consecutiveFailures,
				"retry_in": delay,
				"error":    err,
			}).Warn("Event poll failed")
		} else {
			consecutiveFailures = 0
		}

		select {
		case <-ctx.Done():
			log.Info("Event polling stopped")
			return
		case <-time.After(delay):
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	events, err := p.client.ListEvents(ctx)
	if err != nil {
		return err
	}

	settled := 0
	for _, event := range events {
		result, err := p.mirror.Sync(ctx, event)
		if err != nil {
			log.WithFields(log.Fields{
				"event_id": event.ID,
				"error":    err,
			}).Error("Failed to sync event")
			continue
		}
		settled += result.Settled
		metrics.SettlementFailures.Add(float64(result.Failed))
	}

	if settled > 0 {
		log.WithField("settled", settled).Info("Settled bets from poll")
	}
	return nil
}

func pollBackoff(base time.Duration, failures int) time.Duration {
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxPollBackoff {
			return maxPollBackoff
		}
	}
	return delay
}
