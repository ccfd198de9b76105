package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"betline/events"
)

var (
	EventsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "betline_events_created_total",
		Help: "Events registered by the line provider",
	})
	EventTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "betline_event_transitions_total",
		Help: "Terminal status transitions by target status",
	}, []string{"status"})
	BetsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "betline_bets_placed_total",
		Help: "Bets accepted by the bet maker",
	})
	BetsSettled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "betline_bets_settled_total",
		Help: "Bets settled by outcome",
	}, []string{"status"})
	SettlementFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "betline_settlement_failures_total",
		Help: "Bets left pending by a failed settlement attempt",
	})
)

// Register registers all collectors with the default registry
func Register() {
	prometheus.MustRegister(
		EventsCreated,
		EventTransitions,
		BetsPlaced,
		BetsSettled,
		SettlementFailures,
	)
}

// ObserveBus counts domain events as they cross the bus
func ObserveBus(bus *events.Bus) {
	bus.Subscribe(events.EventTypeEventStatusChanged, func(ctx context.Context, e events.Event) {
		if statusChange, ok := e.(events.EventStatusChangedEvent); ok {
			EventTransitions.WithLabelValues(string(statusChange.NewStatus)).Inc()
		}
	})
	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, e events.Event) {
		BetsPlaced.Inc()
	})
	bus.Subscribe(events.EventTypeBetSettled, func(ctx context.Context, e events.Event) {
		if settled, ok := e.(events.BetSettledEvent); ok {
			BetsSettled.WithLabelValues(string(settled.Status)).Inc()
		}
	})
}
