package service

import (
	"context"

	"github.com/shopspring/decimal"

	"betline/events"
	"betline/models"
)

// EventStore defines the interface for line provider event persistence.
// Implementations guarantee that operations on the same event are serialized.
type EventStore interface {
	// Create inserts a new event with a client-assigned id
	Create(ctx context.Context, event *models.Event) (*models.Event, error)

	// Update replaces the coefficient and deadline of an event that is still open
	Update(ctx context.Context, event *models.Event) (*models.Event, error)

	// Transition moves an event to a terminal status, enforcing terminal-once
	Transition(ctx context.Context, id int64, status models.EventStatus) (*models.Event, error)

	// GetByID retrieves an event by its ID, nil when absent
	GetByID(ctx context.Context, id int64) (*models.Event, error)

	// GetAll returns a page of events ordered by id
	GetAll(ctx context.Context, limit, offset int) ([]*models.Event, error)

	// GetActive returns a page of events that still accept bets, soonest deadline first
	GetActive(ctx context.Context, limit, offset int) ([]*models.Event, error)
}

// EventRepository defines the interface for the bet maker's local event mirror
type EventRepository interface {
	// GetByID retrieves an event by its ID, nil when absent
	GetByID(ctx context.Context, id int64) (*models.Event, error)

	// GetByIDForUpdate retrieves an event by its ID, locking the row until the
	// enclosing transaction completes
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Event, error)

	// Upsert inserts or refreshes an event without ever downgrading a
	// terminal status
	Upsert(ctx context.Context, event *models.Event) error

	// UpdateStatus moves an open event to the given status. Returns false
	// when the event was already terminal.
	UpdateStatus(ctx context.Context, id int64, status models.EventStatus) (bool, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create inserts a new bet and fills in its assigned ID
	Create(ctx context.Context, bet *models.Bet) error

	// GetByID retrieves a bet by its ID, nil when absent
	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// GetAll returns a page of bets, newest first, optionally filtered by status
	GetAll(ctx context.Context, limit, offset int, status *models.BetStatus) ([]*models.Bet, error)

	// GetPendingByEvent returns all pending bets on an event
	GetPendingByEvent(ctx context.Context, eventID int64) ([]*models.Bet, error)

	// Settle marks a pending bet settled with the given status and payout.
	// Returns false when the bet had already left the pending state.
	Settle(ctx context.Context, betID int64, status models.BetStatus, payout decimal.Decimal) (bool, error)
}

// EventService defines the interface for line provider event operations
type EventService interface {
	// CreateEvent registers a new event after validating it
	CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error)

	// UpdateEvent replaces the coefficient and deadline of an open event
	UpdateEvent(ctx context.Context, event *models.Event) (*models.Event, error)

	// Transition moves an event from NEW to a terminal status and notifies
	// subscribers after the change is durable
	Transition(ctx context.Context, eventID int64, status models.EventStatus) (*models.Event, error)

	// GetEvent retrieves a single event
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)

	// ListEvents returns a page of all events
	ListEvents(ctx context.Context, limit, offset int) ([]*models.Event, error)

	// ListActiveEvents returns a page of events that still accept bets
	ListActiveEvents(ctx context.Context, limit, offset int) ([]*models.Event, error)
}

// BetService defines the interface for bet maker operations
type BetService interface {
	// PlaceBet accepts a stake on an open event, snapshotting the current
	// coefficient
	PlaceBet(ctx context.Context, eventID int64, amount decimal.Decimal) (*models.Bet, error)

	// GetBet retrieves a bet by its ID
	GetBet(ctx context.Context, betID int64) (*models.Bet, error)

	// ListBets returns a page of bets, newest first, optionally filtered by status
	ListBets(ctx context.Context, limit, offset int, status *models.BetStatus) ([]*models.Bet, error)
}

// SettlementService settles pending bets once their event reaches a terminal status
type SettlementService interface {
	// SettleEvent settles every pending bet on the event. Individual bet
	// failures are counted in the result, never propagated.
	SettleEvent(ctx context.Context, eventID int64, status models.EventStatus) (*models.SettlementResult, error)
}

// EventMirrorService keeps the bet maker's local event mirror in sync with
// the line provider and triggers settlement on terminal transitions
type EventMirrorService interface {
	// Sync folds a provider-side event snapshot into the local mirror. When
	// the snapshot is terminal the event's bets are settled synchronously
	// before Sync returns.
	Sync(ctx context.Context, remote *models.Event) (*models.SettlementResult, error)

	// GetOrFetch returns the local mirror row for the event, fetching it
	// from the line provider when the mirror has no entry
	GetOrFetch(ctx context.Context, eventID int64) (*models.Event, error)
}

// LineProviderClient defines the interface for reading events from the line provider
type LineProviderClient interface {
	// GetEvent fetches a single event
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)

	// ListEvents fetches all events
	ListEvents(ctx context.Context) ([]*models.Event, error)

	// ListActiveEvents fetches the events that still accept bets
	ListActiveEvents(ctx context.Context) ([]*models.Event, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	EventRepository() EventRepository
	BetRepository() BetRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
