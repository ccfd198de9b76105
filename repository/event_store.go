package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"betline/database"
	"betline/models"
)

// PostgresEventStore implements the line provider's event store over postgres.
// Transitions and updates lock the event row so operations on the same event
// are serialized.
type PostgresEventStore struct {
	db *database.DB
}

// NewPostgresEventStore creates a new postgres-backed event store
func NewPostgresEventStore(db *database.DB) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

// Create inserts a new event with a client-assigned id
func (s *PostgresEventStore) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	query := `
		INSERT INTO events (id, coefficient, deadline, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, coefficient, deadline, status, created_at, updated_at
	`

	created, err := scanEventRow(s.db.QueryRow(ctx, query, event.ID, event.Coefficient, event.Deadline, event.Status))
	if err == pgx.ErrNoRows {
		return nil, &models.AlreadyExistsError{Kind: "event", ID: event.ID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create event %d: %w", event.ID, err)
	}

	return created, nil
}

// Update replaces the coefficient and deadline of an event that is still open
func (s *PostgresEventStore) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	var updated *models.Event

	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		current, err := scanEventRow(tx.QueryRow(ctx, `
			SELECT id, coefficient, deadline, status, created_at, updated_at
			FROM events
			WHERE id = $1
			FOR UPDATE
		`, event.ID))
		if err == pgx.ErrNoRows {
			return models.NewEventNotFoundError(event.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to lock event %d: %w", event.ID, err)
		}

		if current.Status.IsTerminal() {
			return &models.InvalidTransitionError{EventID: event.ID, From: current.Status}
		}

		updated, err = scanEventRow(tx.QueryRow(ctx, `
			UPDATE events
			SET coefficient = $2, deadline = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING id, coefficient, deadline, status, created_at, updated_at
		`, event.ID, event.Coefficient, event.Deadline))
		if err != nil {
			return fmt.Errorf("failed to update event %d: %w", event.ID, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Transition moves an event to a terminal status, enforcing terminal-once
func (s *PostgresEventStore) Transition(ctx context.Context, id int64, status models.EventStatus) (*models.Event, error) {
	var updated *models.Event

	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		current, err := scanEventRow(tx.QueryRow(ctx, `
			SELECT id, coefficient, deadline, status, created_at, updated_at
			FROM events
			WHERE id = $1
			FOR UPDATE
		`, id))
		if err == pgx.ErrNoRows {
			return models.NewEventNotFoundError(id)
		}
		if err != nil {
			return fmt.Errorf("failed to lock event %d: %w", id, err)
		}

		if !current.CanTransitionTo(status) {
			return &models.InvalidTransitionError{EventID: id, From: current.Status, To: status}
		}

		updated, err = scanEventRow(tx.QueryRow(ctx, `
			UPDATE events
			SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, coefficient, deadline, status, created_at, updated_at
		`, id, status))
		if err != nil {
			return fmt.Errorf("failed to transition event %d: %w", id, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// GetByID retrieves an event by its ID
func (s *PostgresEventStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `
		SELECT id, coefficient, deadline, status, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	event, err := scanEventRow(s.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}

	return event, nil
}

// GetAll returns a page of events ordered by id
func (s *PostgresEventStore) GetAll(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	query := `
		SELECT id, coefficient, deadline, status, created_at, updated_at
		FROM events
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetActive returns a page of events that still accept bets, soonest deadline first
func (s *PostgresEventStore) GetActive(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	query := `
		SELECT id, coefficient, deadline, status, created_at, updated_at
		FROM events
		WHERE status = 'NEW' AND deadline > EXTRACT(EPOCH FROM NOW())::BIGINT
		ORDER BY deadline, id
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get active events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// scanEvents reads event rows into models
func scanEvents(rows pgx.Rows) ([]*models.Event, error) {
	var events []*models.Event
	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.Coefficient,
			&event.Deadline,
			&event.Status,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}
