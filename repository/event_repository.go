package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"betline/database"
	"betline/models"
)

// EventRepository implements the bet maker's local event mirror over postgres
type EventRepository struct {
	q queryable
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{q: db.Pool}
}

// newEventRepositoryWithTx creates a new event repository with a transaction
func newEventRepositoryWithTx(tx queryable) *EventRepository {
	return &EventRepository{q: tx}
}

// GetByID retrieves an event by its ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `
		SELECT id, coefficient, deadline, status, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	event, err := scanEventRow(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}

	return event, nil
}

// GetByIDForUpdate retrieves an event by its ID and locks the row until the
// enclosing transaction completes. Placement and settlement serialize on this
// lock.
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	query := `
		SELECT id, coefficient, deadline, status, created_at, updated_at
		FROM events
		WHERE id = $1
		FOR UPDATE
	`

	event, err := scanEventRow(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d for update: %w", id, err)
	}

	return event, nil
}

// Upsert inserts or refreshes an event. A terminal status already recorded
// locally is never downgraded, and coefficient updates only apply while the
// local row is still open.
func (r *EventRepository) Upsert(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, coefficient, deadline, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET coefficient = EXCLUDED.coefficient,
		    deadline = EXCLUDED.deadline,
		    status = EXCLUDED.status,
		    updated_at = NOW()
		WHERE events.status = 'NEW'
	`

	_, err := r.q.Exec(ctx, query, event.ID, event.Coefficient, event.Deadline, event.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert event %d: %w", event.ID, err)
	}

	return nil
}

// UpdateStatus moves an open event to the given status. Returns false when
// the event was missing or had already reached a terminal status.
func (r *EventRepository) UpdateStatus(ctx context.Context, id int64, status models.EventStatus) (bool, error) {
	query := `
		UPDATE events
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'NEW'
	`

	result, err := r.q.Exec(ctx, query, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update status of event %d: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

// scanEventRow scans a single event row in column order
func scanEventRow(row pgx.Row) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID,
		&event.Coefficient,
		&event.Deadline,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
