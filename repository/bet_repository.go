package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"betline/database"
	"betline/models"
)

// BetRepository implements bet data access over postgres
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// Create inserts a new bet and fills in its assigned ID
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (event_id, amount, coefficient_at_placement, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.EventID,
		bet.Amount,
		bet.CoefficientAtPlacement,
		bet.Status,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet on event %d: %w", bet.EventID, err)
	}

	return nil
}

// GetByID retrieves a bet by its ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	query := `
		SELECT id, event_id, amount, coefficient_at_placement, status, payout, created_at, settled_at
		FROM bets
		WHERE id = $1
	`

	var bet models.Bet
	err := r.q.QueryRow(ctx, query, id).Scan(
		&bet.ID,
		&bet.EventID,
		&bet.Amount,
		&bet.CoefficientAtPlacement,
		&bet.Status,
		&bet.Payout,
		&bet.CreatedAt,
		&bet.SettledAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}

	return &bet, nil
}

// GetAll returns a page of bets, newest first, optionally filtered by status
func (r *BetRepository) GetAll(ctx context.Context, limit, offset int, status *models.BetStatus) ([]*models.Bet, error) {
	var query string
	var args []interface{}

	if status != nil {
		query = `
			SELECT id, event_id, amount, coefficient_at_placement, status, payout, created_at, settled_at
			FROM bets
			WHERE status = $1
			ORDER BY id DESC
			LIMIT $2 OFFSET $3
		`
		args = append(args, *status, limit, offset)
	} else {
		query = `
			SELECT id, event_id, amount, coefficient_at_placement, status, payout, created_at, settled_at
			FROM bets
			ORDER BY id DESC
			LIMIT $1 OFFSET $2
		`
		args = append(args, limit, offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}
	defer rows.Close()

	return scanBets(rows)
}

// GetPendingByEvent returns all pending bets on an event, oldest first
func (r *BetRepository) GetPendingByEvent(ctx context.Context, eventID int64) ([]*models.Bet, error) {
	query := `
		SELECT id, event_id, amount, coefficient_at_placement, status, payout, created_at, settled_at
		FROM bets
		WHERE event_id = $1 AND status = 'PENDING'
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending bets for event %d: %w", eventID, err)
	}
	defer rows.Close()

	return scanBets(rows)
}

// Settle marks a pending bet settled with the given status and payout. The
// guard on the current status makes repeat settlement a no-op: returns false
// when the bet had already left the pending state.
func (r *BetRepository) Settle(ctx context.Context, betID int64, status models.BetStatus, payout decimal.Decimal) (bool, error) {
	query := `
		UPDATE bets
		SET status = $2, payout = $3, settled_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`

	result, err := r.q.Exec(ctx, query, betID, status, payout)
	if err != nil {
		return false, fmt.Errorf("failed to settle bet %d: %w", betID, err)
	}

	return result.RowsAffected() > 0, nil
}

// scanBets reads bet rows into models
func scanBets(rows pgx.Rows) ([]*models.Bet, error) {
	var bets []*models.Bet
	for rows.Next() {
		var bet models.Bet
		err := rows.Scan(
			&bet.ID,
			&bet.EventID,
			&bet.Amount,
			&bet.CoefficientAtPlacement,
			&bet.Status,
			&bet.Payout,
			&bet.CreatedAt,
			&bet.SettledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}
