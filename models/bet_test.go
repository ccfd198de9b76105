package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     EventStatus
		want       BetStatus
		wantMapped bool
	}{
		{
			name:       "finished win settles to won",
			status:     EventStatusFinishedWin,
			want:       BetStatusWon,
			wantMapped: true,
		},
		{
			name:       "finished lose settles to lost",
			status:     EventStatusFinishedLose,
			want:       BetStatusLost,
			wantMapped: true,
		},
		{
			name:       "cancelled settles to refunded",
			status:     EventStatusCancelled,
			want:       BetStatusRefunded,
			wantMapped: true,
		},
		{
			name:       "new has no outcome",
			status:     EventStatusNew,
			wantMapped: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := SettlementOutcome(tt.status)
			assert.Equal(t, tt.wantMapped, ok)
			if tt.wantMapped {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBet_PayoutFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		amount      string
		coefficient string
		status      BetStatus
		want        string
	}{
		{
			name:        "win pays stake times coefficient",
			amount:      "100.00",
			coefficient: "2.50",
			status:      BetStatusWon,
			want:        "250.00",
		},
		{
			name:        "loss pays nothing",
			amount:      "100.00",
			coefficient: "2.50",
			status:      BetStatusLost,
			want:        "0",
		},
		{
			name:        "refund returns the stake",
			amount:      "100.00",
			coefficient: "2.50",
			status:      BetStatusRefunded,
			want:        "100.00",
		},
		{
			name:        "winnings rounded to two decimal places",
			amount:      "33.33",
			coefficient: "1.15",
			status:      BetStatusWon,
			want:        "38.33",
		},
		{
			name:        "small stake at long odds",
			amount:      "0.01",
			coefficient: "1.67",
			status:      BetStatusWon,
			want:        "0.02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bet := &Bet{
				ID:                     1,
				EventID:                1,
				Amount:                 decimal.RequireFromString(tt.amount),
				CoefficientAtPlacement: decimal.RequireFromString(tt.coefficient),
				Status:                 BetStatusPending,
			}

			got := bet.PayoutFor(tt.status)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"payout = %s, want %s", got, tt.want)
		})
	}
}

func TestBet_PayoutUsesPlacementCoefficient(t *testing.T) {
	t.Parallel()

	// The snapshot taken at placement drives the payout even if the event's
	// coefficient changed afterwards.
	bet := &Bet{
		ID:                     7,
		EventID:                3,
		Amount:                 decimal.RequireFromString("50.00"),
		CoefficientAtPlacement: decimal.RequireFromString("1.67"),
		Status:                 BetStatusPending,
	}

	got := bet.PayoutFor(BetStatusWon)
	assert.True(t, got.Equal(decimal.RequireFromString("83.50")), "payout = %s", got)
}

func TestBetStatus_IsSettled(t *testing.T) {
	t.Parallel()

	assert.False(t, BetStatusPending.IsSettled())
	assert.True(t, BetStatusWon.IsSettled())
	assert.True(t, BetStatusLost.IsSettled())
	assert.True(t, BetStatusRefunded.IsSettled())
	assert.False(t, BetStatus("VOID").IsSettled())
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{
			name:  "two decimal places",
			value: "100.00",
		},
		{
			name:  "minimum stake",
			value: "0.01",
		},
		{
			name:    "zero",
			value:   "0.00",
			wantErr: true,
		},
		{
			name:    "negative",
			value:   "-5.00",
			wantErr: true,
		},
		{
			name:    "one decimal place",
			value:   "10.5",
			wantErr: true,
		},
		{
			name:    "three decimal places",
			value:   "10.555",
			wantErr: true,
		},
		{
			name:    "integer",
			value:   "10",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAmount(decimal.RequireFromString(tt.value))
			if tt.wantErr {
				require.Error(t, err)
				var amountErr *InvalidAmountError
				assert.ErrorAs(t, err, &amountErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
