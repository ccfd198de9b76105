package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betline/models"
	"betline/repository/testutil"
)

func TestEventRepository_Upsert(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEventRepository(testDB.DB)
	ctx := context.Background()

	t.Run("inserts unknown event", func(t *testing.T) {
		event := testutil.CreateTestEventWithCoefficient(1, "1.67")

		err := repo.Upsert(ctx, event)
		require.NoError(t, err)

		stored, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "1.67", stored.Coefficient.StringFixed(2))
		assert.Equal(t, models.EventStatusNew, stored.Status)
	})

	t.Run("refreshes open event", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestEventWithCoefficient(2, "1.20")))

		refreshed := testutil.CreateTestEventWithCoefficient(2, "2.10")
		require.NoError(t, repo.Upsert(ctx, refreshed))

		stored, err := repo.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "2.10", stored.Coefficient.StringFixed(2))
	})

	t.Run("never downgrades a terminal status", func(t *testing.T) {
		event := testutil.CreateTestEventWithCoefficient(3, "1.50")
		event.Status = models.EventStatusCancelled
		require.NoError(t, repo.Upsert(ctx, event))

		// A stale open snapshot arrives after the terminal one
		stale := testutil.CreateTestEventWithCoefficient(3, "9.99")
		require.NoError(t, repo.Upsert(ctx, stale))

		stored, err := repo.GetByID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusCancelled, stored.Status)
		assert.Equal(t, "1.50", stored.Coefficient.StringFixed(2))
	})
}

func TestEventRepository_UpdateStatus(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEventRepository(testDB.DB)
	ctx := context.Background()

	t.Run("moves open event to terminal", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestEvent(1)))

		updated, err := repo.UpdateStatus(ctx, 1, models.EventStatusFinishedWin)
		require.NoError(t, err)
		assert.True(t, updated)

		stored, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusFinishedWin, stored.Status)
	})

	t.Run("already terminal", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestEvent(2)))
		_, err := repo.UpdateStatus(ctx, 2, models.EventStatusFinishedLose)
		require.NoError(t, err)

		updated, err := repo.UpdateStatus(ctx, 2, models.EventStatusFinishedWin)
		require.NoError(t, err)
		assert.False(t, updated)

		stored, err := repo.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusFinishedLose, stored.Status)
	})

	t.Run("missing event", func(t *testing.T) {
		updated, err := repo.UpdateStatus(ctx, 99, models.EventStatusCancelled)
		require.NoError(t, err)
		assert.False(t, updated)
	})
}

func TestEventRepository_GetByIDForUpdate(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEventRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing event", func(t *testing.T) {
		err := testDB.DB.WithTransaction(ctx, func(tx pgx.Tx) error {
			event, err := newEventRepositoryWithTx(tx).GetByIDForUpdate(ctx, 99)
			require.NoError(t, err)
			assert.Nil(t, event)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("serializes concurrent status change", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestEvent(1)))

		locked := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)

		// Hold the row lock the way bet placement does
		go func() {
			done <- testDB.DB.WithTransaction(ctx, func(tx pgx.Tx) error {
				_, err := newEventRepositoryWithTx(tx).GetByIDForUpdate(ctx, 1)
				if err != nil {
					return err
				}
				close(locked)
				<-release
				return nil
			})
		}()

		<-locked

		// The status change must wait for the placement lock
		updateDone := make(chan error, 1)
		go func() {
			_, err := repo.UpdateStatus(ctx, 1, models.EventStatusFinishedWin)
			updateDone <- err
		}()

		select {
		case <-updateDone:
			t.Fatal("status change did not wait for the row lock")
		case <-time.After(200 * time.Millisecond):
		}

		close(release)
		require.NoError(t, <-done)
		require.NoError(t, <-updateDone)

		stored, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusFinishedWin, stored.Status)
	})
}
