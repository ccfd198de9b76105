package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"betline/models"
)

func TestBetService_PlaceBet(t *testing.T) {
	ctx := context.Background()

	// Setup mocks
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockEventRepo := new(MockEventRepository)
	mockBetRepo := new(MockBetRepository)
	mockPublisher := new(MockEventPublisher)
	mockMirror := new(MockEventMirrorService)

	mockUoW.SetRepositories(mockEventRepo, mockBetRepo, mockPublisher)

	service := NewBetService(mockFactory, mockMirror, time.Second)

	event := createOpenEvent(1, "2.50")

	// Mock expectations
	mockMirror.On("GetOrFetch", mock.Anything, int64(1)).Return(event, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockEventRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(event, nil)

	mockBetRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *models.Bet) bool {
		return b.EventID == 1 &&
			b.Amount.Equal(decimal.RequireFromString("100.00")) &&
			b.CoefficientAtPlacement.Equal(decimal.RequireFromString("2.50")) &&
			b.Status == models.BetStatusPending
	})).Return(nil).Run(func(args mock.Arguments) {
		// Set the ID the database would assign
		bet := args.Get(1).(*models.Bet)
		bet.ID = 42
	})

	mockPublisher.On("Publish", mock.AnythingOfType("events.BetPlacedEvent")).Return()

	bet, err := service.PlaceBet(ctx, 1, decimal.RequireFromString("100.00"))

	assert.NoError(t, err)
	assert.NotNil(t, bet)
	assert.Equal(t, int64(42), bet.ID)
	assert.Equal(t, models.BetStatusPending, bet.Status)
	assert.True(t, bet.CoefficientAtPlacement.Equal(decimal.RequireFromString("2.50")))

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockEventRepo.AssertExpectations(t)
	mockBetRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
	mockMirror.AssertExpectations(t)
}

func TestBetService_PlaceBet_SnapshotsCurrentCoefficient(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockEventRepo := new(MockEventRepository)
	mockBetRepo := new(MockBetRepository)
	mockPublisher := new(MockEventPublisher)
	mockMirror := new(MockEventMirrorService)

	mockUoW.SetRepositories(mockEventRepo, mockBetRepo, mockPublisher)

	service := NewBetService(mockFactory, mockMirror, time.Second)

	// The coefficient read under the row lock wins, not the one the
	// mirror returned before the transaction started
	stale := createOpenEvent(3, "1.50")
	current := createOpenEvent(3, "1.67")

	mockMirror.On("GetOrFetch", mock.Anything, int64(3)).Return(stale, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockEventRepo.On("GetByIDForUpdate", mock.Anything, int64(3)).Return(current, nil)
	mockBetRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.BetPlacedEvent")).Return()

	bet, err := service.PlaceBet(ctx, 3, decimal.RequireFromString("50.00"))

	assert.NoError(t, err)
	assert.True(t, bet.CoefficientAtPlacement.Equal(decimal.RequireFromString("1.67")))
}

func TestBetService_PlaceBet_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	mockMirror := new(MockEventMirrorService)
	service := NewBetService(mockFactory, mockMirror, time.Second)

	// Zero amount
	bet, err := service.PlaceBet(ctx, 1, decimal.RequireFromString("0.00"))
	assert.Error(t, err)
	assert.Nil(t, bet)
	assert.Contains(t, err.Error(), "must be greater than 0")

	// Negative amount
	bet, err = service.PlaceBet(ctx, 1, decimal.RequireFromString("-10.00"))
	assert.Error(t, err)
	assert.Nil(t, bet)
	assert.Contains(t, err.Error(), "must be greater than 0")

	// Wrong scale
	bet, err = service.PlaceBet(ctx, 1, decimal.RequireFromString("10.005"))
	assert.Error(t, err)
	assert.Nil(t, bet)
	assert.Contains(t, err.Error(), "exactly 2 decimal places")

	mockMirror.AssertNotCalled(t, "GetOrFetch")
	mockFactory.AssertNotCalled(t, "Create")
}

func TestBetService_PlaceBet_EventNotFound(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	mockMirror := new(MockEventMirrorService)
	service := NewBetService(mockFactory, mockMirror, time.Second)

	mockMirror.On("GetOrFetch", mock.Anything, int64(99)).Return(nil, models.NewEventNotFoundError(99))

	bet, err := service.PlaceBet(ctx, 99, decimal.RequireFromString("100.00"))

	assert.Error(t, err)
	assert.Nil(t, bet)

	var notFoundErr *models.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestBetService_PlaceBet_EventNotOpen(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockEventRepo := new(MockEventRepository)
	mockBetRepo := new(MockBetRepository)
	mockPublisher := new(MockEventPublisher)
	mockMirror := new(MockEventMirrorService)

	mockUoW.SetRepositories(mockEventRepo, mockBetRepo, mockPublisher)

	service := NewBetService(mockFactory, mockMirror, time.Second)

	finished := createOpenEvent(5, "1.20")
	finished.Status = models.EventStatusFinishedLose

	mockMirror.On("GetOrFetch", mock.Anything, int64(5)).Return(finished, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockEventRepo.On("GetByIDForUpdate", mock.Anything, int64(5)).Return(finished, nil)

	bet, err := service.PlaceBet(ctx, 5, decimal.RequireFromString("100.00"))

	assert.Error(t, err)
	assert.Nil(t, bet)

	var notOpenErr *models.EventNotOpenError
	assert.ErrorAs(t, err, &notOpenErr)
	assert.Equal(t, models.EventStatusFinishedLose, notOpenErr.Status)

	mockBetRepo.AssertNotCalled(t, "Create")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestBetService_PlaceBet_DeadlinePassed(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockEventRepo := new(MockEventRepository)
	mockBetRepo := new(MockBetRepository)
	mockPublisher := new(MockEventPublisher)
	mockMirror := new(MockEventMirrorService)

	mockUoW.SetRepositories(mockEventRepo, mockBetRepo, mockPublisher)

	service := NewBetService(mockFactory, mockMirror, time.Second)

	expired := createOpenEvent(6, "1.20")
	expired.Deadline = time.Now().Add(-time.Minute).Unix()

	mockMirror.On("GetOrFetch", mock.Anything, int64(6)).Return(expired, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockEventRepo.On("GetByIDForUpdate", mock.Anything, int64(6)).Return(expired, nil)

	bet, err := service.PlaceBet(ctx, 6, decimal.RequireFromString("100.00"))

	assert.Error(t, err)
	assert.Nil(t, bet)

	var deadlineErr *models.DeadlinePassedError
	assert.ErrorAs(t, err, &deadlineErr)
	mockBetRepo.AssertNotCalled(t, "Create")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestBetService_PlaceBet_RetriesSerializationFailure(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockEventRepo := new(MockEventRepository)
	mockBetRepo := new(MockBetRepository)
	mockPublisher := new(MockEventPublisher)
	mockMirror := new(MockEventMirrorService)

	mockUoW.SetRepositories(mockEventRepo, mockBetRepo, mockPublisher)

	service := NewBetService(mockFactory, mockMirror, time.Second)

	event := createOpenEvent(1, "2.50")

	mockMirror.On("GetOrFetch", mock.Anything, int64(1)).Return(event, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockEventRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(event, nil)

	// A concurrent transition aborts the first attempt; the second succeeds
	mockBetRepo.On("Create", mock.Anything, mock.Anything).
		Return(&pgconn.PgError{Code: "40001"}).Once()
	mockBetRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	mockPublisher.On("Publish", mock.AnythingOfType("events.BetPlacedEvent")).Return()

	bet, err := service.PlaceBet(ctx, 1, decimal.RequireFromString("100.00"))

	assert.NoError(t, err)
	assert.NotNil(t, bet)
	mockBetRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestBetService_PlaceBet_SurfacesStorageTimeout(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockEventRepo := new(MockEventRepository)
	mockBetRepo := new(MockBetRepository)
	mockPublisher := new(MockEventPublisher)
	mockMirror := new(MockEventMirrorService)

	mockUoW.SetRepositories(mockEventRepo, mockBetRepo, mockPublisher)

	service := NewBetService(mockFactory, mockMirror, time.Second)

	event := createOpenEvent(1, "2.50")

	mockMirror.On("GetOrFetch", mock.Anything, int64(1)).Return(event, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockEventRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).
		Return(nil, context.DeadlineExceeded)

	bet, err := service.PlaceBet(ctx, 1, decimal.RequireFromString("100.00"))

	assert.Error(t, err)
	assert.Nil(t, bet)

	var timeoutErr *models.StorageTimeoutError
	assert.ErrorAs(t, err, &timeoutErr)

	// Retried once before giving up
	mockEventRepo.AssertNumberOfCalls(t, "GetByIDForUpdate", 2)
	mockBetRepo.AssertNotCalled(t, "Create")
}

func TestBetService_PlaceBet_CreateFails(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockEventRepo := new(MockEventRepository)
	mockBetRepo := new(MockBetRepository)
	mockPublisher := new(MockEventPublisher)
	mockMirror := new(MockEventMirrorService)

	mockUoW.SetRepositories(mockEventRepo, mockBetRepo, mockPublisher)

	service := NewBetService(mockFactory, mockMirror, time.Second)

	event := createOpenEvent(1, "2.50")

	mockMirror.On("GetOrFetch", mock.Anything, int64(1)).Return(event, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockEventRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(event, nil)
	mockBetRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	bet, err := service.PlaceBet(ctx, 1, decimal.RequireFromString("100.00"))

	assert.Error(t, err)
	assert.Nil(t, bet)
	mockPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestBetService_GetBet(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockEventRepo := new(MockEventRepository)
	mockBetRepo := new(MockBetRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(mockEventRepo, mockBetRepo, mockPublisher)

	service := NewBetService(mockFactory, new(MockEventMirrorService), time.Second)

	payout := decimal.RequireFromString("250.00")
	stored := &models.Bet{
		ID:                     42,
		EventID:                1,
		Amount:                 decimal.RequireFromString("100.00"),
		CoefficientAtPlacement: decimal.RequireFromString("2.50"),
		Status:                 models.BetStatusWon,
		Payout:                 &payout,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBetRepo.On("GetByID", mock.Anything, int64(42)).Return(stored, nil)

	bet, err := service.GetBet(ctx, 42)

	assert.NoError(t, err)
	assert.Equal(t, models.BetStatusWon, bet.Status)
	assert.True(t, bet.Payout.Equal(payout))
	mockBetRepo.AssertExpectations(t)
}

func TestBetService_GetBet_NotFound(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockBetRepo := new(MockBetRepository)

	mockUoW.SetRepositories(new(MockEventRepository), mockBetRepo, new(MockEventPublisher))

	service := NewBetService(mockFactory, new(MockEventMirrorService), time.Second)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBetRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, nil)

	bet, err := service.GetBet(ctx, 404)

	assert.Error(t, err)
	assert.Nil(t, bet)

	var notFoundErr *models.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "bet", notFoundErr.Kind)
}

func TestBetService_ListBets_WithStatusFilter(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockBetRepo := new(MockBetRepository)

	mockUoW.SetRepositories(new(MockEventRepository), mockBetRepo, new(MockEventPublisher))

	service := NewBetService(mockFactory, new(MockEventMirrorService), time.Second)

	pending := models.BetStatusPending
	stored := []*models.Bet{
		{ID: 2, EventID: 1, Status: models.BetStatusPending},
		{ID: 1, EventID: 1, Status: models.BetStatusPending},
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBetRepo.On("GetAll", mock.Anything, 50, 0, &pending).Return(stored, nil)

	bets, err := service.ListBets(ctx, 50, 0, &pending)

	assert.NoError(t, err)
	assert.Len(t, bets, 2)
	mockBetRepo.AssertExpectations(t)
}
