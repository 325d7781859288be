package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"arbdesk/internal/engine"
	"arbdesk/internal/model"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) LogTrade(ctx context.Context, trade model.TradeRecord) error {
	args := m.Called(ctx, trade)
	return args.Error(0)
}

func (m *MockRepository) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testTrade(id string) model.TradeRecord {
	return model.TradeRecord{
		ID:           id,
		Timestamp:    time.Unix(1700000000, 0).UTC(),
		Coin:         "ETH",
		Type:         model.TradeArb,
		BuyExchange:  "Bybit",
		SellExchange: "OKX",
		Amount:       10,
		Profit:       0.079,
		Status:       model.StatusCompleted,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPostgresRepository_LogTrade(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts the trade", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		trade := testTrade("t1")
		mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO trade_records")).
			WithArgs(trade.ID, trade.Timestamp, "ETH", "ARB", "Bybit", "OKX",
				decimal.NewFromFloat(10), decimal.NewFromFloat(0.079), "COMPLETED").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := &PostgresRepository{Pool: mockPool}
		assert.NoError(t, repo.LogTrade(ctx, trade))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("wraps database errors", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		dbErr := errors.New("connection reset")
		mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO trade_records")).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(dbErr)

		repo := &PostgresRepository{Pool: mockPool}
		err = repo.LogTrade(ctx, testTrade("t2"))
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "t2")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresRepository_Migrate(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS trade_records")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	repo := &PostgresRepository{Pool: mockPool}
	assert.NoError(t, repo.Migrate(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestJournal(t *testing.T) {
	t.Run("writes trade events", func(t *testing.T) {
		repo := new(MockRepository)
		trade := testTrade("t1")
		written := make(chan struct{})
		repo.On("LogTrade", mock.Anything, trade).Return(nil).Once().
			Run(func(mock.Arguments) { close(written) })

		j := NewJournal(discardLogger(), repo, 4)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			j.Run(ctx)
			close(done)
		}()

		j.Notify(engine.Event{Type: engine.EventMarket, Data: model.MarketSnapshot{}})
		j.Notify(engine.Event{Type: engine.EventTrade, Data: trade})

		select {
		case <-written:
		case <-time.After(time.Second):
			t.Fatal("trade was not journaled")
		}
		cancel()
		<-done
		repo.AssertExpectations(t)
	})

	t.Run("trades queued while shutting down are written", func(t *testing.T) {
		repo := new(MockRepository)
		first, late := testTrade("first"), testTrade("late")
		busy := make(chan struct{})
		release := make(chan struct{})
		repo.On("LogTrade", mock.Anything, first).Return(nil).Once().
			Run(func(mock.Arguments) {
				close(busy)
				<-release
			})
		repo.On("LogTrade", mock.Anything, late).Return(nil).Once()

		j := NewJournal(discardLogger(), repo, 4)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			j.Run(ctx)
			close(done)
		}()

		j.Notify(engine.Event{Type: engine.EventTrade, Data: first})
		<-busy
		cancel()
		j.Notify(engine.Event{Type: engine.EventTrade, Data: late})
		close(release)

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("journal did not stop")
		}
		repo.AssertExpectations(t)
	})

	t.Run("repository errors are logged, not fatal", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LogTrade", mock.Anything, mock.Anything).Return(errors.New("down")).Twice()

		j := NewJournal(discardLogger(), repo, 4)
		j.Notify(engine.Event{Type: engine.EventTrade, Data: testTrade("a")})
		j.Notify(engine.Event{Type: engine.EventTrade, Data: testTrade("b")})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		j.Run(ctx)

		repo.AssertExpectations(t)
	})

	t.Run("drops when the buffer is full", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LogTrade", mock.Anything, mock.Anything).Return(nil)

		j := NewJournal(discardLogger(), repo, 1)
		j.Notify(engine.Event{Type: engine.EventTrade, Data: testTrade("kept")})
		j.Notify(engine.Event{Type: engine.EventTrade, Data: testTrade("dropped")})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		j.Run(ctx)

		repo.AssertNumberOfCalls(t, "LogTrade", 1)
		repo.AssertCalled(t, "LogTrade", mock.Anything, testTrade("kept"))
	})
}
