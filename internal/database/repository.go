package database

import (
	"context"
	"fmt"

	"arbdesk/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Repository defines the standard interface for database operations.
type Repository interface {
	LogTrade(ctx context.Context, trade model.TradeRecord) error
	Migrate(ctx context.Context) error
}

// DBPool is the subset of *pgxpool.Pool the repository needs.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository writes executed trades to an append-only journal table.
// Nothing is ever read back into the engine.
type PostgresRepository struct {
	Pool DBPool
}

const createTradeRecordsSQL = `
CREATE TABLE IF NOT EXISTS trade_records (
	id UUID PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL,
	coin VARCHAR(20) NOT NULL,
	type VARCHAR(8) NOT NULL,
	buy_exchange VARCHAR(50) NOT NULL,
	sell_exchange VARCHAR(50) NOT NULL,
	amount NUMERIC(20, 8) NOT NULL,
	profit NUMERIC(20, 8) NOT NULL,
	status VARCHAR(16) NOT NULL
)`

const insertTradeRecordSQL = `
INSERT INTO trade_records (id, timestamp, coin, type, buy_exchange, sell_exchange, amount, profit, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING`

// Migrate creates the journal table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, createTradeRecordsSQL); err != nil {
		return fmt.Errorf("failed to create trade_records table: %w", err)
	}
	return nil
}

// LogTrade inserts one trade. Amounts are stored as exact decimals.
func (r *PostgresRepository) LogTrade(ctx context.Context, trade model.TradeRecord) error {
	_, err := r.Pool.Exec(ctx, insertTradeRecordSQL,
		trade.ID,
		trade.Timestamp,
		trade.Coin,
		string(trade.Type),
		trade.BuyExchange,
		trade.SellExchange,
		decimal.NewFromFloat(trade.Amount),
		decimal.NewFromFloat(trade.Profit),
		string(trade.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to log trade %s: %w", trade.ID, err)
	}
	return nil
}
