package trading

import (
	"arbdesk/internal/model"

	"github.com/shopspring/decimal"
)

const (
	DefaultInitialBalance = 10000.0
	DefaultTradeLogLimit  = 50
	DefaultPnLWindow      = 20
)

// PnLPoint is one step of the cumulative profit series.
type PnLPoint struct {
	Index      int     `json:"time"`
	Cumulative float64 `json:"pnl"`
}

// Ledger owns the account balance and the bounded trade log.
// It is not safe for concurrent use; the engine serializes access.
type Ledger struct {
	initialBalance float64
	balance        float64
	limit          int
	trades         []model.TradeRecord
}

// NewLedger creates a ledger funded with initialBalance that retains at most limit trades.
func NewLedger(initialBalance float64, limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultTradeLogLimit
	}
	return &Ledger{
		initialBalance: initialBalance,
		balance:        initialBalance,
		limit:          limit,
		trades:         make([]model.TradeRecord, 0, limit),
	}
}

// Record appends rec, evicting the oldest entry when full, and credits its profit.
func (l *Ledger) Record(rec model.TradeRecord) {
	if len(l.trades) == l.limit {
		copy(l.trades, l.trades[1:])
		l.trades = l.trades[:l.limit-1]
	}
	l.trades = append(l.trades, rec)
	l.balance += rec.Profit
}

func (l *Ledger) Balance() float64 {
	return l.balance
}

func (l *Ledger) Account() model.Account {
	return model.Account{Balance: l.balance, InitialBalance: l.initialBalance}
}

// Trades returns a copy of the log in chronological order.
func (l *Ledger) Trades() []model.TradeRecord {
	out := make([]model.TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// NetYield is the balance change since the ledger was opened.
func (l *Ledger) NetYield() float64 {
	return l.balance - l.initialBalance
}

// TotalProfit sums the profit of every retained trade.
func (l *Ledger) TotalProfit() float64 {
	return TotalProfit(l.trades)
}

// TotalProfit sums trade profits.
func TotalProfit(trades []model.TradeRecord) float64 {
	sum := decimal.Zero
	for _, t := range trades {
		sum = sum.Add(decimal.NewFromFloat(t.Profit))
	}
	return sum.InexactFloat64()
}

// CumulativePnL computes the running profit over trades in log order.
// It always recomputes from scratch.
func CumulativePnL(trades []model.TradeRecord) []PnLPoint {
	points := make([]PnLPoint, 0, len(trades))
	sum := decimal.Zero
	for i, t := range trades {
		sum = sum.Add(decimal.NewFromFloat(t.Profit))
		points = append(points, PnLPoint{Index: i, Cumulative: sum.InexactFloat64()})
	}
	return points
}

// Window keeps the last n points for charting. An empty series is replaced by
// a flat two-point baseline so charts always have a line to draw.
func Window(points []PnLPoint, n int) []PnLPoint {
	if len(points) == 0 {
		return []PnLPoint{{Index: 0, Cumulative: 0}, {Index: 1, Cumulative: 0}}
	}
	if n > 0 && len(points) > n {
		points = points[len(points)-n:]
	}
	out := make([]PnLPoint, len(points))
	copy(out, points)
	return out
}

// FilterTrades returns trades matching coin and touching exchange on either leg.
// Empty filters match everything.
func FilterTrades(trades []model.TradeRecord, coin, exchange string) []model.TradeRecord {
	out := make([]model.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if coin != "" && t.Coin != coin {
			continue
		}
		if exchange != "" && t.BuyExchange != exchange && t.SellExchange != exchange {
			continue
		}
		out = append(out, t)
	}
	return out
}
