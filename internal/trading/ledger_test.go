package trading

import (
	"fmt"
	"testing"
	"time"

	"arbdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trade(id string, coin string, profit float64) model.TradeRecord {
	return model.TradeRecord{
		ID:           id,
		Timestamp:    time.Unix(0, 0),
		Coin:         coin,
		Type:         model.TradeArb,
		BuyExchange:  "Binance",
		SellExchange: "Kraken",
		Amount:       10,
		Profit:       profit,
		Status:       model.StatusCompleted,
	}
}

func TestLedger_RecordCreditsBalance(t *testing.T) {
	l := NewLedger(10000, 50)

	l.Record(trade("a", "BTC", 0.5))
	l.Record(trade("b", "ETH", 0.25))

	assert.InDelta(t, 10000.75, l.Balance(), 1e-9)
	assert.InDelta(t, 0.75, l.NetYield(), 1e-9)
	assert.InDelta(t, 0.75, l.TotalProfit(), 1e-12)
	assert.Equal(t, model.Account{Balance: l.Balance(), InitialBalance: 10000}, l.Account())
	require.Len(t, l.Trades(), 2)
	assert.Equal(t, "a", l.Trades()[0].ID)
}

func TestLedger_EvictsOldestFirst(t *testing.T) {
	l := NewLedger(10000, 50)

	for i := 0; i < 60; i++ {
		l.Record(trade(fmt.Sprintf("t%02d", i), "BTC", 0.01))
	}

	trades := l.Trades()
	require.Len(t, trades, 50)
	for i, tr := range trades {
		assert.Equal(t, fmt.Sprintf("t%02d", i+10), tr.ID)
	}
	// Evicted trades still count toward the balance.
	assert.InDelta(t, 10000.60, l.Balance(), 1e-9)
	assert.InDelta(t, 0.50, l.TotalProfit(), 1e-12)
}

func TestLedger_ExactlyFiftyKeepsAll(t *testing.T) {
	l := NewLedger(10000, 50)
	for i := 0; i < 50; i++ {
		l.Record(trade(fmt.Sprintf("t%02d", i), "BTC", 0.01))
	}

	trades := l.Trades()
	require.Len(t, trades, 50)
	assert.Equal(t, "t00", trades[0].ID)
	assert.Equal(t, "t49", trades[49].ID)
}

func TestLedger_TradesIsACopy(t *testing.T) {
	l := NewLedger(100, 5)
	l.Record(trade("a", "BTC", 1))

	got := l.Trades()
	got[0].Profit = 999

	assert.Equal(t, 1.0, l.Trades()[0].Profit)
}

func TestCumulativePnL(t *testing.T) {
	log := []model.TradeRecord{trade("a", "BTC", 0.1), trade("b", "BTC", 0.2), trade("c", "ETH", 0.3)}

	first := CumulativePnL(log)
	second := CumulativePnL(log)

	assert.Equal(t, first, second)
	assert.Equal(t, []PnLPoint{{0, 0.1}, {1, 0.3}, {2, 0.6}}, first)
	assert.Empty(t, CumulativePnL(nil))
}

func TestWindow(t *testing.T) {
	assert.Equal(t, []PnLPoint{{0, 0}, {1, 0}}, Window(nil, 20))

	var points []PnLPoint
	for i := 0; i < 30; i++ {
		points = append(points, PnLPoint{Index: i, Cumulative: float64(i)})
	}
	w := Window(points, 20)
	require.Len(t, w, 20)
	assert.Equal(t, 10, w[0].Index)
	assert.Equal(t, 29, w[19].Index)

	assert.Len(t, Window(points, 0), 30)
}

func TestFilterTrades(t *testing.T) {
	spot := trade("s", "SOL", 0.1)
	spot.Type = model.TradeSpot
	spot.BuyExchange, spot.SellExchange = "OKX", "OKX"
	log := []model.TradeRecord{trade("a", "BTC", 0.1), trade("b", "ETH", 0.2), spot}

	assert.Len(t, FilterTrades(log, "", ""), 3)
	assert.Len(t, FilterTrades(log, "BTC", ""), 1)
	assert.Len(t, FilterTrades(log, "", "Kraken"), 2)
	assert.Len(t, FilterTrades(log, "", "OKX"), 1)
	assert.Empty(t, FilterTrades(log, "SOL", "Kraken"))
}
