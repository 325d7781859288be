package trading

import (
	"log/slog"
	"time"

	"arbdesk/internal/arbitrage"
	"arbdesk/internal/model"
	"arbdesk/internal/schedule"

	"github.com/google/uuid"
)

const (
	DefaultDebounce = 200 * time.Millisecond

	// maxSpotMove bounds the simulated intra-exchange price move.
	maxSpotMove = 0.03
	// spotUpProbability is the share of spot draws that move in the trade's favour.
	spotUpProbability = 0.7

	defaultSpotBuyExchange  = "MARKET"
	defaultSpotSellExchange = "HFT-NODE"
)

// Rand is the source of uniform draws in [0, 1).
type Rand interface {
	Float64() float64
}

// Intent is a request to execute either an arbitrage opportunity or a spot signal.
type Intent struct {
	Type        model.TradeType
	Opportunity model.ArbitrageOpportunity
	Signal      model.SpotSignal
	// Exchange is the venue for both legs of a spot trade.
	Exchange string
}

// ArbIntent wraps an opportunity for execution.
func ArbIntent(opp model.ArbitrageOpportunity) Intent {
	return Intent{Type: model.TradeArb, Opportunity: opp}
}

// SpotIntent wraps a spot signal to be executed on exchange.
func SpotIntent(sig model.SpotSignal, exchange string) Intent {
	return Intent{Type: model.TradeSpot, Signal: sig, Exchange: exchange}
}

// Executor validates intents against the execution guards and applies them to a Ledger.
// Like Ledger, it relies on the caller to serialize access.
type Executor struct {
	logger        *slog.Logger
	fees          arbitrage.FeeModel
	clock         schedule.Clock
	rng           Rand
	debounce      time.Duration
	ledger        *Ledger
	lastExecution time.Time
	newID         func() string
}

// NewExecutor creates a new Executor bound to ledger.
func NewExecutor(logger *slog.Logger, fees arbitrage.FeeModel, clock schedule.Clock, rng Rand, debounce time.Duration, ledger *Ledger) *Executor {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Executor{
		logger:   logger,
		fees:     fees,
		clock:    clock,
		rng:      rng,
		debounce: debounce,
		ledger:   ledger,
		newID:    uuid.NewString,
	}
}

// LastExecution returns the time of the last successful trade.
func (x *Executor) LastExecution() time.Time {
	return x.lastExecution
}

// Execute runs intent at tradeAmount against the ledger. It returns false,
// without touching any state, when a guard rejects the trade.
func (x *Executor) Execute(in Intent, tradeAmount float64) (model.TradeRecord, bool) {
	rec, ok := x.Evaluate(in, tradeAmount, x.ledger.Balance(), x.lastExecution)
	if !ok {
		return model.TradeRecord{}, false
	}

	x.ledger.Record(rec)
	x.lastExecution = rec.Timestamp

	x.logger.Info("Trade executed",
		"id", rec.ID,
		"type", rec.Type,
		"coin", rec.Coin,
		"buyExchange", rec.BuyExchange,
		"sellExchange", rec.SellExchange,
		"profit", rec.Profit,
		"balance", x.ledger.Balance(),
	)
	return rec, true
}

// Evaluate applies the guards and prices the trade without mutating anything.
func (x *Executor) Evaluate(in Intent, tradeAmount, balance float64, lastExecution time.Time) (model.TradeRecord, bool) {
	now := x.clock.Now()

	if tradeAmount < 1 {
		x.reject(in, "invalid trade amount", tradeAmount)
		return model.TradeRecord{}, false
	}
	if balance < tradeAmount {
		x.reject(in, "insufficient funds", tradeAmount)
		return model.TradeRecord{}, false
	}
	if !lastExecution.IsZero() && now.Sub(lastExecution) < x.debounce {
		x.reject(in, "rate limited", tradeAmount)
		return model.TradeRecord{}, false
	}

	rec := model.TradeRecord{
		Timestamp: now,
		Type:      in.Type,
		Amount:    tradeAmount,
		Status:    model.StatusCompleted,
	}

	costs := x.fees.TotalCost(tradeAmount)
	switch in.Type {
	case model.TradeArb:
		rec.Coin = in.Opportunity.Coin
		rec.BuyExchange = in.Opportunity.BuyFrom
		rec.SellExchange = in.Opportunity.SellTo
		rec.Profit = tradeAmount*(in.Opportunity.SpreadPercentage/100) - costs
	case model.TradeSpot:
		if in.Signal.Action == model.ActionHold {
			x.reject(in, "hold signal", tradeAmount)
			return model.TradeRecord{}, false
		}
		rec.Coin = in.Signal.Coin
		rec.BuyExchange, rec.SellExchange = defaultSpotBuyExchange, defaultSpotSellExchange
		if in.Exchange != "" {
			rec.BuyExchange, rec.SellExchange = in.Exchange, in.Exchange
		}
		rec.Profit = tradeAmount*x.spotMove() - costs
	default:
		x.reject(in, "unknown trade type", tradeAmount)
		return model.TradeRecord{}, false
	}

	if rec.Profit <= 0 {
		x.reject(in, "non-positive profit", tradeAmount)
		return model.TradeRecord{}, false
	}

	rec.ID = x.newID()
	return rec, true
}

// spotMove draws a signed move of up to 3%, positive about 70% of the time.
func (x *Executor) spotMove() float64 {
	magnitude := x.rng.Float64() * maxSpotMove
	if x.rng.Float64() < spotUpProbability {
		return magnitude
	}
	return -magnitude
}

func (x *Executor) reject(in Intent, reason string, tradeAmount float64) {
	x.logger.Debug("Trade rejected", "type", in.Type, "reason", reason, "amount", tradeAmount)
}
