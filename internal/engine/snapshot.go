package engine

import (
	"time"

	"arbdesk/internal/model"
	"arbdesk/internal/trading"
)

// Status summarizes the running engine.
type Status struct {
	Running               bool              `json:"running"`
	UptimeSeconds         int64             `json:"uptimeSeconds"`
	LatencyMillis         int64             `json:"latencyMs"`
	TradingMode           model.TradingMode `json:"tradingMode"`
	AutoTrade             bool              `json:"autoTrade"`
	Balance               float64           `json:"balance"`
	NetYield              float64           `json:"netYield"`
	TotalProfit           float64           `json:"totalProfit"`
	BreakEvenSpread       float64           `json:"breakEvenSpread"`
	OpportunityCount      int               `json:"opportunityCount"`
	TradeCount            int               `json:"tradeCount"`
	AdvisoryInFlight      bool              `json:"advisoryInFlight"`
	AdvisoryCooldownUntil *time.Time        `json:"advisoryCooldownUntil,omitempty"`
}

// Markets returns a copy of the current market snapshot.
func (e *Engine) Markets() model.MarketSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.market.Clone()
}

// Opportunities returns the ranked opportunities from the latest detection.
func (e *Engine) Opportunities() []model.ArbitrageOpportunity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneOpportunities(e.st.opportunities)
}

// Opportunity looks up a currently listed opportunity by id.
func (e *Engine) Opportunity(id string) (model.ArbitrageOpportunity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, o := range e.st.opportunities {
		if o.ID == id {
			return o, true
		}
	}
	return model.ArbitrageOpportunity{}, false
}

// Trades returns the trade log, oldest first, filtered by coin and exchange when set.
func (e *Engine) Trades(coin, exchange string) []model.TradeRecord {
	e.mu.Lock()
	trades := e.ledger.Trades()
	e.mu.Unlock()
	return trading.FilterTrades(trades, coin, exchange)
}

func (e *Engine) Account() model.Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Account()
}

// PnL returns the last window points of the cumulative profit series. A
// non-positive window uses the configured default.
func (e *Engine) PnL(window int, exchange string) []trading.PnLPoint {
	if window <= 0 {
		window = e.opts.PnLWindow
	}
	points := trading.CumulativePnL(e.Trades("", exchange))
	return trading.Window(points, window)
}

// Advisory returns the most recent analysis, if one has landed.
func (e *Engine) Advisory() (model.Analysis, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.analysis == nil {
		return model.Analysis{}, false
	}
	a := *e.st.analysis
	a.SpotSignals = append([]model.SpotSignal{}, a.SpotSignals...)
	return a, true
}

func (e *Engine) Settings() model.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.settings
}

func (e *Engine) Status() Status {
	inFlight := e.poller.InFlight()
	cooldown := e.poller.CooldownUntil()

	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{
		Running:          e.st.running,
		UptimeSeconds:    int64(e.st.uptime / time.Second),
		LatencyMillis:    e.st.latency.Milliseconds(),
		TradingMode:      e.st.settings.TradingMode,
		AutoTrade:        e.st.settings.AutoTrade,
		Balance:          e.ledger.Balance(),
		NetYield:         e.ledger.NetYield(),
		TotalProfit:      e.ledger.TotalProfit(),
		BreakEvenSpread:  e.detector.Fees().BreakEvenSpread(e.st.settings.TradeAmount),
		OpportunityCount: len(e.st.opportunities),
		TradeCount:       len(e.ledger.Trades()),
		AdvisoryInFlight: inFlight,
	}
	if cooldown.After(e.clock.Now()) {
		s.AdvisoryCooldownUntil = &cooldown
	}
	return s
}
