package model

import "time"

// Asset is a tradable symbol from the static catalog.
type Asset struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	BasePrice float64 `json:"basePrice"`
}

// PriceQuote is the latest price of one asset on one exchange.
type PriceQuote struct {
	Exchange   string    `json:"exchange"`
	Price      float64   `json:"price"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// CoinMarket holds one quote per configured exchange for a single asset.
type CoinMarket struct {
	Asset
	Prices []PriceQuote `json:"prices"`
}

// MarketSnapshot is the full simulated market, kept in catalog order.
type MarketSnapshot struct {
	Coins []CoinMarket `json:"coins"`
}

// Lookup returns the market for the given symbol.
func (s MarketSnapshot) Lookup(symbol string) (CoinMarket, bool) {
	for _, c := range s.Coins {
		if c.Symbol == symbol {
			return c, true
		}
	}
	return CoinMarket{}, false
}

// Clone returns a deep copy so callers can never alias engine state.
func (s MarketSnapshot) Clone() MarketSnapshot {
	out := MarketSnapshot{Coins: make([]CoinMarket, len(s.Coins))}
	for i, c := range s.Coins {
		prices := make([]PriceQuote, len(c.Prices))
		copy(prices, c.Prices)
		out.Coins[i] = CoinMarket{Asset: c.Asset, Prices: prices}
	}
	return out
}

// ArbitrageOpportunity is a buy-low/sell-high pair across two exchanges.
type ArbitrageOpportunity struct {
	ID               string    `json:"id"`
	Coin             string    `json:"coin"`
	BuyFrom          string    `json:"buyFrom"`
	SellTo           string    `json:"sellTo"`
	BuyPrice         float64   `json:"buyPrice"`
	SellPrice        float64   `json:"sellPrice"`
	Spread           float64   `json:"spread"`
	SpreadPercentage float64   `json:"spreadPercentage"`
	Timestamp        time.Time `json:"timestamp"`
	EstimatedProfit  float64   `json:"estimatedProfit"`
}

type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// SpotSignal is a directional intent for a single exchange.
type SpotSignal struct {
	Coin        string       `json:"coin"`
	Action      SignalAction `json:"action"`
	Confidence  float64      `json:"confidence"`
	TargetPrice float64      `json:"targetPrice"`
	Reason      string       `json:"reason"`
}

type TradeType string

const (
	TradeArb  TradeType = "ARB"
	TradeSpot TradeType = "SPOT"
)

type TradeStatus string

const (
	StatusCompleted TradeStatus = "COMPLETED"
	// StatusPending and StatusFailed are never produced by synchronous execution.
	StatusPending TradeStatus = "PENDING"
	StatusFailed  TradeStatus = "FAILED"
)

// TradeRecord is an executed simulated trade.
type TradeRecord struct {
	ID           string      `json:"id" db:"id"`
	Timestamp    time.Time   `json:"timestamp" db:"timestamp"`
	Coin         string      `json:"coin" db:"coin"`
	Type         TradeType   `json:"type" db:"type"`
	BuyExchange  string      `json:"buyExchange" db:"buy_exchange"`
	SellExchange string      `json:"sellExchange" db:"sell_exchange"`
	Amount       float64     `json:"amount" db:"amount"`
	Profit       float64     `json:"profit" db:"profit"`
	Status       TradeStatus `json:"status" db:"status"`
}

// Account is the virtual balance traded against.
type Account struct {
	Balance        float64 `json:"balance"`
	InitialBalance float64 `json:"initialBalance"`
}

type TradingMode string

const (
	ModeArb    TradingMode = "ARB"
	ModeSpot   TradingMode = "SPOT"
	ModeHybrid TradingMode = "HYBRID"
)

// AllowsArb reports whether automatic arbitrage execution is enabled in this mode.
func (m TradingMode) AllowsArb() bool {
	return m == ModeArb || m == ModeHybrid
}

// AllowsSpot reports whether spot executions are accepted in this mode.
func (m TradingMode) AllowsSpot() bool {
	return m == ModeSpot || m == ModeHybrid
}

// Settings are the user-adjustable bot settings.
type Settings struct {
	MinSpreadPercent    float64     `json:"minSpreadPercent" mapstructure:"min_spread_percent"`
	MaxSlippagePercent  float64     `json:"maxSlippagePercent" mapstructure:"max_slippage_percent"`
	MaxConcurrentTrades int         `json:"maxConcurrentTrades" mapstructure:"max_concurrent_trades"`
	DailyStopLoss       float64     `json:"dailyStopLoss" mapstructure:"daily_stop_loss"`
	EnableAdvisory      bool        `json:"enableAdvisory" mapstructure:"enable_advisory"`
	TradingMode         TradingMode `json:"tradingMode" mapstructure:"trading_mode"`
	TradeAmount         float64     `json:"tradeAmount" mapstructure:"trade_amount"`
	AutoTrade           bool        `json:"autoTrade" mapstructure:"auto_trade"`
}

type Sentiment string

const (
	Bullish Sentiment = "BULLISH"
	Bearish Sentiment = "BEARISH"
	Neutral Sentiment = "NEUTRAL"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Analysis is the advisory service's view of the market.
type Analysis struct {
	Sentiment           Sentiment    `json:"sentiment"`
	Reasoning           string       `json:"reasoning"`
	RiskLevel           RiskLevel    `json:"riskLevel"`
	RecommendedStrategy string       `json:"recommendedStrategy"`
	SpotSignals         []SpotSignal `json:"spotSignals,omitempty"`
	Fallback            bool         `json:"fallback"`
	ReceivedAt          time.Time    `json:"receivedAt"`
}
