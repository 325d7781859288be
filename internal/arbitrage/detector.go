package arbitrage

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"arbdesk/internal/model"
)

// Detector scans a market snapshot for net-of-fee cross-exchange spreads.
type Detector struct {
	logger *slog.Logger
	fees   FeeModel
}

// NewDetector creates a new Detector.
func NewDetector(logger *slog.Logger, fees FeeModel) *Detector {
	return &Detector{logger: logger, fees: fees}
}

// Fees returns the fee model used to price opportunities.
func (d *Detector) Fees() FeeModel {
	return d.fees
}

// Detect rebuilds the full opportunity set for snap, ranked by estimated profit.
func (d *Detector) Detect(snap model.MarketSnapshot, tradeAmount, minSpreadPercent float64, now time.Time) []model.ArbitrageOpportunity {
	if tradeAmount <= 0 {
		return nil
	}

	var opps []model.ArbitrageOpportunity
	for _, coin := range snap.Coins {
		opp, ok := d.evaluate(coin, tradeAmount, minSpreadPercent, now)
		if !ok {
			continue
		}
		opps = append(opps, opp)
	}

	// Stable so equal profits keep catalog order.
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].EstimatedProfit > opps[j].EstimatedProfit
	})
	return opps
}

func (d *Detector) evaluate(coin model.CoinMarket, tradeAmount, minSpreadPercent float64, now time.Time) (model.ArbitrageOpportunity, bool) {
	if len(coin.Prices) < 2 {
		return model.ArbitrageOpportunity{}, false
	}

	sorted := make([]model.PriceQuote, len(coin.Prices))
	copy(sorted, coin.Prices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})

	low, high := sorted[0], sorted[len(sorted)-1]
	if low.Price <= 0 {
		return model.ArbitrageOpportunity{}, false
	}

	spread := high.Price - low.Price
	spreadPct := spread / low.Price * 100
	profit := d.fees.NetProfit(tradeAmount, spreadPct)

	if spreadPct < minSpreadPercent || profit <= 0 {
		return model.ArbitrageOpportunity{}, false
	}

	d.logger.Debug("Profitable arbitrage opportunity found",
		"coin", coin.Symbol,
		"buyExchange", low.Exchange,
		"sellExchange", high.Exchange,
		"spreadPct", spreadPct,
		"netProfit", profit,
	)

	return model.ArbitrageOpportunity{
		ID:               fmt.Sprintf("%s-%d", coin.Symbol, now.UnixMilli()),
		Coin:             coin.Symbol,
		BuyFrom:          low.Exchange,
		SellTo:           high.Exchange,
		BuyPrice:         low.Price,
		SellPrice:        high.Price,
		Spread:           spread,
		SpreadPercentage: spreadPct,
		Timestamp:        now,
		EstimatedProfit:  profit,
	}, true
}
