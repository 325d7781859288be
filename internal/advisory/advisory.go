package advisory

import (
	"context"
	"errors"
	"time"

	"arbdesk/internal/model"
)

const (
	DefaultTopOpportunities = 3
	DefaultTopMarkets       = 5
)

var (
	// ErrRateLimited means the service asked us to back off.
	ErrRateLimited = errors.New("advisory service rate limited")
	// ErrMalformed means the response could not be read as an analysis.
	ErrMalformed = errors.New("malformed advisory response")
)

// Request is the market context sent to the advisory service.
type Request struct {
	Opportunities []model.ArbitrageOpportunity `json:"opportunities"`
	Markets       []model.CoinMarket           `json:"markets"`
}

// Client produces an analysis for the given market context.
type Client interface {
	Analyze(ctx context.Context, req Request) (model.Analysis, error)
}

// BuildRequest trims the opportunity list and market snapshot to their leading entries.
func BuildRequest(opps []model.ArbitrageOpportunity, snap model.MarketSnapshot, topOpps, topMarkets int) Request {
	if topOpps <= 0 {
		topOpps = DefaultTopOpportunities
	}
	if topMarkets <= 0 {
		topMarkets = DefaultTopMarkets
	}
	req := Request{
		Opportunities: append([]model.ArbitrageOpportunity{}, opps[:min(topOpps, len(opps))]...),
		Markets:       snap.Clone().Coins,
	}
	req.Markets = req.Markets[:min(topMarkets, len(req.Markets))]
	return req
}

// Fallback is the analysis used whenever the service cannot be reached or understood.
func Fallback(now time.Time) model.Analysis {
	return model.Analysis{
		Sentiment:           model.Neutral,
		Reasoning:           "Advisory link unavailable; proceeding with local heuristic analysis.",
		RiskLevel:           model.RiskMedium,
		RecommendedStrategy: "Continue standard net-of-fee arbitrage execution until the advisory link recovers.",
		SpotSignals:         []model.SpotSignal{},
		Fallback:            true,
		ReceivedAt:          now,
	}
}

// NopClient always fails, so every poll yields the fallback analysis.
type NopClient struct{}

func (NopClient) Analyze(context.Context, Request) (model.Analysis, error) {
	return model.Analysis{}, errors.New("advisory service not configured")
}
