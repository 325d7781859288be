package market

import (
	"math/rand/v2"
	"time"

	"arbdesk/internal/model"
	"arbdesk/internal/schedule"
)

const (
	DefaultSeedJitter = 0.02
	DefaultTickJitter = 0.004
)

// Rand is the source of uniform draws in [0, 1).
type Rand interface {
	Float64() float64
}

// NewRand returns a seeded PCG source. A zero seed uses the current time.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Simulator produces and perturbs synthetic per-exchange prices.
type Simulator struct {
	rng        Rand
	clock      schedule.Clock
	seedJitter float64
	tickJitter float64
}

// NewSimulator creates a new Simulator. Non-positive jitters fall back to defaults.
func NewSimulator(rng Rand, clock schedule.Clock, seedJitter, tickJitter float64) *Simulator {
	if seedJitter <= 0 {
		seedJitter = DefaultSeedJitter
	}
	if tickJitter <= 0 {
		tickJitter = DefaultTickJitter
	}
	return &Simulator{rng: rng, clock: clock, seedJitter: seedJitter, tickJitter: tickJitter}
}

// Initialize seeds one quote per exchange for every asset around its base price.
func (s *Simulator) Initialize(assets []model.Asset, exchanges []string) model.MarketSnapshot {
	now := s.clock.Now()
	snap := model.MarketSnapshot{Coins: make([]model.CoinMarket, 0, len(assets))}
	for _, a := range assets {
		prices := make([]model.PriceQuote, 0, len(exchanges))
		for _, ex := range exchanges {
			prices = append(prices, model.PriceQuote{
				Exchange:   ex,
				Price:      a.BasePrice * (1 + s.uniform(s.seedJitter)),
				LastUpdate: now,
			})
		}
		snap.Coins = append(snap.Coins, model.CoinMarket{Asset: a, Prices: prices})
	}
	return snap
}

// Tick returns a new snapshot of the same shape with every price nudged.
// The input snapshot is left untouched.
func (s *Simulator) Tick(snap model.MarketSnapshot) model.MarketSnapshot {
	now := s.clock.Now()
	next := snap.Clone()
	for i := range next.Coins {
		for j := range next.Coins[i].Prices {
			q := &next.Coins[i].Prices[j]
			q.Price *= 1 + s.uniform(s.tickJitter)
			q.LastUpdate = now
		}
	}
	return next
}

// uniform draws from U(-mag, mag).
func (s *Simulator) uniform(mag float64) float64 {
	return (s.rng.Float64()*2 - 1) * mag
}
