package market

import (
	"testing"
	"time"

	"arbdesk/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand returns a repeating sequence of draws.
type fixedRand struct {
	vals []float64
	i    int
}

func (f *fixedRand) Float64() float64 {
	v := f.vals[f.i%len(f.vals)]
	f.i++
	return v
}

func TestSimulator_Initialize(t *testing.T) {
	clock := schedule.NewVirtual(time.Unix(1700000000, 0))
	sim := NewSimulator(NewRand(42), clock, 0, 0)

	snap := sim.Initialize(Assets, Exchanges)

	require.Len(t, snap.Coins, len(Assets))
	for i, coin := range snap.Coins {
		assert.Equal(t, Assets[i].Symbol, coin.Symbol)
		require.Len(t, coin.Prices, len(Exchanges))
		for j, q := range coin.Prices {
			assert.Equal(t, Exchanges[j], q.Exchange)
			assert.GreaterOrEqual(t, q.Price, coin.BasePrice*0.98)
			assert.LessOrEqual(t, q.Price, coin.BasePrice*1.02)
			assert.Equal(t, clock.Now(), q.LastUpdate)
		}
	}
}

func TestSimulator_InitializeExactDraws(t *testing.T) {
	clock := schedule.NewVirtual(time.Unix(0, 0))
	// a draw of 0 maps to -2%, 0.5 maps to 0%
	sim := NewSimulator(&fixedRand{vals: []float64{0, 0.5}}, clock, 0, 0)

	snap := sim.Initialize(SelectAssets([]string{"BTC"}), []string{"Ex1", "Ex2"})

	assert.InDelta(t, 65000*0.98, snap.Coins[0].Prices[0].Price, 1e-9)
	assert.InDelta(t, 65000.0, snap.Coins[0].Prices[1].Price, 1e-9)
}

func TestSimulator_TickKeepsShapeAndBounds(t *testing.T) {
	clock := schedule.NewVirtual(time.Unix(1700000000, 0))
	sim := NewSimulator(NewRand(7), clock, 0, 0)

	before := sim.Initialize(Assets, Exchanges)
	clock.Advance(800 * time.Millisecond)
	after := sim.Tick(before)

	require.Len(t, after.Coins, len(before.Coins))
	for i := range before.Coins {
		require.Len(t, after.Coins[i].Prices, len(before.Coins[i].Prices))
		for j := range before.Coins[i].Prices {
			b, a := before.Coins[i].Prices[j], after.Coins[i].Prices[j]
			assert.Equal(t, b.Exchange, a.Exchange)
			assert.InDelta(t, b.Price, a.Price, b.Price*0.004+1e-12)
			assert.Equal(t, clock.Now(), a.LastUpdate)
			assert.True(t, b.LastUpdate.Before(a.LastUpdate))
		}
	}
}

func TestSimulator_SameSeedSameOutput(t *testing.T) {
	clock := schedule.NewVirtual(time.Unix(0, 0))
	a := NewSimulator(NewRand(99), clock, 0, 0)
	b := NewSimulator(NewRand(99), clock, 0, 0)

	sa := a.Tick(a.Initialize(Assets, Exchanges))
	sb := b.Tick(b.Initialize(Assets, Exchanges))

	assert.Equal(t, sa, sb)
}

func TestSelectAssets(t *testing.T) {
	got := SelectAssets([]string{"ETH", "BTC", "NOPE"})
	require.Len(t, got, 2)
	assert.Equal(t, "BTC", got[0].Symbol)
	assert.Equal(t, "ETH", got[1].Symbol)

	assert.Len(t, SelectAssets(nil), len(Assets))
	assert.Equal(t, []string{"A", "B"}, SelectExchanges([]string{"A", "B"}))
	assert.Len(t, SelectExchanges(nil), len(Exchanges))
}
