package arbitrage

const (
	DefaultFeeRate         = 0.001
	DefaultFixedNetworkFee = 0.001
)

// FeeModel prices a round trip: a taker fee on each leg plus one flat network fee.
type FeeModel struct {
	Rate     float64
	FixedFee float64
}

// DefaultFees returns the standard fee schedule.
func DefaultFees() FeeModel {
	return FeeModel{Rate: DefaultFeeRate, FixedFee: DefaultFixedNetworkFee}
}

// TotalCost returns the cost of trading amount through both legs.
func (f FeeModel) TotalCost(amount float64) float64 {
	return amount*f.Rate*2 + f.FixedFee
}

// NetProfit returns the profit of capturing spreadPercentage on amount after costs.
func (f FeeModel) NetProfit(amount, spreadPercentage float64) float64 {
	return amount*(spreadPercentage/100) - f.TotalCost(amount)
}

// BreakEvenSpread is the spread percentage at which NetProfit is exactly zero.
func (f FeeModel) BreakEvenSpread(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	return f.TotalCost(amount) / amount * 100
}
