package market

import "arbdesk/internal/model"

// Exchanges is the default set of simulated venues.
var Exchanges = []string{
	"Binance",
	"crypto.com",
	"Trust Wallet",
	"Bybit",
	"Gemini",
	"Bitget",
	"CEX.io",
	"Gate.io",
	"Coinbase",
	"Bitmama",
	"OKX",
	"Kraken",
	"Coinmama",
	"Kucoin",
	"0x.io",
}

// Assets is the default basket with reference prices in USD.
var Assets = []model.Asset{
	{Symbol: "BTC", Name: "Bitcoin", BasePrice: 65000},
	{Symbol: "ETH", Name: "Ethereum", BasePrice: 3500},
	{Symbol: "BNB", Name: "Binance Coin", BasePrice: 600},
	{Symbol: "SOL", Name: "Solana", BasePrice: 145},
	{Symbol: "XRP", Name: "Ripple", BasePrice: 0.62},
	{Symbol: "BCH", Name: "Bitcoin Cash", BasePrice: 480},
	{Symbol: "LTC", Name: "Litecoin", BasePrice: 85},
	{Symbol: "LINK", Name: "Chainlink", BasePrice: 18},
	{Symbol: "ADA", Name: "Cardano", BasePrice: 0.58},
	{Symbol: "DOT", Name: "Polkadot", BasePrice: 8.20},
	{Symbol: "DOGE", Name: "Dogecoin", BasePrice: 0.16},
	{Symbol: "TRX", Name: "TRON", BasePrice: 0.12},
	{Symbol: "SAND", Name: "The Sandbox", BasePrice: 0.45},
	{Symbol: "USDT", Name: "Tether", BasePrice: 1.00},
	{Symbol: "USDC", Name: "USD Coin", BasePrice: 1.00},
}

// SelectAssets returns the catalog assets whose symbols are listed, in catalog
// order. An empty list selects the whole catalog.
func SelectAssets(symbols []string) []model.Asset {
	if len(symbols) == 0 {
		return append([]model.Asset(nil), Assets...)
	}
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	var out []model.Asset
	for _, a := range Assets {
		if want[a.Symbol] {
			out = append(out, a)
		}
	}
	return out
}

// SelectExchanges returns the listed exchanges, or the default set when empty.
func SelectExchanges(names []string) []string {
	if len(names) == 0 {
		return append([]string(nil), Exchanges...)
	}
	return append([]string(nil), names...)
}
