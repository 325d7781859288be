package config

import (
	"math"
	"strings"

	"arbdesk/internal/model"

	"github.com/spf13/cast"
)

const (
	DefaultMinSpreadPercent = 0.15
	MinTradeAmount          = 1.0
)

// DefaultSettings returns the settings a fresh bot starts with.
func DefaultSettings() model.Settings {
	return model.Settings{
		MinSpreadPercent:    DefaultMinSpreadPercent,
		MaxSlippagePercent:  0.05,
		MaxConcurrentTrades: 25,
		DailyStopLoss:       5000,
		EnableAdvisory:      true,
		TradingMode:         model.ModeHybrid,
		TradeAmount:         10,
		AutoTrade:           false,
	}
}

// NormalizeSettings clamps every field into its valid range.
func NormalizeSettings(s model.Settings) model.Settings {
	s.TradeAmount = clampTradeAmount(s.TradeAmount)
	if math.IsNaN(s.MinSpreadPercent) || math.IsInf(s.MinSpreadPercent, 0) || s.MinSpreadPercent <= 0 {
		s.MinSpreadPercent = DefaultMinSpreadPercent
	}
	if math.IsNaN(s.MaxSlippagePercent) || math.IsInf(s.MaxSlippagePercent, 0) || s.MaxSlippagePercent < 0 {
		s.MaxSlippagePercent = 0
	}
	if s.MaxConcurrentTrades < 1 {
		s.MaxConcurrentTrades = 1
	}
	if math.IsNaN(s.DailyStopLoss) || s.DailyStopLoss < 0 {
		s.DailyStopLoss = 0
	}
	if mode, ok := parseMode(string(s.TradingMode)); ok {
		s.TradingMode = mode
	} else {
		s.TradingMode = model.ModeHybrid
	}
	return s
}

// ApplySettings overlays loosely typed input (as decoded from JSON) onto
// current. Keys use the JSON field names. A trade amount that is not a number
// becomes the minimum, an unknown mode becomes HYBRID, and other unreadable
// values leave the field unchanged.
func ApplySettings(current model.Settings, input map[string]any) model.Settings {
	s := current

	if raw, ok := input["tradeAmount"]; ok {
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			v = MinTradeAmount
		}
		s.TradeAmount = v
	}
	if raw, ok := input["minSpreadPercent"]; ok {
		if v, err := cast.ToFloat64E(raw); err == nil {
			s.MinSpreadPercent = v
		}
	}
	if raw, ok := input["maxSlippagePercent"]; ok {
		if v, err := cast.ToFloat64E(raw); err == nil {
			s.MaxSlippagePercent = v
		}
	}
	if raw, ok := input["maxConcurrentTrades"]; ok {
		if v, err := cast.ToFloat64E(raw); err == nil && !math.IsNaN(v) {
			s.MaxConcurrentTrades = int(v)
		}
	}
	if raw, ok := input["dailyStopLoss"]; ok {
		if v, err := cast.ToFloat64E(raw); err == nil {
			s.DailyStopLoss = v
		}
	}
	if raw, ok := input["enableAdvisory"]; ok {
		if v, err := cast.ToBoolE(raw); err == nil {
			s.EnableAdvisory = v
		}
	}
	if raw, ok := input["autoTrade"]; ok {
		if v, err := cast.ToBoolE(raw); err == nil {
			s.AutoTrade = v
		}
	}
	if raw, ok := input["tradingMode"]; ok {
		s.TradingMode = model.TradingMode(cast.ToString(raw))
	}

	return NormalizeSettings(s)
}

// clampTradeAmount truncates to a whole number of currency units, at least one.
func clampTradeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return MinTradeAmount
	}
	v = math.Trunc(v)
	if v < MinTradeAmount {
		return MinTradeAmount
	}
	return v
}

func parseMode(s string) (model.TradingMode, bool) {
	switch mode := model.TradingMode(strings.ToUpper(strings.TrimSpace(s))); mode {
	case model.ModeArb, model.ModeSpot, model.ModeHybrid:
		return mode, true
	}
	return "", false
}
