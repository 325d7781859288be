package advisory

import (
	"bytes"
	"encoding/json"
	"fmt"

	"arbdesk/internal/model"
)

var (
	fenceJSON = []byte("```json")
	fence     = []byte("```")
)

// Decode parses a possibly fenced JSON analysis and validates its enums and
// required fields. Spot signals with an unknown action or no coin are dropped.
func Decode(body []byte) (model.Analysis, error) {
	cleaned := bytes.ReplaceAll(body, fenceJSON, nil)
	cleaned = bytes.ReplaceAll(cleaned, fence, nil)
	cleaned = bytes.TrimSpace(cleaned)

	var a model.Analysis
	if err := json.Unmarshal(cleaned, &a); err != nil {
		return model.Analysis{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch a.Sentiment {
	case model.Bullish, model.Bearish, model.Neutral:
	default:
		return model.Analysis{}, fmt.Errorf("%w: sentiment %q", ErrMalformed, a.Sentiment)
	}
	switch a.RiskLevel {
	case model.RiskLow, model.RiskMedium, model.RiskHigh:
	default:
		return model.Analysis{}, fmt.Errorf("%w: risk level %q", ErrMalformed, a.RiskLevel)
	}
	if a.Reasoning == "" || a.RecommendedStrategy == "" {
		return model.Analysis{}, fmt.Errorf("%w: missing reasoning or strategy", ErrMalformed)
	}

	signals := make([]model.SpotSignal, 0, len(a.SpotSignals))
	for _, s := range a.SpotSignals {
		switch s.Action {
		case model.ActionBuy, model.ActionSell, model.ActionHold:
		default:
			continue
		}
		if s.Coin == "" {
			continue
		}
		s.Confidence = min(max(s.Confidence, 0), 1)
		signals = append(signals, s)
	}
	a.SpotSignals = signals
	a.Fallback = false
	return a, nil
}
