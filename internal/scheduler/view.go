package scheduler

import (
	"time"

	"QuantDash/internal/calculator"
	"QuantDash/internal/model"
	"QuantDash/internal/strategy"
)

// View is a Session plus every value the dashboard displays, derived at one instant.
type View struct {
	Session

	Filtered        []model.HistoryPoint         `json:"filtered_history"`
	CurrentPrice    float64                      `json:"current_price"`
	ChangePercent   float64                      `json:"change_percent"`
	LastUpdatedText string                       `json:"last_updated_text"`
	EquityCurve     []model.EquityPoint          `json:"equity_curve,omitempty"`
	Confidence      *strategy.Confidence         `json:"confidence,omitempty"`
	Indicators      *calculator.IndicatorSummary `json:"indicator_summary,omitempty"`
	RSIZone         string                       `json:"rsi_zone,omitempty"`
	PulseAction     string                       `json:"pulse_action,omitempty"`
}

// Derive computes the display values of s at now.
func (s Session) Derive(now time.Time, startingEquity float64) View {
	v := View{
		Session:         s,
		Filtered:        calculator.FilterHistory(s.History, s.TimeRange, now),
		CurrentPrice:    calculator.CurrentPrice(s.History),
		ChangePercent:   calculator.PriceChangePercent(s.History),
		LastUpdatedText: calculator.FormatRelativeTime(s.LastUpdated, now),
	}
	if s.PaperTrade != nil {
		v.EquityCurve = calculator.SimulateEquityCurve(s.PaperTrade.Trades, startingEquity)
	}
	if s.Signal != nil {
		c := strategy.NormalizeConfidencePtr(s.Signal.Confidence)
		v.Confidence = &c
	}
	if sum, ok := calculator.SummarizeIndicators(s.Indicators, s.History); ok {
		v.Indicators = &sum
		if sum.RSI != nil {
			v.RSIZone = calculator.RSIZone(*sum.RSI)
		}
	}
	v.PulseAction, _ = s.ActivePulse(now)
	return v
}
