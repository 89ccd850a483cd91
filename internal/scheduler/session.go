package scheduler

import (
	"strings"
	"time"

	"QuantDash/internal/calculator"
	"QuantDash/internal/model"
)

// Theme is the dashboard color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool { return t == ThemeDark || t == ThemeLight }

// Refresh interval bounds in seconds.
const (
	MinRefreshInterval = 1
	MaxRefreshInterval = 60
)

// Pulse marks the most recently triggered manual action until Until.
type Pulse struct {
	Action string    `json:"action,omitempty"`
	Until  time.Time `json:"until,omitempty"`
}

// Session is the dashboard state. Fetched values are replaced wholesale, never
// mutated in place, so a shallow copy is a safe snapshot.
type Session struct {
	ID                     string               `json:"id"`
	Symbol                 string               `json:"symbol"`
	AutoRefresh            bool                 `json:"auto_refresh"`
	RefreshIntervalSeconds int                  `json:"refresh_interval_seconds"`
	LastUpdated            time.Time            `json:"last_updated"`
	Loading                bool                 `json:"loading"`
	Error                  string               `json:"error,omitempty"`
	Theme                  Theme                `json:"theme"`
	TimeRange              calculator.TimeRange `json:"time_range"`

	History    []model.HistoryPoint       `json:"history"`
	Indicators []model.IndicatorPoint     `json:"indicators"`
	Prediction *model.Prediction          `json:"prediction,omitempty"`
	Signal     *model.TradeSignal         `json:"signal,omitempty"`
	PaperTrade *model.PaperTradeResult    `json:"paper_trade,omitempty"`
	Portfolio  *model.PortfolioAllocation `json:"portfolio,omitempty"`
	Risk       *model.RiskMetrics         `json:"risk,omitempty"`
	Backtest   *model.BacktestResult      `json:"backtest,omitempty"`

	// PredictionHorizon is the horizon of the last prediction, reused by the prediction timer.
	PredictionHorizon int `json:"prediction_horizon,omitempty"`

	Pulse Pulse `json:"pulse"`
}

// ActivePulse returns the pulsing action, if any, at now.
func (s Session) ActivePulse(now time.Time) (string, bool) {
	if s.Pulse.Action == "" || !now.Before(s.Pulse.Until) {
		return "", false
	}
	return s.Pulse.Action, true
}

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ClampInterval bounds n to the allowed refresh interval range.
func ClampInterval(n int) int {
	if n < MinRefreshInterval {
		return MinRefreshInterval
	}
	if n > MaxRefreshInterval {
		return MaxRefreshInterval
	}
	return n
}
