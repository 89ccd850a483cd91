package recorder

import "QuantDash/internal/model"

// PredictionEvent records a completed forecast.
type PredictionEvent struct {
	SessionID  string
	Symbol     string
	Horizon    int
	Prediction *model.Prediction
	Background bool // issued by the prediction timer rather than a user
}

// SignalEvent records a trade signal with its normalized confidence.
type SignalEvent struct {
	SessionID       string
	Symbol          string
	Horizon         int
	Signal          *model.TradeSignal
	ConfidenceLabel string
}

// PaperTradeEvent records a paper-trading run and the end of its simulated curve.
type PaperTradeEvent struct {
	SessionID      string
	Symbol         string
	Days           int
	Result         *model.PaperTradeResult
	SimulatedFinal float64
}

// RefreshEvent records one base refresh cycle.
type RefreshEvent struct {
	SessionID       string
	Symbol          string
	HistoryPoints   int
	IndicatorPoints int
	LastPrice       float64
	Error           string
}

// Recorder journals dashboard activity for later analysis.
type Recorder interface {
	RecordPrediction(evt *PredictionEvent) error
	RecordSignal(evt *SignalEvent) error
	RecordPaperTrade(evt *PaperTradeEvent) error
	RecordRefresh(evt *RefreshEvent) error
	Close() error
}
