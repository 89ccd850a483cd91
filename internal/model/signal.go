package model

// SignalAction is the recommendation carried by a TradeSignal.
type SignalAction string

const (
	SignalBuy  SignalAction = "BUY"
	SignalSell SignalAction = "SELL"
	SignalHold SignalAction = "HOLD"
)

// ForecastRequest is the body of POST /predict and POST /trade-signal.
type ForecastRequest struct {
	Symbol  string `json:"symbol" validate:"required"`
	Horizon int    `json:"horizon" validate:"gte=1"`
}

// Prediction is the model's next-close forecast.
type Prediction struct {
	Symbol         string  `json:"symbol,omitempty"`
	LastClose      float64 `json:"last_close" validate:"gte=0"`
	PredictedPrice float64 `json:"predicted_price" validate:"gte=0"`
	ConfidenceNote string  `json:"confidence_note"`
}

// TradeSignal is the model's trade recommendation. Confidence is reported raw,
// may be null, and is normalized for display by the strategy package.
type TradeSignal struct {
	Symbol     string       `json:"symbol,omitempty"`
	Signal     SignalAction `json:"signal" validate:"required,oneof=BUY SELL HOLD"`
	Confidence *float64     `json:"confidence"`
	Context    string       `json:"context"`
}
