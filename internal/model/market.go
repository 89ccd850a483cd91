package model

// HistoryPoint is a single closing price. Sequences are ordered oldest first.
type HistoryPoint struct {
	Date  Date    `json:"date" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// IndicatorPoint carries the technical indicators computed by the service for one day.
// Numeric fields are nil while an indicator is still warming up.
type IndicatorPoint struct {
	Date          Date     `json:"date" validate:"required"`
	Close         *float64 `json:"close"`
	Volume        *float64 `json:"volume"`
	RSI           *float64 `json:"rsi" validate:"omitnil,gte=0,lte=100"`
	EMA20         *float64 `json:"ema_20"`
	EMA50         *float64 `json:"ema_50"`
	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
	BBUpper       *float64 `json:"bb_upper"`
	BBMiddle      *float64 `json:"bb_middle"`
	BBLower       *float64 `json:"bb_lower"`
}

// HistoryResponse is the body of GET /history/{symbol}.
type HistoryResponse struct {
	Symbol  string         `json:"symbol"`
	History []HistoryPoint `json:"history" validate:"required,dive"`
}

// IndicatorsResponse is the body of GET /indicators/{symbol}.
type IndicatorsResponse struct {
	Symbol     string           `json:"symbol"`
	Indicators []IndicatorPoint `json:"indicators" validate:"required,dive"`
}

// Float returns a pointer to v; handy for building indicator fixtures.
func Float(v float64) *float64 { return &v }
