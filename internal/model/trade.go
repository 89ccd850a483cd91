package model

import "encoding/json"

// TradeAction is the side of a simulated trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// DefaultTradeQuantity applies when the service omits quantity.
const DefaultTradeQuantity = 1

// Trade is one fill produced by the paper-trading simulation.
type Trade struct {
	Date     *Date       `json:"date,omitempty"`
	Action   TradeAction `json:"action" validate:"required,oneof=BUY SELL"`
	Price    float64     `json:"price" validate:"gte=0"`
	Quantity float64     `json:"quantity" validate:"gte=0"`
}

// UnmarshalJSON defaults a missing quantity. An explicit 0 is kept.
func (t *Trade) UnmarshalJSON(data []byte) error {
	type plain Trade
	v := plain{Quantity: DefaultTradeQuantity}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Trade(v)
	return nil
}

// EquityPoint is one step of an equity curve.
type EquityPoint struct {
	Step   int     `json:"step"`
	Equity float64 `json:"equity"`
}

// PaperTradeRequest is the body of POST /paper-trade.
type PaperTradeRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	Days   int    `json:"days" validate:"gte=1"`
}

// PaperTradeResult is the body returned by POST /paper-trade.
// ReportedCurve is kept as delivered; the dashboard derives its curve from Trades.
type PaperTradeResult struct {
	Symbol        string        `json:"symbol,omitempty"`
	FinalValue    float64       `json:"final_value"`
	ReturnPct     float64       `json:"return_pct"`
	Trades        []Trade       `json:"trades" validate:"required,dive"`
	ReportedCurve []EquityPoint `json:"equity_curve,omitempty"`
}
