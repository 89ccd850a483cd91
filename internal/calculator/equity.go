package calculator

import (
	"github.com/shopspring/decimal"

	"QuantDash/internal/model"
)

// DefaultStartingEquity is the virtual capital the paper-trading replay starts from.
const DefaultStartingEquity = 100000

var half = decimal.NewFromFloat(0.5)

// SimulateEquityCurve replays trades against startingEquity. BUY spends price*quantity,
// every other action receives it. One point is emitted per trade, rounded to a whole
// unit with halves rounded up.
func SimulateEquityCurve(trades []model.Trade, startingEquity float64) []model.EquityPoint {
	curve := make([]model.EquityPoint, 0, len(trades))
	equity := decimal.NewFromFloat(startingEquity)
	for i, t := range trades {
		notional := decimal.NewFromFloat(t.Price).Mul(decimal.NewFromFloat(t.Quantity))
		if t.Action == model.ActionBuy {
			equity = equity.Sub(notional)
		} else {
			equity = equity.Add(notional)
		}
		curve = append(curve, model.EquityPoint{
			Step:   i + 1,
			Equity: equity.Add(half).Floor().InexactFloat64(),
		})
	}
	return curve
}
