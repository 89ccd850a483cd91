package model

// BacktestResult is the body returned by GET /backtest/{symbol}: a walk-forward
// replay of the model's long/short calls over the symbol's history.
type BacktestResult struct {
	Symbol      string    `json:"symbol,omitempty"`
	FinalEquity float64   `json:"final_equity" validate:"gte=0"`
	TotalReturn float64   `json:"total_return"`
	Sharpe      float64   `json:"sharpe"`
	EquityCurve []float64 `json:"equity_curve" validate:"required"`
}
